package pdfextract

import (
	"bytes"
	"errors"
	"io"

	"github.com/ledongthuc/pdf"
)

type Info struct {
	Pages     int
	TextBytes int
}

// Inspect opens an uploaded PDF and reports its page count and how much plain
// text it yields. An error means the document cannot be parsed at all.
func Inspect(body []byte) (Info, error) {
	if len(body) == 0 {
		return Info{}, errors.New("empty document")
	}
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return Info{}, err
	}
	info := Info{Pages: reader.NumPage()}

	plain, err := reader.GetPlainText()
	if err != nil {
		return info, nil
	}
	n, err := io.Copy(io.Discard, plain)
	if err != nil {
		return info, nil
	}
	info.TextBytes = int(n)
	return info, nil
}
