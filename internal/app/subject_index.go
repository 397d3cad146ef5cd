package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type IndexAction string

const (
	IndexAdd    IndexAction = "add"
	IndexUpdate IndexAction = "update"
	IndexDelete IndexAction = "delete"
)

func ParseIndexAction(raw string) (IndexAction, error) {
	switch a := IndexAction(strings.ToLower(strings.TrimSpace(raw))); a {
	case IndexAdd, IndexUpdate, IndexDelete:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown index action %q", ErrInvalidInput, raw)
}

// TopicText is the newline-delimited topics field. Older indexes stored a
// JSON array here; it decodes as the lines joined by "\n".
type TopicText string

func (t *TopicText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '[' {
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return fmt.Errorf("decode topics list: %w", err)
		}
		*t = TopicText(strings.Join(lines, "\n"))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode topics: %w", err)
	}
	*t = TopicText(s)
	return nil
}

// Lines splits the topics on newlines, trimming and dropping blanks.
func (t TopicText) Lines() []string {
	var out []string
	for _, line := range strings.Split(string(t), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

type FileEntry struct {
	Filename string    `json:"filename"`
	Chapter  string    `json:"chapter"`
	Topics   TopicText `json:"topics"`
}

// SubjectIndex is the per-subject subject_metadata.json document. It holds at
// most one entry per (chapter, filename).
type SubjectIndex struct {
	Files []FileEntry `json:"files"`
}

func decodeSubjectIndex(raw []byte) (*SubjectIndex, error) {
	idx := &SubjectIndex{}
	if len(bytes.TrimSpace(raw)) == 0 {
		idx.Files = []FileEntry{}
		return idx, nil
	}
	if err := json.Unmarshal(raw, idx); err != nil {
		return nil, fmt.Errorf("decode subject index: %w", err)
	}
	if idx.Files == nil {
		idx.Files = []FileEntry{}
	}
	return idx, nil
}

func (idx *SubjectIndex) encode() ([]byte, error) {
	if idx.Files == nil {
		idx.Files = []FileEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(idx); err != nil {
		return nil, fmt.Errorf("encode subject index: %w", err)
	}
	return buf.Bytes(), nil
}

// Apply runs one add/update/delete against the index and reports whether it
// changed anything.
func (idx *SubjectIndex) Apply(chapter, filename string, action IndexAction, topics string) (bool, error) {
	switch action {
	case IndexAdd:
		if _, ok := idx.Entry(chapter, filename); ok {
			return false, nil
		}
		idx.Files = append(idx.Files, FileEntry{Filename: filename, Chapter: chapter})
		return true, nil

	case IndexUpdate:
		for i := range idx.Files {
			if idx.Files[i].matches(chapter, filename) {
				idx.Files[i].Topics = TopicText(topics)
				return true, nil
			}
		}
		idx.Files = append(idx.Files, FileEntry{Filename: filename, Chapter: chapter, Topics: TopicText(topics)})
		return true, nil

	case IndexDelete:
		kept := idx.Files[:0]
		for _, e := range idx.Files {
			if !e.matches(chapter, filename) {
				kept = append(kept, e)
			}
		}
		changed := len(kept) != len(idx.Files)
		idx.Files = kept
		return changed, nil
	}
	return false, fmt.Errorf("%w: unknown index action %q", ErrInvalidInput, action)
}

func (idx *SubjectIndex) Entry(chapter, filename string) (FileEntry, bool) {
	for _, e := range idx.Files {
		if e.matches(chapter, filename) {
			return e, true
		}
	}
	return FileEntry{}, false
}

// RemoveChapter drops every entry of chapter and returns how many were removed.
func (idx *SubjectIndex) RemoveChapter(chapter string) int {
	kept := idx.Files[:0]
	for _, e := range idx.Files {
		if e.Chapter != chapter {
			kept = append(kept, e)
		}
	}
	removed := len(idx.Files) - len(kept)
	idx.Files = kept
	return removed
}

// Topics returns the chapter's topics in index order.
func (idx *SubjectIndex) Topics(chapter string) []string {
	out := []string{}
	for _, e := range idx.Files {
		if e.Chapter == chapter {
			out = append(out, e.Topics.Lines()...)
		}
	}
	return out
}

func (e FileEntry) matches(chapter, filename string) bool {
	return e.Chapter == chapter && e.Filename == filename
}
