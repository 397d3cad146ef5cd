package app

import "time"

// FileMetadata is the "{file}.metadata.json" sidecar that Bedrock reads
// alongside each reference file to filter retrieval by subject and chapter.
type FileMetadata struct {
	MetadataAttributes map[string]MetadataAttribute `json:"metadataAttributes"`
}

type MetadataAttribute struct {
	Value               MetadataValue `json:"value"`
	IncludeForEmbedding bool          `json:"includeForEmbedding"`
}

type MetadataValue struct {
	Type        string `json:"type"`
	StringValue string `json:"stringValue,omitempty"`
	NumberValue *int   `json:"numberValue,omitempty"`
}

func stringAttribute(v string) MetadataAttribute {
	return MetadataAttribute{
		Value:               MetadataValue{Type: "STRING", StringValue: v},
		IncludeForEmbedding: true,
	}
}

func newFileMetadata(subject, chapter, filename string, now time.Time) FileMetadata {
	created := now.Year()*10000 + int(now.Month())*100 + now.Day()
	return FileMetadata{
		MetadataAttributes: map[string]MetadataAttribute{
			"subject":  stringAttribute(subject),
			"chapter":  stringAttribute(chapter),
			"filename": stringAttribute(filename),
			"created_date": {
				Value:               MetadataValue{Type: "NUMBER", NumberValue: &created},
				IncludeForEmbedding: true,
			},
		},
	}
}
