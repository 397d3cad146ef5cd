package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrUpstream          = errors.New("upstream service failed")
	ErrTranscriptMissing = errors.New("transcription not found, generate the transcript first")
	ErrDraftNotFound     = errors.New("presentation draft not found or expired")
	ErrTemplateLoad      = errors.New("presentation template load failed")
	ErrJobNotFound       = errors.New("transcription job not found")
)
