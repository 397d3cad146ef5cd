package app

import (
	"fmt"
	"path"
	"strings"
)

// Object key layout shared by the materials and artifacts buckets:
//
//	{subject}/
//	{subject}/subject_metadata.json
//	{subject}/{chapter}/
//	{subject}/{chapter}/{file}
//	{subject}/{chapter}/{file}.metadata.json
//	{subject}/{chapter}/{topic}/summary.{txt,pdf}
//	{subject}/{chapter}/DeliveredLectures/{video}
//	{subject}/{chapter}/DeliveredLectures/{video}/{asset}.{txt,json,pdf}
const (
	subjectIndexName = "subject_metadata.json"
	sidecarSuffix    = ".metadata.json"
	lecturesDir      = "DeliveredLectures"
	maxNameLength    = 200
)

func subjectPrefix(subject string) string {
	return subject + "/"
}

func chapterPrefix(subject, chapter string) string {
	return subject + "/" + chapter + "/"
}

func fileKey(subject, chapter, filename string) string {
	return chapterPrefix(subject, chapter) + filename
}

func sidecarKey(subject, chapter, filename string) string {
	return fileKey(subject, chapter, filename) + sidecarSuffix
}

func subjectIndexKey(subject string) string {
	return subjectPrefix(subject) + subjectIndexName
}

// topicSegment turns a free-text topic into a single key segment.
func topicSegment(topic string) string {
	return strings.ReplaceAll(strings.TrimSpace(topic), "/", "_")
}

func topicArtifactKey(subject, chapter, topic, stem, ext string) string {
	return chapterPrefix(subject, chapter) + topicSegment(topic) + "/" + stem + "." + ext
}

func lecturesPrefix(subject, chapter string) string {
	return chapterPrefix(subject, chapter) + lecturesDir + "/"
}

func videoKey(subject, chapter, video string) string {
	return lecturesPrefix(subject, chapter) + video
}

func lectureDir(subject, chapter, video string) string {
	return lecturesPrefix(subject, chapter) + video + "/"
}

func lectureAssetKey(subject, chapter, video, asset, ext string) string {
	return lectureDir(subject, chapter, video) + asset + "." + ext
}

func flashcardKey(subject, chapter, video string, index int) string {
	return fmt.Sprintf("%sflashcard_%d.json", lectureDir(subject, chapter, video), index)
}

// Names that would collide with the index object or the lectures folder.
var reservedNames = []string{subjectIndexName, lecturesDir}

func isReservedName(name string) bool {
	for _, r := range reservedNames {
		if strings.EqualFold(name, r) {
			return true
		}
	}
	return false
}

// validateName checks a subject, chapter or file name used as one key segment.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: name is empty", ErrInvalidInput)
	case isReservedName(name):
		return "", fmt.Errorf("%w: name %q is reserved", ErrInvalidInput, name)
	case strings.Contains(name, "/"):
		return "", fmt.Errorf("%w: name %q must not contain '/'", ErrInvalidInput, name)
	case len(name) > maxNameLength:
		return "", fmt.Errorf("%w: name is longer than %d bytes", ErrInvalidInput, maxNameLength)
	}
	return name, nil
}

func baseName(key string) string {
	return path.Base(strings.TrimSuffix(key, "/"))
}
