package app

import (
	"fmt"
	"strings"
)

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ParseFlashcards scans "Front:" and "Back:" lines. A Front line opens a new
// card, a Back line completes the open one, and a trailing incomplete card is
// kept. Other lines are ignored.
func ParseFlashcards(text string) []Flashcard {
	cards := []Flashcard{}
	var current *Flashcard
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Front:"):
			if current != nil {
				cards = append(cards, *current)
			}
			current = &Flashcard{Front: strings.TrimSpace(strings.TrimPrefix(line, "Front:"))}
		case strings.HasPrefix(line, "Back:"):
			if current == nil {
				current = &Flashcard{}
			}
			current.Back = strings.TrimSpace(strings.TrimPrefix(line, "Back:"))
		}
	}
	if current != nil {
		cards = append(cards, *current)
	}
	return cards
}

// FlashcardsText renders cards as the plain-text export.
func FlashcardsText(cards []Flashcard) string {
	parts := make([]string, 0, len(cards))
	for i, c := range cards {
		parts = append(parts, fmt.Sprintf("Flashcard %d\nFront: %s\nBack: %s", i+1, c.Front, c.Back))
	}
	return strings.Join(parts, "\n\n")
}
