package studyai

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Deck is a titled set of cards, saved as YAML.
type Deck struct {
	Title  string `yaml:"title"`
	Source int64  `yaml:"source_note,omitempty"`
	Cards  []Card `yaml:"cards"`
}

// MarshalDeck renders a deck as YAML.
func MarshalDeck(d Deck) ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deck: %w", err)
	}
	return out, nil
}

// UnmarshalDeck parses a YAML deck.
func UnmarshalDeck(data []byte) (Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Deck{}, fmt.Errorf("failed to parse deck: %w", err)
	}
	return d, nil
}
