package studyai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlashcards(t *testing.T) {
	resp := `Here are your cards:
Q: First?
A: One.
A: stray answer
Q: Unanswered?
Q: Second?
A: Two.`
	cards := ParseFlashcards(resp)
	assert.Equal(t, []Card{
		{Question: "First?", Answer: "One."},
		{Question: "Second?", Answer: "Two."},
	}, cards)
}

func TestParseQuiz(t *testing.T) {
	resp := `Q1: What is a goroutine?
A1: A lightweight thread.

Q2: What closes a channel?
A2: close().

Q3: Dangling?

Q4: Last?
A4: Yes.`

	cards := ParseQuiz(resp, 0)
	require.Len(t, cards, 3)
	assert.Equal(t, "What is a goroutine?", cards[0].Question)
	assert.Equal(t, "close().", cards[1].Answer)
	assert.Equal(t, "Last?", cards[2].Question)

	assert.Len(t, ParseQuiz(resp, 2), 2)
	assert.Empty(t, ParseQuiz("no structure here", 5))
}

func TestParseDifficulty(t *testing.T) {
	assert.Equal(t, Difficulty{Level: "Easy", Explanation: "Short."},
		ParseDifficulty("Level: Easy\nExplanation: Short."))
	assert.Equal(t, "Medium", ParseDifficulty("I am not sure").Level)
}

func TestDeckRoundTrip(t *testing.T) {
	deck := Deck{Title: "Go", Source: 4, Cards: []Card{{Question: "Q", Answer: "A"}}}
	data, err := MarshalDeck(deck)
	require.NoError(t, err)
	assert.Contains(t, string(data), "source_note: 4")

	back, err := UnmarshalDeck(data)
	require.NoError(t, err)
	assert.Equal(t, deck, back)
}
