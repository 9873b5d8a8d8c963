package studyai

import (
	"strings"
)

// Card is a question and answer pair, used for flashcards and quizzes.
type Card struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Difficulty is a content difficulty rating.
type Difficulty struct {
	Level       string `json:"level"`
	Explanation string `json:"explanation"`
}

// ParseFlashcards reads "Q:" / "A:" line pairs. An answer without a pending
// question is ignored and a question without an answer is dropped.
func ParseFlashcards(response string) []Card {
	var cards []Card
	var question string
	pending := false

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Q:"):
			question = strings.TrimSpace(line[2:])
			pending = question != ""
		case strings.HasPrefix(line, "A:") && pending:
			cards = append(cards, Card{Question: question, Answer: strings.TrimSpace(line[2:])})
			pending = false
		}
	}
	return cards
}

// ParseQuiz reads numbered "Qn:" / "An:" blocks and returns at most n cards
// (n <= 0 means no limit). A question whose answer never arrives is dropped;
// fewer blocks than requested are returned as-is.
func ParseQuiz(response string, n int) []Card {
	var cards []Card
	var question, answer string

	flush := func() {
		if question != "" && answer != "" {
			cards = append(cards, Card{Question: question, Answer: answer})
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		_, rest, hasColon := strings.Cut(line, ":")
		switch {
		case strings.HasPrefix(line, "Q") && hasColon:
			flush()
			question = strings.TrimSpace(rest)
			answer = ""
		case strings.HasPrefix(line, "A") && hasColon:
			answer = strings.TrimSpace(rest)
		}
	}
	flush()

	if n > 0 && len(cards) > n {
		cards = cards[:n]
	}
	return cards
}

// ParseDifficulty reads "Level:" and "Explanation:" lines. The level
// defaults to Medium when the reply omits it.
func ParseDifficulty(response string) Difficulty {
	d := Difficulty{Level: "Medium"}
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		if v, ok := strings.CutPrefix(line, "Level:"); ok {
			d.Level = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(line, "Explanation:"); ok {
			d.Explanation = strings.TrimSpace(v)
		}
	}
	return d
}

// ParseKeywords splits a comma separated reply, keeping at most limit entries.
func ParseKeywords(response string, limit int) []string {
	var out []string
	for _, k := range strings.Split(strings.TrimSpace(response), ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
