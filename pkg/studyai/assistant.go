package studyai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Input limits per operation, in characters.
const (
	summarizeLimit  = 10000
	flashcardsLimit = 5000
	rewriteLimit    = 3000
	keywordsLimit   = 3000
	quizLimit       = 8000
	difficultyLimit = 2000
)

// Rewrite styles.
const (
	StyleParaphrase = "paraphrase"
	StyleSimplify   = "simplify"
	StyleFormal     = "formal"
	StyleCasual     = "casual"
	StyleAcademic   = "academic"
)

var stylePrompts = map[string]string{
	StyleParaphrase: "Rewrite the following text using different words while keeping the same meaning:",
	StyleSimplify:   "Simplify the following text to make it easier to understand:",
	StyleFormal:     "Rewrite the following text in a more formal style:",
	StyleCasual:     "Rewrite the following text in a more casual, conversational style:",
	StyleAcademic:   "Rewrite the following text in an academic style suitable for a study report:",
}

// Styles lists the supported rewrite styles.
func Styles() []string {
	return []string{StyleParaphrase, StyleSimplify, StyleFormal, StyleCasual, StyleAcademic}
}

// Assistant builds prompts, calls the Completer and parses the replies.
// Blank input never reaches the Completer.
type Assistant struct {
	completer Completer
	logger    *slog.Logger
}

// NewAssistant creates an Assistant.
func NewAssistant(c Completer, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assistant{completer: c, logger: logger}
}

func truncate(text string, limit int) string {
	r := []rune(text)
	if len(r) > limit {
		return string(r[:limit])
	}
	return text
}

func (a *Assistant) complete(ctx context.Context, op, prompt string) (string, error) {
	a.logger.Debug("ai request", "op", op, "prompt_chars", len(prompt))
	out, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.logger.Error("ai request failed", "op", op, "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(out), nil
}

// Summarize condenses text into at most maxPoints bullet points and a TL;DR.
func (a *Assistant) Summarize(ctx context.Context, text string, maxPoints int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "No text to summarize.", nil
	}
	if maxPoints <= 0 {
		maxPoints = 6
	}
	prompt := fmt.Sprintf(`Please summarize the following text concisely in %d bullet points or less.
Make it clear and informative. End with a brief TL;DR.

Text to summarize:
%s`, maxPoints, truncate(text, summarizeLimit))
	return a.complete(ctx, "summarize", prompt)
}

// Flashcards generates up to n question and answer cards.
func (a *Assistant) Flashcards(ctx context.Context, text string, n int) ([]Card, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if n <= 0 {
		n = 5
	}
	prompt := fmt.Sprintf(`Generate exactly %d flashcard question-answer pairs from this text.
Format each flashcard as:
Q: [question]
A: [answer]

Make questions clear, specific, and test key concepts. Keep answers concise but complete.

Text:
%s`, n, truncate(text, flashcardsLimit))
	out, err := a.complete(ctx, "flashcards", prompt)
	if err != nil {
		return nil, err
	}
	return ParseFlashcards(out), nil
}

// Quiz generates up to n numbered quiz questions.
func (a *Assistant) Quiz(ctx context.Context, text string, n int) ([]Card, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if n <= 0 {
		n = 5
	}
	prompt := fmt.Sprintf(`Based on the following study notes, generate %d quiz questions that test understanding of the key concepts.

Requirements:
- Test comprehension, not just memorization
- Mix fill-in-the-blank, short answer and conceptual questions
- Provide clear, concise answers

Format your response EXACTLY as follows (one question per block):

Q1: [first question]
A1: [answer to first question]

Q2: [second question]
A2: [answer to second question]

Study Notes:
%s`, n, truncate(text, quizLimit))
	out, err := a.complete(ctx, "quiz", prompt)
	if err != nil {
		return nil, err
	}
	return ParseQuiz(out, n), nil
}

// Rewrite rewrites text in style. Unknown styles fall back to paraphrase.
func (a *Assistant) Rewrite(ctx context.Context, text, style string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	instruction, ok := stylePrompts[strings.ToLower(style)]
	if !ok {
		instruction = stylePrompts[StyleParaphrase]
	}
	prompt := fmt.Sprintf("%s\n\n%s\n\nProvide only the rewritten text without any explanations.",
		instruction, truncate(text, rewriteLimit))
	return a.complete(ctx, "rewrite", prompt)
}

// Keywords extracts up to limit key terms.
func (a *Assistant) Keywords(ctx context.Context, text string, limit int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	prompt := fmt.Sprintf(`Extract the %d most important keywords or key concepts from this text.
Provide only the keywords, separated by commas, without numbering or explanations.

Text:
%s`, limit, truncate(text, keywordsLimit))
	out, err := a.complete(ctx, "keywords", prompt)
	if err != nil {
		return nil, err
	}
	return ParseKeywords(out, limit), nil
}

// Difficulty rates text as Easy, Medium or Hard with a one-line explanation.
func (a *Assistant) Difficulty(ctx context.Context, text string) (Difficulty, error) {
	if strings.TrimSpace(text) == "" {
		return Difficulty{Level: "Unknown", Explanation: "No text provided"}, nil
	}
	prompt := fmt.Sprintf(`Assess the difficulty level of this educational content.
Provide:
1. Difficulty Level: Easy, Medium, or Hard
2. Brief explanation (one sentence)

Format your response as:
Level: [Easy/Medium/Hard]
Explanation: [brief explanation]

Text:
%s`, truncate(text, difficultyLimit))
	out, err := a.complete(ctx, "difficulty", prompt)
	if err != nil {
		return Difficulty{Level: "Unknown", Explanation: err.Error()}, err
	}
	return ParseDifficulty(out), nil
}
