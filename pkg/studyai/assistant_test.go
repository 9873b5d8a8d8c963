package studyai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/studydesk/pkg/studyai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	prompts []string
	reply   string
	err     error
}

func (r *recorder) Complete(_ context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.reply, r.err
}

func TestAssistant_EmptyInputSkipsCompleter(t *testing.T) {
	rec := &recorder{}
	a := studyai.NewAssistant(rec, nil)
	ctx := context.Background()

	summary, err := a.Summarize(ctx, "  ", 0)
	require.NoError(t, err)
	assert.Equal(t, "No text to summarize.", summary)

	cards, err := a.Flashcards(ctx, "", 3)
	require.NoError(t, err)
	assert.Empty(t, cards)

	quiz, err := a.Quiz(ctx, "", 3)
	require.NoError(t, err)
	assert.Empty(t, quiz)

	kw, err := a.Keywords(ctx, "", 3)
	require.NoError(t, err)
	assert.Empty(t, kw)

	rewritten, err := a.Rewrite(ctx, "", "formal")
	require.NoError(t, err)
	assert.Equal(t, "", rewritten)

	d, err := a.Difficulty(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", d.Level)

	assert.Empty(t, rec.prompts)
}

func TestAssistant_Flashcards(t *testing.T) {
	rec := &recorder{reply: "Q: What is Go?\nA: A language.\nQ: Who made it?\nA: Google."}
	a := studyai.NewAssistant(rec, nil)

	cards, err := a.Flashcards(context.Background(), "Go is a language made at Google.", 2)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "What is Go?", cards[0].Question)
	assert.Equal(t, "Google.", cards[1].Answer)
	assert.Contains(t, rec.prompts[0], "Generate exactly 2 flashcard")
}

func TestAssistant_TruncatesInput(t *testing.T) {
	rec := &recorder{reply: "ok"}
	a := studyai.NewAssistant(rec, nil)

	long := strings.Repeat("x", 20000)
	_, err := a.Summarize(context.Background(), long, 3)
	require.NoError(t, err)
	assert.NotContains(t, rec.prompts[0], strings.Repeat("x", 10001))
	assert.Contains(t, rec.prompts[0], strings.Repeat("x", 10000))
}

func TestAssistant_RewriteStyles(t *testing.T) {
	rec := &recorder{reply: "  rewritten \n"}
	a := studyai.NewAssistant(rec, nil)

	out, err := a.Rewrite(context.Background(), "hello", "simplify")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", out)
	assert.Contains(t, rec.prompts[0], "Simplify the following text")

	_, err = a.Rewrite(context.Background(), "hello", "pirate")
	require.NoError(t, err)
	assert.Contains(t, rec.prompts[1], "using different words")
	assert.True(t, strings.HasSuffix(rec.prompts[1], "Provide only the rewritten text without any explanations."))
}

func TestAssistant_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	a := studyai.NewAssistant(&recorder{err: boom}, nil)

	_, err := a.Quiz(context.Background(), "notes", 2)
	assert.ErrorIs(t, err, boom)

	d, err := a.Difficulty(context.Background(), "notes")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Unknown", d.Level)
}

func TestAssistant_KeywordsAndDifficulty(t *testing.T) {
	rec := &recorder{reply: "goroutines, channels, , select, context"}
	a := studyai.NewAssistant(rec, nil)

	kw, err := a.Keywords(context.Background(), "concurrency notes", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"goroutines", "channels", "select"}, kw)

	rec.reply = "Level: Hard\nExplanation: Dense material."
	d, err := a.Difficulty(context.Background(), "concurrency notes")
	require.NoError(t, err)
	assert.Equal(t, studyai.Difficulty{Level: "Hard", Explanation: "Dense material."}, d)
}

func TestAsync(t *testing.T) {
	ch := studyai.Async(context.Background(), func(ctx context.Context) (string, error) {
		return "done", nil
	})
	res := <-ch
	require.NoError(t, res.Err)
	assert.Equal(t, "done", res.Value)

	_, open := <-ch
	assert.False(t, open)

	panicky := studyai.Async(context.Background(), func(ctx context.Context) (int, error) {
		panic("bad reply")
	})
	res2 := <-panicky
	assert.ErrorContains(t, res2.Err, "bad reply")
}
