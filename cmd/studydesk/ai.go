package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studydesk"
	"github.com/aretw0/studydesk/pkg/studyai"
)

var (
	aiCount int
	aiStyle string
	aiDeck  string
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "AI study aids over a note (id) or stdin (-)",
	Long: `AI study aids. Each command takes a note id, or - to read text from stdin.
Requires ANTHROPIC_API_KEY or ai.api_key in studydesk.yaml.`,
}

type source struct {
	title string
	id    int64
	text  string
}

func loadSource(ctx context.Context, app *studydesk.App, ref string) source {
	if ref == "-" {
		return source{title: "stdin", text: readText([]string{"-"})}
	}
	id := parseID(ref)
	n, ok, err := app.Store().Get(ctx, id)
	if err != nil {
		fatal("Failed to read note", err)
	}
	if !ok {
		fmt.Printf("Note %d not found\n", id)
		os.Exit(1)
	}
	return source{title: n.Title, id: n.ID, text: n.Text}
}

// runAI loads the source, runs fn in the background and waits for it or Ctrl-C.
func runAI[T any](ref string, fn func(context.Context, *studyai.Assistant, source) (T, error)) (T, source) {
	ctx, stop := signalContext()
	defer stop()

	app := openApp()
	assistant, err := app.Assistant()
	if err != nil {
		fatal("AI is not available", err)
	}
	src := loadSource(ctx, app, ref)

	fmt.Fprintln(os.Stderr, "thinking...")
	var res studyai.Result[T]
	select {
	case res = <-studyai.Async(ctx, func(ctx context.Context) (T, error) { return fn(ctx, assistant, src) }):
	case <-ctx.Done():
		fatal("Interrupted", ctx.Err())
	}
	if res.Err != nil {
		fatal("AI request failed", res.Err)
	}
	return res.Value, src
}

func printCards(cards []studyai.Card) {
	if len(cards) == 0 {
		fmt.Println("No cards could be generated")
		return
	}
	for i, c := range cards {
		fmt.Printf("%d. Q: %s\n   A: %s\n\n", i+1, c.Question, c.Answer)
	}
}

var aiSummarizeCmd = &cobra.Command{
	Use:   "summarize [id|-]",
	Short: "Summarize into bullet points with a TL;DR",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := runAI(args[0], func(ctx context.Context, a *studyai.Assistant, s source) (string, error) {
			return a.Summarize(ctx, s.text, aiCount)
		})
		fmt.Println(out)
	},
}

var aiFlashcardsCmd = &cobra.Command{
	Use:   "flashcards [id|-]",
	Short: "Generate question and answer flashcards",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cards, src := runAI(args[0], func(ctx context.Context, a *studyai.Assistant, s source) ([]studyai.Card, error) {
			return a.Flashcards(ctx, s.text, aiCount)
		})
		printCards(cards)
		if aiDeck == "" || len(cards) == 0 {
			return
		}
		data, err := studyai.MarshalDeck(studyai.Deck{Title: src.title, Source: src.id, Cards: cards})
		if err != nil {
			fatal("Failed to encode deck", err)
		}
		if err := os.WriteFile(aiDeck, data, 0644); err != nil {
			fatal("Failed to write deck", err)
		}
		fmt.Printf("Deck written to %s\n", aiDeck)
	},
}

var aiQuizCmd = &cobra.Command{
	Use:   "quiz [id|-]",
	Short: "Generate quiz questions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cards, _ := runAI(args[0], func(ctx context.Context, a *studyai.Assistant, s source) ([]studyai.Card, error) {
			return a.Quiz(ctx, s.text, aiCount)
		})
		printCards(cards)
	},
}

var aiRewriteCmd = &cobra.Command{
	Use:   "rewrite [id|-]",
	Short: "Rewrite in another style (" + strings.Join(studyai.Styles(), ", ") + ")",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := runAI(args[0], func(ctx context.Context, a *studyai.Assistant, s source) (string, error) {
			return a.Rewrite(ctx, s.text, aiStyle)
		})
		fmt.Println(out)
	},
}

var aiKeywordsCmd = &cobra.Command{
	Use:   "keywords [id|-]",
	Short: "Extract key terms",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kw, _ := runAI(args[0], func(ctx context.Context, a *studyai.Assistant, s source) ([]string, error) {
			return a.Keywords(ctx, s.text, aiCount)
		})
		fmt.Println(strings.Join(kw, ", "))
	},
}

var aiDifficultyCmd = &cobra.Command{
	Use:   "difficulty [id|-]",
	Short: "Rate how hard the material is",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d, _ := runAI(args[0], func(ctx context.Context, a *studyai.Assistant, s source) (studyai.Difficulty, error) {
			return a.Difficulty(ctx, s.text)
		})
		fmt.Printf("%s: %s\n", d.Level, d.Explanation)
	},
}

func init() {
	rootCmd.AddCommand(aiCmd)
	aiCmd.AddCommand(aiSummarizeCmd, aiFlashcardsCmd, aiQuizCmd, aiRewriteCmd, aiKeywordsCmd, aiDifficultyCmd)
	aiCmd.PersistentFlags().IntVarP(&aiCount, "count", "n", 0, "Number of bullets, cards, questions or keywords")
	aiRewriteCmd.Flags().StringVar(&aiStyle, "style", studyai.StyleParaphrase, "Rewrite style")
	aiFlashcardsCmd.Flags().StringVar(&aiDeck, "deck", "", "Also save the cards as a YAML deck")
}
