package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studydesk"
	"github.com/aretw0/studydesk/pkg/core"
)

var (
	verbose    bool
	dataDir    string
	noSandbox  bool
	versioning bool
	readOnly   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studydesk",
	Short: "A personal study assistant: notes, reminders, XP and AI study aids",
	Long: `studydesk keeps your study notes in a plain CSV table, rewards you with
XP and badges, reminds you when it is time to review and helps you turn
notes into summaries, flashcards and quizzes.`,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: discovered root or ~/.studydesk)")
	rootCmd.PersistentFlags().BoolVar(&noSandbox, "no-sandbox", false, "Use the real data directory even under go run")
	rootCmd.PersistentFlags().BoolVar(&versioning, "git", false, "Commit every change to git in the data directory")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the data directory without writing to it")
}

// openApp opens the data directory selected by the global flags.
func openApp(opts ...studydesk.Option) *studydesk.App {
	base := []studydesk.Option{
		studydesk.WithLogger(slog.Default()),
		studydesk.WithDevSafety(!noSandbox),
		studydesk.WithErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}),
	}
	if readOnly {
		base = append(base, studydesk.WithReadOnly(true))
	}
	if versioning {
		base = append(base, studydesk.WithVersioning(true))
	}
	app, err := studydesk.New(studydesk.ResolveDataDir(dataDir), append(base, opts...)...)
	if err != nil {
		fatal("Failed to open study desk", err)
	}
	return app
}

func parseID(ref string) int64 {
	id, ok := core.ParseNoteID(ref)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %q is not a note id\n", ref)
		os.Exit(1)
	}
	return id
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
