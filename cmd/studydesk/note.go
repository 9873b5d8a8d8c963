package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studydesk/pkg/core"
)

var (
	noteTitle string
	noteTags  string
	noteText  string
	noteLimit int
	noteJSON  bool
	noteYes   bool
	noteMatch string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Create, edit, list and maintain notes",
}

// readText joins args, or reads stdin when the only argument is "-".
func readText(args []string) string {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal("Failed to read stdin", err)
		}
		return string(data)
	}
	return strings.Join(args, " ")
}

var noteAddCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Save a new note (use - to read the text from stdin)",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		ctx := context.Background()

		s := app.Session()
		s.Edit(noteTitle, readText(args), noteTags)
		_, id, err := s.Save(ctx)
		if errors.Is(err, core.ErrEmptyText) {
			fmt.Println("Error: note text is empty")
			os.Exit(1)
		}
		if err != nil && id == 0 {
			fatal("Failed to save note", err)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: note %d saved but stats were not updated: %v\n", id, err)
		}
		fmt.Printf("Note saved: %d\n", id)
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the title, text or tags of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()
		ctx := context.Background()

		n, ok, err := app.Store().Get(ctx, id)
		if err != nil {
			fatal("Failed to read note", err)
		}
		if !ok {
			fmt.Printf("Note %d not found\n", id)
			os.Exit(1)
		}

		s := app.Session()
		s.Load(n)
		title, text, tags := n.Title, n.Text, n.Tags
		if cmd.Flags().Changed("title") {
			title = noteTitle
		}
		if cmd.Flags().Changed("text") {
			text = noteText
		}
		if cmd.Flags().Changed("tags") {
			tags = noteTags
		}
		s.Edit(title, text, tags)

		outcome, newID, err := s.Save(ctx)
		if err != nil {
			fatal("Failed to save note", err)
		}
		fmt.Printf("Note %s: %d\n", outcome, newID)
	},
}

func printNotes(notes []core.Note) {
	if noteJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(notes); err != nil {
			fatal("Failed to encode JSON", err)
		}
		return
	}
	for _, n := range notes {
		fmt.Printf("%4d  %s  %-30s  %3d XP  %s\n",
			n.ID, n.DateTime.Format("2006-01-02 15:04"), core.Snippet(n.Title, 30), n.XP, n.Tags)
	}
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		limit := noteLimit
		if limit == 0 {
			limit = app.Config().ListLimit
		}
		notes, err := app.Store().List(context.Background(), limit)
		if err != nil {
			fatal("Failed to list notes", err)
		}
		printNotes(notes)
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()
		n, ok, err := app.Store().Get(context.Background(), id)
		if err != nil {
			fatal("Failed to read note", err)
		}
		if !ok {
			fmt.Printf("Note %d not found\n", id)
			os.Exit(1)
		}
		fmt.Printf("# %s\n%s | %d XP | %s\n\n%s\n", n.Title, n.DateTime.Format("2006-01-02 15:04"), n.XP, n.Tags, n.Text)
	},
}

var noteSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search titles and text, optionally within a tag",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		app := openApp()
		notes, err := app.Service().Search(context.Background(), query, noteTags, noteLimit)
		if err != nil {
			fatal("Failed to search notes", err)
		}
		printNotes(notes)
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note after confirmation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()

		deleted, err := app.Session().DeleteWithConfirmation(context.Background(), id, func(context.Context) bool {
			return noteYes || confirm(fmt.Sprintf("Delete note %d?", id))
		})
		if err != nil {
			fatal("Failed to delete note", err)
		}
		if !deleted {
			fmt.Printf("Note %d not deleted\n", id)
			return
		}
		fmt.Printf("Note deleted: %d\n", id)
	},
}

var noteExportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Export notes as Markdown files with YAML frontmatter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		paths, err := app.Store().ExportMarkdown(context.Background(), args[0], noteMatch)
		if err != nil {
			fatal("Failed to export notes", err)
		}
		fmt.Printf("Exported %d note(s) to %s\n", len(paths), args[0])
	},
}

var noteImportCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import Markdown files as new notes",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		ids, err := app.Store().ImportMarkdown(context.Background(), args...)
		if err != nil {
			fatal("Failed to import notes", err)
		}
		fmt.Printf("Imported %d note(s): %v\n", len(ids), ids)
	},
}

var noteDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove notes that repeat the title and text of an older note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		removed, backup, err := app.Service().Dedupe(context.Background())
		if err != nil {
			fatal("Failed to remove duplicates", err)
		}
		if len(removed) == 0 {
			fmt.Println("No duplicates found")
			return
		}
		for _, n := range removed {
			fmt.Printf("removed %d %q\n", n.ID, n.Title)
		}
		fmt.Printf("Removed %d duplicate(s); backup at %s\n", len(removed), backup)
	},
}

var noteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every note (a backup is kept)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !noteYes && !confirm("Delete ALL notes?") {
			fmt.Println("Aborted")
			return
		}
		app := openApp()
		backup, err := app.Service().Clear(context.Background())
		if err != nil {
			fatal("Failed to clear notes", err)
		}
		fmt.Printf("All notes removed; backup at %s\n", backup)
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteEditCmd, noteListCmd, noteShowCmd, noteSearchCmd,
		noteDeleteCmd, noteExportCmd, noteImportCmd, noteDedupeCmd, noteClearCmd)

	noteAddCmd.Flags().StringVarP(&noteTitle, "title", "t", "", "Note title (default: Untitled note #N)")
	noteAddCmd.Flags().StringVar(&noteTags, "tags", "", "Comma-separated tags")

	noteEditCmd.Flags().StringVarP(&noteTitle, "title", "t", "", "New title")
	noteEditCmd.Flags().StringVar(&noteText, "text", "", "New text")
	noteEditCmd.Flags().StringVar(&noteTags, "tags", "", "New comma-separated tags")

	noteListCmd.Flags().IntVarP(&noteLimit, "limit", "n", 0, "Maximum notes to show (default: notes.list_limit)")
	noteListCmd.Flags().BoolVar(&noteJSON, "json", false, "Output in JSON format")

	noteSearchCmd.Flags().StringVar(&noteTags, "tag", "", "Only notes with this tag")
	noteSearchCmd.Flags().IntVarP(&noteLimit, "limit", "n", 0, "Maximum results")
	noteSearchCmd.Flags().BoolVar(&noteJSON, "json", false, "Output in JSON format")

	noteDeleteCmd.Flags().BoolVarP(&noteYes, "yes", "y", false, "Do not ask for confirmation")
	noteClearCmd.Flags().BoolVarP(&noteYes, "yes", "y", false, "Do not ask for confirmation")

	noteExportCmd.Flags().StringVar(&noteMatch, "match", "", "Only titles matching this glob")
}
