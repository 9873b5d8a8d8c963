package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/studydesk"
	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/notify"
)

var (
	remindRepeat string
	remindNote   string
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Schedule reminders (they live while the command runs)",
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// flush waits for notification helpers still running, so their output is
// not cut off when the process exits.
func flush(app *studydesk.App) {
	if d, ok := app.Dispatcher().(*notify.Dispatcher); ok {
		d.Wait()
	}
}

var remindAddCmd = &cobra.Command{
	Use:   "add [when] [message...]",
	Short: "Schedule one reminder and wait for it",
	Long: `Schedule one reminder and stay in the foreground until it fires.

WHEN accepts "+30m", "2h", "17:45", "2026-05-01 09:00" or "tomorrow at 9am".`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fireAt, err := studydesk.ParseFireTime(args[0], time.Now())
		if err != nil {
			return fmt.Errorf("invalid reminder time: %w", err)
		}
		var noteID int64
		if remindNote != "" {
			var ok bool
			if noteID, ok = core.ParseNoteID(remindNote); !ok {
				return fmt.Errorf("invalid note id: %q", remindNote)
			}
		}

		ctx, stop := signalContext()
		defer stop()

		app := openApp()
		if err := app.Start(ctx); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		defer func() {
			if err := app.Stop(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
			flush(app)
		}()

		var id string
		if noteID != 0 {
			var found bool
			id, found, err = app.RemindNote(ctx, noteID, fireAt)
			if err == nil && !found {
				err = fmt.Errorf("note %d not found", noteID)
			}
		} else {
			id, err = app.ScheduleReminder(fireAt, strings.Join(args[1:], " "), remindRepeat)
		}
		if err != nil {
			return fmt.Errorf("failed to schedule reminder: %w", err)
		}
		fmt.Printf("Reminder %s set for %s (Ctrl-C to cancel)\n", id, fireAt.Format("Mon 2006-01-02 15:04"))

		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nReminder cancelled")
				return nil
			case <-ticker.C:
				if len(app.Scheduler().List()) == 0 {
					fmt.Println("Reminder delivered")
					return nil
				}
			}
		}
	},
}

var remindRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Interactive reminder shell",
	Long: `Reads commands from stdin until EOF or "quit":

  add <when> | <message> [| <repeat>]
  note <id> <when>
  list
  cancel <id>`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		app := openApp()
		if err := app.Start(ctx); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		defer func() {
			if err := app.Stop(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
			flush(app)
		}()

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
		}()

		fmt.Print("> ")
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok || strings.TrimSpace(line) == "quit" {
					return nil
				}
				runReminderCommand(ctx, app, line)
				fmt.Print("> ")
			}
		}
	},
}

func runReminderCommand(ctx context.Context, app *studydesk.App, line string) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "":
	case "list":
		jobs := app.Scheduler().List()
		if len(jobs) == 0 {
			fmt.Println("no pending reminders")
		}
		for _, j := range jobs {
			fmt.Printf("%s  %s  %s\n", j.ID, j.FireAt.Format("2006-01-02 15:04:05"), j.Message)
		}
	case "cancel":
		if app.Scheduler().Cancel(rest) {
			fmt.Println("cancelled", rest)
		} else {
			fmt.Println("no such reminder", rest)
		}
	case "add":
		parts := strings.Split(rest, "|")
		fireAt, err := studydesk.ParseFireTime(parts[0], time.Now())
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		var msg, repeat string
		if len(parts) > 1 {
			msg = parts[1]
		}
		if len(parts) > 2 {
			repeat = parts[2]
		}
		id, err := app.ScheduleReminder(fireAt, msg, repeat)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("scheduled %s at %s\n", id, fireAt.Format("15:04:05"))
	case "note":
		ref, when, _ := strings.Cut(rest, " ")
		fireAt, err := studydesk.ParseFireTime(when, time.Now())
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		noteID, ok := core.ParseNoteID(ref)
		if !ok {
			fmt.Println("error: not a note id:", ref)
			return
		}
		id, found, err := app.RemindNote(ctx, noteID, fireAt)
		switch {
		case err != nil:
			fmt.Println("error:", err)
		case !found:
			fmt.Println("no such note", ref)
		default:
			fmt.Printf("scheduled %s at %s\n", id, fireAt.Format("15:04:05"))
		}
	default:
		fmt.Println("unknown command:", verb)
	}
}

func init() {
	rootCmd.AddCommand(remindCmd)
	remindCmd.AddCommand(remindAddCmd, remindRunCmd)
	remindAddCmd.Flags().StringVar(&remindRepeat, "repeat", "", "Repeat label shown with the message (cosmetic)")
	remindAddCmd.Flags().StringVar(&remindNote, "note", "", "Quote this note in the reminder")
}
