package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/studydesk/pkg/studytimer"
)

var timerMessage string

var timerCmd = &cobra.Command{
	Use:   "timer [duration]",
	Short: "Run a study countdown (default 25m) and notify when it ends",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := 25 * time.Minute
		if len(args) == 1 {
			var err error
			if d, err = time.ParseDuration(args[0]); err != nil {
				fatal("Invalid duration", err)
			}
		}

		ctx, stop := signalContext()
		defer stop()

		app := openApp()
		tm := studytimer.New(studytimer.Config{
			Duration: d,
			OnTick: func(remaining time.Duration) {
				fmt.Printf("\r%s ", studytimer.Format(remaining))
			},
			OnDone: func() {
				fmt.Println()
				app.Dispatcher().Notify(context.Background(), timerMessage)
			},
		})
		fmt.Printf("%s ", studytimer.Format(d))
		if err := tm.Start(ctx); err != nil {
			fatal("Failed to start timer", err)
		}

		select {
		case <-tm.Done():
		case <-ctx.Done():
			tm.Stop(context.Background())
			fmt.Printf("\nTimer stopped with %s left\n", studytimer.Format(tm.Remaining()))
			return
		}
		flush(app)
		fmt.Println("Time is up!")
	},
}

func init() {
	rootCmd.AddCommand(timerCmd)
	timerCmd.Flags().StringVarP(&timerMessage, "message", "m", "Study session complete! Time for a break.", "Notification text")
}
