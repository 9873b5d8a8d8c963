package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studydesk/pkg/core"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show XP, level, badges and recent notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		d, err := app.Dashboard(context.Background())
		if err != nil {
			fatal("Failed to build dashboard", err)
		}

		fmt.Printf("Level %d  |  %d XP", d.Level, d.Stats.TotalXP)
		if d.NextLevelAt > 0 {
			fmt.Printf(" (%d to next level)", d.NextLevelAt-d.Stats.TotalXP)
		}
		fmt.Printf("  |  %d notes\n", d.Stats.NotesCreated)

		var earned []string
		for _, b := range d.Badges {
			if b.Earned {
				earned = append(earned, b.Name)
			}
		}
		if len(earned) > 0 {
			fmt.Printf("Badges: %s\n", strings.Join(earned, ", "))
		}
		for _, id := range d.NewBadges {
			fmt.Printf("New badge unlocked: %s\n", id)
		}

		if len(d.Recent) > 0 {
			fmt.Println("\nRecent notes:")
			for _, n := range d.Recent {
				fmt.Printf("  %4d  %s\n", n.ID, core.Snippet(n.Title, 60))
			}
		}
	},
}

var statsResyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Recompute total XP and note count from the notes table",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		before, after, err := app.Service().ResyncStats(context.Background())
		if err != nil {
			fatal("Failed to resync stats", err)
		}
		if before.InSync(after) {
			fmt.Printf("Stats already in sync: %d XP, %d notes\n", after.TotalXP, after.NotesCreated)
			return
		}
		fmt.Printf("total_xp: %d -> %d\nnotes_created: %d -> %d\n",
			before.TotalXP, after.TotalXP, before.NotesCreated, after.NotesCreated)
	},
}

var statsBadgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List every badge and whether it is earned",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		stats, err := app.Service().Stats(context.Background())
		if err != nil {
			fatal("Failed to read stats", err)
		}
		for _, b := range core.NewBadgeChecker(stats, app.Service().Levels()).Badges() {
			mark := " "
			if b.Earned {
				mark = "x"
			}
			fmt.Printf("[%s] %-12s %s\n", mark, b.Name, b.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsResyncCmd, statsBadgesCmd)
}
