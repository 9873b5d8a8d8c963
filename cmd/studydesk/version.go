package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/studydesk"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of studydesk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("studydesk version %s\n", studydesk.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
