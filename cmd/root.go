package cmd

import (
	"fmt"
	"log"
	"os"

	"ThqRel/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "thqrel_server",
	Short: "ThqRel is a music release distribution and moderation service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting ThqRel server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
