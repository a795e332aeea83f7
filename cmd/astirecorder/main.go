package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "astirecorder",
	Short:        "Record captured images and audio into a container",
	SilenceUsage: true,
}

func main() {
	// Set logger
	log.SetFlags(0)

	// Add commands
	rootCmd.AddCommand(codecsCmd, recordCmd)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
