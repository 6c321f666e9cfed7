// Package main is the entry point for the hall runner server and tools
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/hall-runner/cmd/server/client"
)

var rootCmd = &cobra.Command{
	Use:   "hall-runner",
	Short: "Hall challenge runner",
	Long:  `Hall runner drives batches of game accounts through the challenge halls and streams their progress.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(client.ClientCmd)
}
