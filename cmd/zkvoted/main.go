// Command zkvoted runs the voting core node and its helper tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const programName = "zkvoted"

var configFile string

func main() {
	// A .env in the working directory feeds the ZKVOTE_* overrides.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "cannot load .env: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Zero knowledge voting core node",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to the YAML config file")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(secretCommand())
	rootCmd.AddCommand(keygenCommand())

	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
