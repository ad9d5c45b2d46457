// Package cmd implements the kgraph command-line interface: building a
// knowledge graph from a source tree and running the query engine over it.
// Flag wiring follows the pack's cobra+viper convention (see DESIGN.md).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "kgraph",
	Short: "Knowledge graph builder and query tool for systems-language source trees",
	Long: "Parse a source tree into a knowledge graph and run queries over it. " +
		"File discovery respects .gitignore and .ignore with parent traversal; " +
		"use --no-ignore to bypass ignore rules.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvPrefix("KGRAPH")
		viper.AutomaticEnv()
		return nil
	},
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(queryCmd)
}
