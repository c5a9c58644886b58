// Package main is the articlesearch server and indexing CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/articlesearch/internal/version"
)

var (
	// envName selects config/<env>.yaml; empty falls back to $ENV.
	envName string
	// seedPath overrides indexing.seed_path.
	seedPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "articlesearch",
	Short: "Article retrieval service",
	Long: `articlesearch indexes a corpus of articles into a vector-capable document
store and serves semantic, lexical, random and recommendation queries over HTTP.`,
	Version:       version.Version + " (" + version.Commit + ")",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "config environment (local, docker, prod); defaults to $ENV")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "path to the articles JSON file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
}
