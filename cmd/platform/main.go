package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "platform",
	Short: "Healthcare analytics event platform",
	Long: `platform runs the healthcare event services.

The serve command runs the ingestion API: it validates events, redacts
PHI, and publishes to the event stream. The consume command runs the
shard consumer that drains the stream into the analytics store.`,
	Version: "0.1.0",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consumeCmd)
}
