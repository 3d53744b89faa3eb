package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/burugo/henry/internal/config"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "henry",
	Short: "henry extracts relational schemas for DTO generation",
	Long: `henry connects to a MySQL, PostgreSQL or SQLite database, reads its
tables, views, indexes and foreign keys, and translates native column
types into a standard vocabulary through configurable type maps.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}
