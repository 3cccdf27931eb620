// Command caskctl seeds the warehouse dataset and runs the oracle workflows.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/pkg/logger"
)

var (
	logLevel string
	log      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "caskctl",
	Short:         "Operate the cask warehouse and its reserve oracle",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(logLevel)
		if err != nil {
			return err
		}
		log = l
		zap.ReplaceGlobals(l)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(workflowsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
