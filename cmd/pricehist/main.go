// Command pricehist is the crawl/history CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kosarica/pricehist/config"
	"github.com/kosarica/pricehist/internal/telemetry"
)

var (
	cfgFile string
	cfg     config.Config
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pricehist",
	Short: "Croatian retail price-list crawl and reconciliation tool",
	Long: `pricehist crawls Croatian retail chains' published daily price
lists, writes them to canonical CSVs under an output root, bundles
each day into a ZIP archive, and optionally reconciles the results
into Postgres for historical querying.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; environment variables are read regardless)")
	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newHistoryCmd())
}

func newLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout}
	return zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func main() {
	shutdown := telemetry.MustInit(context.Background(), telemetry.GetConfigFromEnv())
	defer func() { _ = shutdown(context.Background()) }()

	if err := rootCmd.Execute(); err != nil {
		// rootCmd already printed the error.
		os.Exit(1)
	}
}
