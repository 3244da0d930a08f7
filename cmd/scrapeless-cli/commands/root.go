package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"scrapeless-go/lib/configutil"
	"scrapeless-go/lib/env"
	"scrapeless-go/lib/restyutil"
	"scrapeless-go/lib/scrapeless"
	"scrapeless-go/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	apiKey     *string
	verbose    *bool
	dumpHttp   *string
	retries    *int
)

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", "scrapeless.json5", "The json5 config file to read, a .local.json5 file next to it overrides it.")
	apiKey = flags.String("api-key", "", "The api key to use, overrides the config file and SCRAPELESS_API_KEY.")
	verbose = flags.BoolP("verbose", "v", false, "Enables debug logging.")
	dumpHttp = flags.String("dump-http", "", "A directory to write full http request and response dumps to (requires --verbose).")
	retries = flags.Int("retries", -1, "How many times failed requests are retried, overrides the config file.")
}

var rootCmd = &cobra.Command{
	Use:   "scrapeless-cli",
	Short: "scrapeless-cli is a CLI for the Scrapeless scraping, crawling and browser APIs.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		if *verbose {
			env.Log()
		}
	},
	SilenceUsage: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when there is one and applies the flags
// on top of it.
func loadConfig() (scrapeless.Config, error) {
	cfg, err := configutil.ReadConfig[scrapeless.Config](*configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read config %s: %w", *configPath, err)
	}
	if err == nil {
		slog.Debug("read config", "path", *configPath)
	}

	if *apiKey != "" {
		cfg.ApiKey = *apiKey
	}
	if *retries >= 0 {
		cfg.MaxRetries = *retries
	}
	if *dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(*dumpHttp)
		if err != nil {
			return cfg, err
		}
		cfg.Output = output
	}
	return cfg, nil
}

func newClient() (*scrapeless.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return scrapeless.New(cfg)
}
