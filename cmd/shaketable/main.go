package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/shaketable/logging"
)

type rootOptions struct {
	configPath string
	outputDir  string
	logLevel   string
}

func main() {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "shaketable",
		Short:         "AC156 shake-table seismic qualification",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.logLevel)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "run configuration file (yaml, json or toml)")
	root.PersistentFlags().StringVarP(&opts.outputDir, "output", "o", "", "output directory, overrides output_dir in the config")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	_ = root.MarkPersistentFlagRequired("config")

	root.AddCommand(newSeismicCommand(opts), newResonanceCommand(opts))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	logger := logging.NewZerologLogger(zl)
	logger.SetLevel(logging.ParseLevel(level))
	logging.SetGlobalLogger(logger)
}

// outputDir picks the flag over the configured directory, then the working
// directory, and makes sure it exists.
func outputDir(flag, configured string) (string, error) {
	dir := flag
	if dir == "" {
		dir = configured
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return dir, nil
}
