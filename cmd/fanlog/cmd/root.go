package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/config"
)

var (
	cfgFile     string
	verbose     bool
	withMetrics bool
)

var rootCmd = &cobra.Command{
	Use:   "fanlog",
	Short: "Fan log lines out to files, HTTP, syslog and Beats",
	Long: `fanlog forwards log lines to the destinations named in a TOML or
YAML configuration file: a rotating local file, an HTTP endpoint, a UDP
syslog server, a Logstash Beats input and the console.

Commands:
  pipe     - read lines from stdin and dispatch them
  history  - print the tail of the configured log file
  files    - list the configured log file and its backups`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "fanlog.toml", "config file (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics on stderr")
	rootCmd.PersistentFlags().BoolVar(&withMetrics, "metrics", false, "print destination counters to stderr on exit")
}

// newDiagnostics builds the zap logger used for fanlog's own diagnostics
func newDiagnostics() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newMeterProvider returns a stdout exporting provider when --metrics is
// set, and a no-op provider otherwise. shutdown flushes the exporter.
func newMeterProvider() (mp metric.MeterProvider, shutdown func(context.Context) error, err error) {
	if !withMetrics {
		return noop.NewMeterProvider(), func(context.Context) error { return nil }, nil
	}
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("create metric exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(time.Minute))),
	)
	return provider, provider.Shutdown, nil
}

// loadConfig reads --config
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
