package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"ratesetter-client/internal/components/chrono"
	"ratesetter-client/internal/components/telemetry"
	"ratesetter-client/internal/scrapers/ratesetter"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const report_cli_disconnect = "cli.disconnect"

var (
	configPath string
	debug      bool
	dumpHttp   string

	config        Config
	tel           telemetry.API
	clock         chrono.StandardImpl
	otelProviders telemetry.Otel
)

var rootCmd = &cobra.Command{
	Use:          "ratesetter-cli",
	Short:        "ratesetter-cli reads market rates and your lending position from RateSetter.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(debug)
		tel = telemetry.NewSlogAPI(nil)

		var err error
		config, err = loadConfig(configPath, !cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		clock, err = chrono.NewStandardImpl()
		if err != nil {
			return err
		}
		otelProviders, err = telemetry.SetupOtel(cmd.Context(), "ratesetter-cli", config.Otlp)
		if err != nil {
			return fmt.Errorf("setup otel: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "write every http exchange into this directory")
}

func Execute() {
	err := rootCmd.Execute()

	shutdownErr := otelProviders.Shutdown(context.Background())
	if shutdownErr != nil {
		fmt.Fprintln(os.Stderr, "otel shutdown:", shutdownErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*ratesetter.Client, error) {
	var output telemetry.MessageOutput
	if dumpHttp != "" {
		fsOutput, err := telemetry.NewFilesystemOutput(dumpHttp)
		if err != nil {
			return nil, fmt.Errorf("dump directory: %w", err)
		}
		output = fsOutput
	}

	opts, err := config.clientOptions(tel, output)
	if err != nil {
		return nil, err
	}
	return ratesetter.NewClient(opts)
}

// withClient runs fn with a fresh client and signs out afterwards whatever fn
// returned.
func withClient(ctx context.Context, fn func(ctx context.Context, client *ratesetter.Client) error) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
			tel.ReportWarning(report_cli_disconnect, err)
		}
	}()
	return fn(ctx, client)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
