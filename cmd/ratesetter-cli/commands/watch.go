package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"ratesetter-client/internal/components/chrono"
	"ratesetter-client/internal/components/telemetry"
	"ratesetter-client/internal/notify"
	"ratesetter-client/internal/scrapers/ratesetter"
	"ratesetter-client/internal/snapshot"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

const (
	report_cli_watch  = "cli.watch"
	report_cli_notify = "cli.notify"

	perfStatsInterval = 30 * time.Second
)

var (
	meter                = otel.Meter("ratesetter.cli")
	recordedSnapshots, _ = meter.Int64Counter("snapshots_recorded")
	failedSnapshots, _   = meter.Int64Counter("snapshots_failed")
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

type alertSender interface {
	Send(ctx context.Context, subject, body string) error
}

// watcher records a snapshot on every tick and emails rate changes when an
// alert sender is configured.
type watcher struct {
	client    *ratesetter.Client
	store     snapshot.Store
	alerts    alertSender
	threshold decimal.Decimal
	tel       telemetry.API
}

func (w watcher) tick(ctx context.Context) {
	var previous ratesetter.MarketRates
	latest, err := w.store.LatestRates(ctx)
	if err == nil {
		previous = ratesetter.MarketRates{}
		for market, point := range latest {
			previous[market] = point.Rate
		}
	} else if !errors.Is(err, snapshot.ErrNoSnapshot) {
		w.tel.ReportWarning(report_cli_watch, "read previous rates", err)
	}

	snap, recordedAt, err := record(ctx, w.client, w.store)
	if err != nil {
		failedSnapshots.Add(ctx, 1)
		w.tel.ReportBroken(report_cli_watch, err)
		return
	}
	recordedSnapshots.Add(ctx, 1)
	w.tel.ReportDebug("watch: recorded snapshot", recordedAt.Format(time.DateTime))

	if w.alerts == nil || previous == nil {
		return
	}
	changes := notify.RateChanges(previous, snap.Rates, w.threshold)
	if len(changes) == 0 {
		return
	}
	subject, body := notify.FormatRateChanges(changes)
	err = w.alerts.Send(ctx, subject, body)
	if err != nil {
		w.tel.ReportBroken(report_cli_notify, err)
		return
	}
	w.tel.ReportDebug("watch: sent rate alert", len(changes))
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Records a snapshot on the configured schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, err := config.notifyThreshold()
		if err != nil {
			return err
		}
		var alerts alertSender
		if config.Notify.Enabled() {
			sender, err := notify.NewEmailSender(config.Notify)
			if err != nil {
				return err
			}
			alerts = sender
		}

		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		telemetry.InstrumentPerfStats(ctx, perfStatsInterval, tel)

		return withClient(ctx, func(ctx context.Context, client *ratesetter.Client) error {
			w := watcher{
				client:    client,
				store:     store,
				alerts:    alerts,
				threshold: threshold,
				tel:       tel,
			}

			cron := chrono.NewStandardCron(clock, tel)
			// ticks never overlap so the client is only ever used by one job
			err := cron.Cron(config.Schedule, func() { w.tick(ctx) })
			if err != nil {
				cron.Stop()
				return fmt.Errorf("schedule %q: %w", config.Schedule, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "recording snapshots on schedule %q, interrupt to stop\n", config.Schedule)
			<-ctx.Done()
			cron.Stop()
			return nil
		})
	},
}
