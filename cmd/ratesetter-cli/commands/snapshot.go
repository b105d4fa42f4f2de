package commands

import (
	"context"
	"fmt"
	"ratesetter-client/internal/scrapers/ratesetter"
	"ratesetter-client/internal/snapshot"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of points to print")

	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(historyCmd)
}

func openStore() (snapshot.Store, func() error, error) {
	sqlite, err := snapshot.Open(config.Database)
	if err != nil {
		return snapshot.Store{}, nil, fmt.Errorf("open %s: %w", config.Database, err)
	}
	return snapshot.NewStoreFromDB(sqlite, clock, tel), sqlite.Close, nil
}

// record fetches the public market figures and writes them to store.
func record(ctx context.Context, client *ratesetter.Client, store snapshot.Store) (ratesetter.Snapshot, time.Time, error) {
	snap, err := client.Snapshot(ctx)
	if err != nil {
		return ratesetter.Snapshot{}, time.Time{}, err
	}
	recordedAt, err := store.Record(ctx, snap)
	if err != nil {
		return ratesetter.Snapshot{}, time.Time{}, err
	}
	return snap, recordedAt, nil
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Records the current market rates and provision fund figures once.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		return withClient(cmd.Context(), func(ctx context.Context, client *ratesetter.Client) error {
			snap, recordedAt, err := record(ctx, client, store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded at %s\n", recordedAt.Format(time.DateTime))
			renderRates(cmd.OutOrStdout(), snap.Rates)
			renderProvisionFund(cmd.OutOrStdout(), snap.ProvisionFund)
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <market>",
	Short: "Prints the recorded rates of a market, newest first.",
	Long:  "Prints the recorded rates of a market, newest first. The market is given by key (monthly, bond_1year, income_3year, income_5year) or by label.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := ratesetter.ParseMarketKind(args[0])
		if err != nil {
			if suggestion := suggestMarket(args[0]); suggestion != "" {
				return fmt.Errorf("%w, did you mean %q?", err, suggestion)
			}
			return err
		}

		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		points, err := store.History(cmd.Context(), market, historyLimit)
		if err != nil {
			return err
		}
		if len(points) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "nothing recorded for %s yet\n", market.Label())
			return nil
		}
		renderHistory(cmd.OutOrStdout(), market, points)
		return nil
	},
}
