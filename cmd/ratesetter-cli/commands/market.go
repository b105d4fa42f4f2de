package commands

import (
	"context"
	"ratesetter-client/internal/scrapers/ratesetter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(provisionCmd)
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Prints the rate currently advertised on every market.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, client *ratesetter.Client) error {
			rates, err := client.MarketRates(ctx)
			if err != nil {
				return err
			}
			renderRates(cmd.OutOrStdout(), rates)
			return nil
		})
	},
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Prints the balance and coverage ratio of the provision fund.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, client *ratesetter.Client) error {
			status, err := client.ProvisionFund(ctx)
			if err != nil {
				return err
			}
			renderProvisionFund(cmd.OutOrStdout(), status)
			return nil
		})
	},
}
