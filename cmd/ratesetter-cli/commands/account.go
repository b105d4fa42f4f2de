package commands

import (
	"context"
	"ratesetter-client/internal/scrapers/ratesetter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(portfolioCmd)
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Prints the balance sheet of your account.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, client *ratesetter.Client) error {
			summary, err := client.AccountSummary(ctx)
			if err != nil {
				return err
			}
			renderAccountSummary(cmd.OutOrStdout(), summary)
			return nil
		})
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Prints how much you have lent on every market.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, client *ratesetter.Client) error {
			portfolio, err := client.PortfolioSummary(ctx)
			if err != nil {
				return err
			}
			renderPortfolio(cmd.OutOrStdout(), portfolio)
			return nil
		})
	},
}
