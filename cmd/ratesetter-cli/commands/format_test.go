package commands

import (
	"bytes"
	"ratesetter-client/internal/scrapers/ratesetter"
	"ratesetter-client/internal/snapshot"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPercentAndMoney(t *testing.T) {
	require.Equal(t, "6.25%", percent(decimal.RequireFromString("0.0625")))
	require.Equal(t, "150.00%", percent(decimal.RequireFromString("1.5")))
	require.Equal(t, "£5318.76", money(decimal.RequireFromString("5318.76")))
	require.Equal(t, "-£18.72", money(decimal.RequireFromString("-18.72")))
	require.Equal(t, "£0.00", money(decimal.Zero))
}

func TestRenderPortfolio(t *testing.T) {
	var out bytes.Buffer
	renderPortfolio(&out, ratesetter.Portfolio{
		ratesetter.MONTHLY_ACCESS: {
			Amount:      decimal.RequireFromString("1200"),
			AverageRate: decimal.RequireFromString("0.031"),
		},
		ratesetter.INCOME_5_YEAR: {
			Amount:   decimal.RequireFromString("699.50"),
			OnMarket: decimal.RequireFromString("10"),
		},
	})

	rendered := out.String()
	require.Contains(t, rendered, "Monthly Access")
	require.Contains(t, rendered, "3.10%")
	require.Contains(t, rendered, "£1899.50")
	require.NotContains(t, rendered, "1 Year Bond")
}

func TestRenderRatesInMarketOrder(t *testing.T) {
	var out bytes.Buffer
	renderRates(&out, ratesetter.MarketRates{
		ratesetter.INCOME_5_YEAR:  decimal.RequireFromString("0.0625"),
		ratesetter.MONTHLY_ACCESS: decimal.RequireFromString("0.029"),
	})

	rendered := out.String()
	require.Less(t, bytes.Index(out.Bytes(), []byte("Monthly Access")), bytes.Index(out.Bytes(), []byte("5 Year Income")))
	require.Contains(t, rendered, "2.90%")
}

func TestRenderHistory(t *testing.T) {
	var out bytes.Buffer
	renderHistory(&out, ratesetter.BOND_1_YEAR, []snapshot.Point{
		{Time: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC), Rate: decimal.RequireFromString("0.041")},
	})

	rendered := out.String()
	require.Contains(t, rendered, "2024-03-01 10:00:00")
	require.Contains(t, rendered, "4.10%")
}
