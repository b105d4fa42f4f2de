package commands

import (
	"io"
	"ratesetter-client/internal/scrapers/ratesetter"
	"ratesetter-client/internal/snapshot"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

func percent(fraction decimal.Decimal) string {
	return fraction.Shift(2).StringFixed(2) + "%"
}

func money(value decimal.Decimal) string {
	if value.IsNegative() {
		return "-£" + value.Neg().StringFixed(2)
	}
	return "£" + value.StringFixed(2)
}

var rightAligned = []table.ColumnConfig{
	{Number: 2, Align: text.AlignRight},
	{Number: 3, Align: text.AlignRight},
	{Number: 4, Align: text.AlignRight},
}

func renderRates(w io.Writer, rates ratesetter.MarketRates) {
	t := newTable(w)
	t.SetColumnConfigs(rightAligned)
	t.AppendHeader(table.Row{"Market", "Rate"})
	for _, market := range ratesetter.AllMarkets() {
		rate, ok := rates[market]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{market.Label(), percent(rate)})
	}
	t.Render()
}

func renderProvisionFund(w io.Writer, status ratesetter.ProvisionFundStatus) {
	t := newTable(w)
	t.SetColumnConfigs(rightAligned)
	t.AppendRows([]table.Row{
		{"Balance", money(status.Balance)},
		{"Coverage", percent(status.Coverage)},
	})
	t.Render()
}

func renderAccountSummary(w io.Writer, summary ratesetter.AccountSummary) {
	t := newTable(w)
	t.SetColumnConfigs(rightAligned)
	t.AppendRows([]table.Row{
		{"Money deposited", money(summary.Deposited)},
		{"Promotions", money(summary.Promotions)},
		{"Interest earned", money(summary.InterestEarned)},
		{"Fees", money(summary.Fees)},
		{"Money withdrawn", money(summary.Withdrawals)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"On loan", money(summary.OnLoan)},
		{"On market", money(summary.OnMarket)},
		{"Holding account", money(summary.Balance)},
	})
	t.AppendFooter(table.Row{"Total", money(summary.Total)})
	t.Render()
}

func renderPortfolio(w io.Writer, portfolio ratesetter.Portfolio) {
	t := newTable(w)
	t.SetColumnConfigs(rightAligned)
	t.AppendHeader(table.Row{"Market", "Lent", "Average rate", "On market"})

	lent := decimal.Zero
	onMarket := decimal.Zero
	for _, market := range ratesetter.AllMarkets() {
		row, ok := portfolio[market]
		if !ok {
			continue
		}
		rate := "-"
		if !row.AverageRate.IsZero() {
			rate = percent(row.AverageRate)
		}
		t.AppendRow(table.Row{market.Label(), money(row.Amount), rate, money(row.OnMarket)})
		lent = lent.Add(row.Amount)
		onMarket = onMarket.Add(row.OnMarket)
	}
	t.AppendFooter(table.Row{"Total", money(lent), "", money(onMarket)})
	t.Render()
}

func renderHistory(w io.Writer, market ratesetter.MarketKind, points []snapshot.Point) {
	t := newTable(w)
	t.SetColumnConfigs(rightAligned)
	t.SetTitle(market.Label())
	t.AppendHeader(table.Row{"Recorded", "Rate"})
	for _, point := range points {
		t.AppendRow(table.Row{point.Time.Format(time.DateTime), percent(point.Rate)})
	}
	t.Render()
}
