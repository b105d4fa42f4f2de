package ratesetter

import (
	"github.com/shopspring/decimal"
)

// MarketRates is the rate currently advertised for every market, as a fraction.
type MarketRates map[MarketKind]decimal.Decimal

// ProvisionFundStatus is what the site publishes about its provision fund.
type ProvisionFundStatus struct {
	Balance decimal.Decimal `json:"balance"`
	// Coverage is a fraction, 1.5 means the fund covers 150% of expected losses.
	Coverage decimal.Decimal `json:"coverage"`
}

// AccountSummary is the balance sheet shown on the dashboard, all values are currency amounts.
type AccountSummary struct {
	Deposited      decimal.Decimal `json:"deposited"`
	Balance        decimal.Decimal `json:"balance"`
	Promotions     decimal.Decimal `json:"promotions"`
	OnLoan         decimal.Decimal `json:"on_loan"`
	InterestEarned decimal.Decimal `json:"interest_earned"`
	OnMarket       decimal.Decimal `json:"on_market"`
	Fees           decimal.Decimal `json:"fees"`
	Withdrawals    decimal.Decimal `json:"withdrawals"`
	Total          decimal.Decimal `json:"total"`
}

// PortfolioRow is the position held in a single market.
type PortfolioRow struct {
	Amount decimal.Decimal `json:"amount"`
	// AverageRate is a fraction, it is exactly zero when the site shows no rate.
	AverageRate decimal.Decimal `json:"average_rate"`
	// OnMarket is the part of Amount currently re-listed for sale.
	OnMarket decimal.Decimal `json:"on_market"`
}

type Portfolio map[MarketKind]PortfolioRow

// Snapshot groups the public market figures fetched in one go.
type Snapshot struct {
	Rates         MarketRates         `json:"rates"`
	ProvisionFund ProvisionFundStatus `json:"provision_fund"`
}

type accountRow struct {
	key   string
	label string
	field func(*AccountSummary) *decimal.Decimal
}

// accountRows is the balance sheet catalog, labels are matched against the
// dashboard markup.
var accountRows = []accountRow{
	{key: "deposited", label: "Money Deposited", field: func(a *AccountSummary) *decimal.Decimal { return &a.Deposited }},
	{key: "balance", label: "Holding Account", field: func(a *AccountSummary) *decimal.Decimal { return &a.Balance }},
	{key: "promotions", label: "Promotions", field: func(a *AccountSummary) *decimal.Decimal { return &a.Promotions }},
	{key: "on_loan", label: "On Loan", field: func(a *AccountSummary) *decimal.Decimal { return &a.OnLoan }},
	{key: "interest_earned", label: "Interest Earned", field: func(a *AccountSummary) *decimal.Decimal { return &a.InterestEarned }},
	{key: "on_market", label: "On Market", field: func(a *AccountSummary) *decimal.Decimal { return &a.OnMarket }},
	{key: "fees", label: "RateSetter Fees", field: func(a *AccountSummary) *decimal.Decimal { return &a.Fees }},
	{key: "withdrawals", label: "Money Withdrawn", field: func(a *AccountSummary) *decimal.Decimal { return &a.Withdrawals }},
	{key: "total", label: "Total", field: func(a *AccountSummary) *decimal.Decimal { return &a.Total }},
}
