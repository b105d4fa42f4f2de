package ratesetter

import (
	"context"
	"ratesetter-client/pkg/amount"
	"ratesetter-client/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

const (
	report_client_market_rates    = "client.market-rates"
	report_client_provision_fund  = "client.provision-fund"
	report_client_account_summary = "client.account-summary"
	report_client_portfolio       = "client.portfolio-summary"
	report_client_snapshot        = "client.snapshot"

	component_market_rates      = "market rates"
	component_provision_fund    = "provision fund"
	component_account_summary   = "account summary"
	component_portfolio_summary = "portfolio summary"

	selector_current_rate   = `div[class="currentRate"]`
	selector_rate_value     = `span[class="rateValue"]`
	selector_portfolio_cell = `td.alignRight`

	text_provision_fund_balance  = "How much is in the Provision Fund"
	text_provision_fund_coverage = "Coverage Ratio"

	portfolioCellsPerRow = 5
)

// firstText is the text of the first node of sel. The boolean tells "nothing
// matched" apart from "matched an empty element".
func firstText(sel *goquery.Selection) (string, bool) {
	if sel == nil || sel.Length() == 0 {
		return "", false
	}
	return sel.First().Text(), true
}

// afterSubtree returns the node following n in document order once all of n's
// descendants have been skipped.
func afterSubtree(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// following returns the first element matching selector that starts after the
// end of from, which is what the xpath following axis gives.
func following(doc Document, from *goquery.Selection, selector string) *goquery.Selection {
	candidates := doc.Find(selector)
	if from.Length() == 0 || candidates.Length() == 0 {
		return candidates.FilterNodes()
	}

	matches := make(map[*html.Node]bool, candidates.Length())
	for _, n := range candidates.Nodes {
		matches[n] = true
	}

	n := afterSubtree(from.Get(0))
	for n != nil {
		if matches[n] {
			return candidates.FilterNodes(n)
		}
		if n.FirstChild != nil {
			n = n.FirstChild
		} else {
			n = afterSubtree(n)
		}
	}
	return candidates.FilterNodes()
}

func parseMarketRates(doc Document) (MarketRates, error) {
	rates := MarketRates{}
	for _, market := range AllMarkets() {
		heading := htmlutil.WithOwnText(doc.Find("h3"), market.Label())
		text, ok := firstText(
			heading.NextAllFiltered(selector_current_rate).ChildrenFiltered(selector_rate_value),
		)
		if !ok {
			return nil, siteChanged(component_market_rates, "no rate for %s", market.Label())
		}
		rate, err := amount.ParsePercent(text)
		if err != nil {
			return nil, &ParseError{Url: doc.Location().String(), Field: market.Key(), Err: err}
		}
		rates[market] = rate
	}
	return rates, nil
}

func parseProvisionFund(doc Document) (ProvisionFundStatus, error) {
	location := doc.Location().String()

	balanceText, ok := firstText(
		htmlutil.WithOwnText(doc.Find("p"), text_provision_fund_balance).ChildrenFiltered("span"),
	)
	if !ok {
		return ProvisionFundStatus{}, siteChanged(component_provision_fund, "no fund balance")
	}
	balance, err := amount.Parse(balanceText)
	if err != nil {
		return ProvisionFundStatus{}, &ParseError{Url: location, Field: "provision_fund", Err: err}
	}

	coverageText, ok := firstText(
		htmlutil.WithOwnText(doc.Find("div"), text_provision_fund_coverage).
			NextAllFiltered("div").
			ChildrenFiltered(selector_rate_value),
	)
	if !ok {
		return ProvisionFundStatus{}, siteChanged(component_provision_fund, "no coverage ratio")
	}
	coverage, err := amount.ParsePercent(coverageText)
	if err != nil {
		return ProvisionFundStatus{}, &ParseError{Url: location, Field: "coverage", Err: err}
	}

	return ProvisionFundStatus{Balance: balance, Coverage: coverage}, nil
}

func parseAccountSummary(doc Document) (AccountSummary, error) {
	var summary AccountSummary
	for _, row := range accountRows {
		label := htmlutil.WithOwnText(doc.Find("span"), row.label).First()
		// the cell right after the label holds the currency sign, the figure is next to it
		text, ok := firstText(following(doc, label, "td").NextFiltered("td"))
		if !ok {
			return AccountSummary{}, siteChanged(component_account_summary, "no value for %q", row.label)
		}
		value, err := amount.Parse(text)
		if err != nil {
			return AccountSummary{}, &ParseError{Url: doc.Location().String(), Field: row.key, Err: err}
		}
		*row.field(&summary) = value
	}
	return summary, nil
}

func parsePortfolio(doc Document) (Portfolio, error) {
	location := doc.Location().String()
	portfolio := Portfolio{}

	for _, market := range AllMarkets() {
		label := htmlutil.WithOwnText(doc.Find("td"), market.Label()).First()
		if label.Length() == 0 {
			return nil, siteChanged(component_portfolio_summary, "no row for %s", market.Label())
		}

		cells := label.Closest("tr").Find(selector_portfolio_cell)
		if cells.Length() != portfolioCellsPerRow {
			return nil, siteChanged(
				component_portfolio_summary,
				"expected %d figures for %s, found %d",
				portfolioCellsPerRow, market.Label(), cells.Length(),
			)
		}

		// whole pounds and pence sit in separate cells
		pair := func(whole, fraction int) (decimal.Decimal, error) {
			return amount.Parse(cells.Eq(whole).Text() + cells.Eq(fraction).Text())
		}

		lent, err := pair(0, 1)
		if err != nil {
			return nil, &ParseError{Url: location, Field: market.Key() + ".amount", Err: err}
		}
		averageRate, err := amount.ParseOptionalPercent(cells.Eq(2).Text())
		if err != nil {
			return nil, &ParseError{Url: location, Field: market.Key() + ".average_rate", Err: err}
		}
		onMarket, err := pair(3, 4)
		if err != nil {
			return nil, &ParseError{Url: location, Field: market.Key() + ".on_market", Err: err}
		}

		portfolio[market] = PortfolioRow{
			Amount:      lent,
			AverageRate: averageRate,
			OnMarket:    onMarket,
		}
	}
	return portfolio, nil
}

// MarketRates returns the rate currently advertised for every market.
func (c *Client) MarketRates(ctx context.Context) (MarketRates, error) {
	ctx, span := tracer.Start(ctx, "client:MarketRates")
	defer span.End()

	err := c.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := c.fetchInSession(ctx, c.site.MarketViewUrl)
	if err != nil {
		return nil, c.fail(span, report_client_market_rates, err)
	}
	rates, err := parseMarketRates(doc)
	if err != nil {
		return nil, c.fail(span, report_client_market_rates, err)
	}
	return rates, nil
}

// ProvisionFund returns the published balance and coverage of the provision fund.
func (c *Client) ProvisionFund(ctx context.Context) (ProvisionFundStatus, error) {
	ctx, span := tracer.Start(ctx, "client:ProvisionFund")
	defer span.End()

	err := c.ensureConnected(ctx)
	if err != nil {
		return ProvisionFundStatus{}, err
	}
	doc, err := c.fetchInSession(ctx, c.site.ProvisionFundUrl)
	if err != nil {
		return ProvisionFundStatus{}, c.fail(span, report_client_provision_fund, err)
	}
	status, err := parseProvisionFund(doc)
	if err != nil {
		return ProvisionFundStatus{}, c.fail(span, report_client_provision_fund, err)
	}
	return status, nil
}

// AccountSummary returns the balance sheet shown on the dashboard.
func (c *Client) AccountSummary(ctx context.Context) (AccountSummary, error) {
	ctx, span := tracer.Start(ctx, "client:AccountSummary")
	defer span.End()

	err := c.ensureConnected(ctx)
	if err != nil {
		return AccountSummary{}, err
	}
	doc, err := c.fetchInSession(ctx, c.dashboardUrl.String())
	if err != nil {
		return AccountSummary{}, c.fail(span, report_client_account_summary, err)
	}
	summary, err := parseAccountSummary(doc)
	if err != nil {
		return AccountSummary{}, c.fail(span, report_client_account_summary, err)
	}
	return summary, nil
}

// PortfolioSummary returns the position held in every market.
func (c *Client) PortfolioSummary(ctx context.Context) (Portfolio, error) {
	ctx, span := tracer.Start(ctx, "client:PortfolioSummary")
	defer span.End()

	err := c.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := c.fetchInSession(ctx, c.dashboardUrl.String())
	if err != nil {
		return nil, c.fail(span, report_client_portfolio, err)
	}
	portfolio, err := parsePortfolio(doc)
	if err != nil {
		return nil, c.fail(span, report_client_portfolio, err)
	}
	return portfolio, nil
}

// Snapshot fetches the market rates and the provision fund, both or neither.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "client:Snapshot")
	defer span.End()

	rates, err := c.MarketRates(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "market rates")
		return Snapshot{}, err
	}
	fund, err := c.ProvisionFund(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "provision fund")
		return Snapshot{}, err
	}

	c.tel.ReportDebug(report_client_snapshot, len(rates))
	return Snapshot{Rates: rates, ProvisionFund: fund}, nil
}
