package ratesetter

import (
	"fmt"
	"net/url"
)

// Site holds every url and control name the client relies on. It is passed by
// value and never modified after a Client is built.
type Site struct {
	HomeUrl          string
	ProvisionFundUrl string
	MarketViewUrl    string

	// LoginPath and DashboardPath are only ever used as substrings of the url a
	// request ended up at, the site answers 200 to everything and signals the
	// outcome of a login through where it redirects.
	LoginPath     string
	DashboardPath string

	UserAgent string

	// asp.net postback fields of the login form
	EventTargetField string
	LoginButton      string
	EmailField       string
	PasswordField    string
}

// DefaultSite returns the production site.
func DefaultSite() Site {
	return Site{
		HomeUrl:          "https://www.ratesetter.com/",
		ProvisionFundUrl: "http://www.ratesetter.com/lending/provision_fund.aspx",
		MarketViewUrl:    "http://www.ratesetter.com/lending/market_view.aspx",
		LoginPath:        "login.aspx",
		DashboardPath:    "your_lending/summary",
		UserAgent:        "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.9; rv:29.0) Gecko/20100101 Firefox/29.0",
		EventTargetField: "__EVENTTARGET",
		LoginButton:      "ctl00$cphContentArea$cphForm$btnLogin",
		EmailField:       "ctl00$cphContentArea$cphForm$txtEmail",
		PasswordField:    "ctl00$cphContentArea$cphForm$txtPassword",
	}
}

func (s Site) validate() error {
	for name, link := range map[string]string{
		"home url":           s.HomeUrl,
		"provision fund url": s.ProvisionFundUrl,
		"market view url":    s.MarketViewUrl,
	} {
		parsed, err := url.Parse(link)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !parsed.IsAbs() {
			return fmt.Errorf("%s must be absolute, got %q", name, link)
		}
	}
	if s.LoginPath == "" || s.DashboardPath == "" {
		return fmt.Errorf("login and dashboard paths must be set")
	}
	return nil
}

type MarketKind int

const (
	MONTHLY_ACCESS MarketKind = iota
	BOND_1_YEAR
	INCOME_3_YEAR
	INCOME_5_YEAR
)

var marketKeys = [...]string{
	MONTHLY_ACCESS: "monthly",
	BOND_1_YEAR:    "bond_1year",
	INCOME_3_YEAR:  "income_3year",
	INCOME_5_YEAR:  "income_5year",
}

var marketLabels = [...]string{
	MONTHLY_ACCESS: "Monthly Access",
	BOND_1_YEAR:    "1 Year Bond",
	INCOME_3_YEAR:  "3 Year Income",
	INCOME_5_YEAR:  "5 Year Income",
}

// AllMarkets returns every market in the order the site lists them.
func AllMarkets() []MarketKind {
	return []MarketKind{MONTHLY_ACCESS, BOND_1_YEAR, INCOME_3_YEAR, INCOME_5_YEAR}
}

// Key is the stable identifier of the market.
func (m MarketKind) Key() string {
	if m < 0 || int(m) >= len(marketKeys) {
		return fmt.Sprintf("market(%d)", int(m))
	}
	return marketKeys[m]
}

// Label is the text the site prints next to the market.
func (m MarketKind) Label() string {
	if m < 0 || int(m) >= len(marketLabels) {
		return ""
	}
	return marketLabels[m]
}

func (m MarketKind) String() string {
	return m.Key()
}

func (m MarketKind) MarshalText() ([]byte, error) {
	if m.Label() == "" {
		return nil, fmt.Errorf("unknown market %d", int(m))
	}
	return []byte(m.Key()), nil
}

func (m *MarketKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMarketKind(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMarketKind accepts either a market key ("bond_1year") or its label ("1 Year Bond").
func ParseMarketKind(s string) (MarketKind, error) {
	for _, m := range AllMarkets() {
		if s == m.Key() || s == m.Label() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown market %q", s)
}
