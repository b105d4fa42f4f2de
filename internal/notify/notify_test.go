package notify

import (
	"context"
	"errors"
	"net/smtp"
	"ratesetter-client/internal/scrapers/ratesetter"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRateChanges(t *testing.T) {
	previous := ratesetter.MarketRates{
		ratesetter.MONTHLY_ACCESS: dec("0.029"),
		ratesetter.BOND_1_YEAR:    dec("0.041"),
		ratesetter.INCOME_3_YEAR:  dec("0.054"),
	}
	current := ratesetter.MarketRates{
		ratesetter.MONTHLY_ACCESS: dec("0.0290"),
		ratesetter.BOND_1_YEAR:    dec("0.0405"),
		ratesetter.INCOME_3_YEAR:  dec("0.060"),
		ratesetter.INCOME_5_YEAR:  dec("0.0625"),
	}

	changes := RateChanges(previous, current, decimal.Zero)
	require.Len(t, changes, 2)
	require.Equal(t, ratesetter.BOND_1_YEAR, changes[0].Market)
	require.True(t, changes[0].Delta().Equal(dec("-0.0005")))
	require.Equal(t, ratesetter.INCOME_3_YEAR, changes[1].Market)

	changes = RateChanges(previous, current, dec("0.001"))
	require.Len(t, changes, 1)
	require.Equal(t, ratesetter.INCOME_3_YEAR, changes[0].Market)
}

func TestFormatRateChanges(t *testing.T) {
	subject, body := FormatRateChanges([]RateChange{
		{Market: ratesetter.INCOME_3_YEAR, Previous: dec("0.054"), Current: dec("0.060")},
	})
	require.Equal(t, "RateSetter: 3 Year Income rate moved to 6.00%", subject)
	require.Contains(t, body, "3 Year Income: 5.40% -> 6.00% (up 0.60%)")

	subject, body = FormatRateChanges([]RateChange{
		{Market: ratesetter.MONTHLY_ACCESS, Previous: dec("0.03"), Current: dec("0.029")},
		{Market: ratesetter.BOND_1_YEAR, Previous: dec("0.04"), Current: dec("0.041")},
	})
	require.Equal(t, "RateSetter: 2 market rates moved", subject)
	require.Contains(t, body, "Monthly Access: 3.00% -> 2.90% (down 0.10%)")
}

func TestNewEmailSenderRequiresConfig(t *testing.T) {
	_, err := NewEmailSender(Config{})
	require.Error(t, err)
}

func TestEmailSenderFallsBackWithoutAuth(t *testing.T) {
	sender, err := NewEmailSender(Config{
		Smtp: SmtpConfig{Server: "localhost", Port: 1025, EmailAddress: "watch@example.com"},
		To:   []string{"lender@example.com"},
	})
	require.NoError(t, err)

	var sent []*email.Email
	var addrs []string
	sender.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
		if auth != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		sent = append(sent, mail)
		addrs = append(addrs, addr)
		return nil
	}

	err = sender.Send(context.Background(), "subject", "body")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Equal(t, []string{"localhost:1025"}, addrs)
	require.Equal(t, "RateSetter watch <watch@example.com>", sent[0].From)
	require.Equal(t, []string{"lender@example.com"}, sent[0].To)
	require.Equal(t, "body", string(sent[0].Text))
}

func TestEmailSenderError(t *testing.T) {
	sender, err := NewEmailSender(Config{
		Smtp: SmtpConfig{Server: "localhost", EmailAddress: "watch@example.com"},
		To:   []string{"lender@example.com"},
	})
	require.NoError(t, err)
	sender.send = func(*email.Email, string, smtp.Auth) error {
		return errors.New("connection refused")
	}

	require.Error(t, sender.Send(context.Background(), "subject", "body"))
}
