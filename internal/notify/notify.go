// Package notify emails rate changes noticed between two recorded snapshots.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"ratesetter-client/internal/scrapers/ratesetter"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ratesetter.internal.notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
	// Threshold is the smallest change of a rate worth an email, as a fraction.
	Threshold string `json:"threshold"`
}

func (c Config) Enabled() bool {
	return c.Smtp.Server != "" && len(c.To) > 0
}

// RateChange is a market whose rate moved between two snapshots.
type RateChange struct {
	Market   ratesetter.MarketKind
	Previous decimal.Decimal
	Current  decimal.Decimal
}

func (c RateChange) Delta() decimal.Decimal {
	return c.Current.Sub(c.Previous)
}

// RateChanges lists the markets, in site order, whose rate moved by at least
// threshold. Markets missing from either side are not compared.
func RateChanges(previous, current ratesetter.MarketRates, threshold decimal.Decimal) []RateChange {
	changes := []RateChange{}
	for _, market := range ratesetter.AllMarkets() {
		before, ok := previous[market]
		if !ok {
			continue
		}
		after, ok := current[market]
		if !ok {
			continue
		}
		if before.Equal(after) || after.Sub(before).Abs().LessThan(threshold) {
			continue
		}
		changes = append(changes, RateChange{Market: market, Previous: before, Current: after})
	}
	return changes
}

func formatPercent(fraction decimal.Decimal) string {
	return fraction.Shift(2).StringFixed(2) + "%"
}

// FormatRateChanges renders changes as an email subject and plain text body.
func FormatRateChanges(changes []RateChange) (subject, body string) {
	if len(changes) == 1 {
		subject = fmt.Sprintf("RateSetter: %s rate moved to %s", changes[0].Market.Label(), formatPercent(changes[0].Current))
	} else {
		subject = fmt.Sprintf("RateSetter: %d market rates moved", len(changes))
	}

	var out strings.Builder
	out.WriteString("The following market rates changed since the last snapshot.\n\n")
	for _, change := range changes {
		direction := "up"
		if change.Delta().IsNegative() {
			direction = "down"
		}
		fmt.Fprintf(
			&out, "%s: %s -> %s (%s %s)\n",
			change.Market.Label(),
			formatPercent(change.Previous),
			formatPercent(change.Current),
			direction,
			formatPercent(change.Delta().Abs()),
		)
	}
	return subject, out.String()
}

type sendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

// EmailSender sends alerts through an smtp server.
type EmailSender struct {
	config Config
	send   sendFunc
}

func NewEmailSender(config Config) (EmailSender, error) {
	if !config.Enabled() {
		return EmailSender{}, fmt.Errorf("smtp server and at least one recipient are required")
	}
	if config.Smtp.Port == 0 {
		config.Smtp.Port = 587
	}
	return EmailSender{
		config: config,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}, nil
}

func (s EmailSender) Send(ctx context.Context, subject, body string) error {
	_, span := tracer.Start(ctx, "notify:Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("RateSetter watch <%s>", s.config.Smtp.EmailAddress)
	mail.To = s.config.To
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", s.config.Smtp.Server, s.config.Smtp.Port)
	err := s.send(
		mail,
		addr,
		smtp.PlainAuth("", s.config.Smtp.EmailAddress, s.config.Smtp.Password, s.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = s.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
