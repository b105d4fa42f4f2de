// client.go contains the session state machine: logging in through the site's
// asp.net form, remembering where the dashboard lives and signing out again.

package ratesetter

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"ratesetter-client/internal/components/assert"
	"ratesetter-client/internal/components/chrono"
	"ratesetter-client/internal/components/telemetry"
	"ratesetter-client/pkg/htmlutil"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("ratesetter.internal.scrapers.ratesetter")

const (
	report_client_connect    = "client.connect"
	report_client_disconnect = "client.disconnect"

	selector_login_link    = `div[class="RegisterBalloon"] > div[class="balloonButton"] > a`
	selector_sign_out_link = `div#membersInfo a`

	text_login_link    = "Login"
	text_sign_out_link = "Sign Out"

	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 2
)

type State int

const (
	DISCONNECTED State = iota
	CONNECTED
)

func (s State) String() string {
	switch s {
	case CONNECTED:
		return "connected"
	default:
		return "disconnected"
	}
}

type Options struct {
	Email    string
	Password string
	// Natural pauses for a random 2 to 10 seconds in the middle of every login.
	Natural bool

	// Site defaults to DefaultSite().
	Site *Site
	// Rand is the entropy source of natural mode, it is seeded once here when nil.
	Rand *rand.Rand
	// Sleep defaults to the standard clock.
	Sleep chrono.SleepAPI
	// Tel defaults to a SlogAPI over slog.Default().
	Tel telemetry.API

	// Timeout bounds every single request, 0 means 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond caps the request rate, 0 means 2 and a negative value disables the limit.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport with a browser-like TLS configuration.
	CloudflareBypass bool
	// MessageOutput receives a dump of every request and response when set.
	MessageOutput telemetry.MessageOutput
}

// Client is a single browser-equivalent session on the site.
//
// A Client is not safe for concurrent use. Queries only read the session and
// may run side by side once connected, but Connect and Disconnect must never
// race a query: callers serialize those themselves.
type Client struct {
	site     Site
	email    string
	password string

	fetch   fetcher
	natural naturalThrottle
	tel     telemetry.API

	state        State
	dashboardUrl *url.URL
	signOutUrl   *url.URL
}

func NewClient(opts Options) (*Client, error) {
	err := assert.Required(
		assert.Field{Name: "email", Value: opts.Email},
		assert.Field{Name: "password", Value: opts.Password},
	)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	site := DefaultSite()
	if opts.Site != nil {
		site = *opts.Site
	}
	err = site.validate()
	if err != nil {
		return nil, fmt.Errorf("invalid site: %w", err)
	}

	tel := opts.Tel
	if tel == nil {
		tel = telemetry.NewSlogAPI(nil)
	}
	tel = telemetry.NewScopedAPI("ratesetter", tel)

	sleep := opts.Sleep
	if sleep == nil {
		sleep = chrono.StandardImpl{}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	requestsPerSecond := opts.RequestsPerSecond
	if requestsPerSecond == 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}

	fetch, err := newFetcher(fetcherOptions{
		site:              site,
		timeout:           timeout,
		requestsPerSecond: requestsPerSecond,
		cloudflareBypass:  opts.CloudflareBypass,
		messageOutput:     opts.MessageOutput,
	}, tel)
	if err != nil {
		return nil, err
	}

	return &Client{
		site:     site,
		email:    opts.Email,
		password: opts.Password,
		fetch:    fetch,
		natural:  newNaturalThrottle(opts.Natural, opts.Rand, sleep, tel),
		tel:      tel,
		state:    DISCONNECTED,
	}, nil
}

func (c *Client) State() State {
	return c.state
}

func (c *Client) Connected() bool {
	return c.state == CONNECTED
}

// DashboardUrl is where the last successful login landed, nil when disconnected.
func (c *Client) DashboardUrl() *url.URL {
	return c.dashboardUrl
}

func (c *Client) reset() {
	c.state = DISCONNECTED
	c.dashboardUrl = nil
	c.signOutUrl = nil
}

// fail records err on the span and in telemetry. Rejected credentials are the
// user's problem, not a broken component, so they are only a warning.
func (c *Client) fail(span trace.Span, id string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		c.tel.ReportWarning(id, err)
	} else {
		c.tel.ReportBroken(id, err)
	}
	return err
}

// Connect logs in. On any failure the client is left disconnected.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Connect")
	defer span.End()

	c.reset()

	home, err := c.fetch.Fetch(ctx, c.site.HomeUrl)
	if err != nil {
		return c.fail(span, report_client_connect, err)
	}

	c.natural.SleepIfNeeded()

	loginLinks := htmlutil.WithOwnText(home.Find(selector_login_link), text_login_link)
	if loginLinks.Length() != 1 {
		return c.fail(span, report_client_connect, siteChanged(
			"login link",
			"expected exactly one login link on %s, found %d",
			home.Location(), loginLinks.Length(),
		))
	}
	loginAnchors := htmlutil.GetAnchors(home.Location(), loginLinks)
	if len(loginAnchors) != 1 {
		return c.fail(span, report_client_connect, siteChanged(
			"login link", "login link on %s has no usable href", home.Location(),
		))
	}

	loginPage, err := c.fetch.Fetch(ctx, loginAnchors[0].Url.String())
	if err != nil {
		return c.fail(span, report_client_connect, err)
	}
	forms := loginPage.Find("form")
	if forms.Length() == 0 {
		return c.fail(span, report_client_connect, siteChanged(
			"login form", "no form on %s", loginPage.Location(),
		))
	}
	form := ParseForm(loginPage.Location(), forms.First())

	// asp.net dispatches the postback on the name of the control that was clicked
	landing, err := c.fetch.SubmitForm(ctx, form, map[string]string{
		c.site.EventTargetField: c.site.LoginButton,
		c.site.EmailField:       c.email,
		c.site.PasswordField:    c.password,
	})
	if err != nil {
		return c.fail(span, report_client_connect, err)
	}

	landingUrl := landing.Location().String()
	if strings.Contains(landingUrl, c.site.LoginPath) {
		return c.fail(span, report_client_connect, &AuthenticationError{Reason: "failed to connect"})
	}
	if !strings.Contains(landingUrl, c.site.DashboardPath) {
		return c.fail(span, report_client_connect, siteChanged(
			"login redirect", "login landed on unexpected page %s", landingUrl,
		))
	}

	signOutAnchors := htmlutil.GetAnchors(
		landing.Location(),
		htmlutil.WithOwnText(landing.Find(selector_sign_out_link), text_sign_out_link),
	)
	if len(signOutAnchors) == 0 {
		return c.fail(span, report_client_connect, siteChanged(
			"sign out link", "no sign out link on %s", landingUrl,
		))
	}

	c.dashboardUrl = landing.Location()
	c.signOutUrl = signOutAnchors[0].Url
	c.state = CONNECTED

	c.tel.ReportDebug("connected", landingUrl)
	return nil
}

// Disconnect signs out. It does nothing when the client is not connected. A
// failed sign out still leaves the client disconnected since the session can
// no longer be trusted.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.state != CONNECTED {
		return nil
	}

	ctx, span := tracer.Start(ctx, "client:Disconnect")
	defer span.End()

	signOutUrl := c.signOutUrl.String()
	defer c.reset()

	page, err := c.fetch.Fetch(ctx, signOutUrl)
	if err != nil {
		return c.fail(span, report_client_disconnect, err)
	}
	if !strings.Contains(page.Location().String(), c.site.LoginPath) {
		return c.fail(span, report_client_disconnect, siteChanged(
			"sign out", "failed to sign out, landed on %s", page.Location(),
		))
	}

	c.tel.ReportDebug("disconnected")
	return nil
}

// ensureConnected logs in lazily. An already connected client is trusted as is.
func (c *Client) ensureConnected(ctx context.Context) error {
	if c.state == CONNECTED {
		return nil
	}
	return c.Connect(ctx)
}

// fetchInSession fetches link on behalf of a connected client. Landing on the
// login page means the session expired, the client then becomes disconnected
// but does not log in again by itself.
func (c *Client) fetchInSession(ctx context.Context, link string) (Document, error) {
	doc, err := c.fetch.Fetch(ctx, link)
	if err != nil {
		return Document{}, err
	}
	if strings.Contains(doc.Location().String(), c.site.LoginPath) {
		c.reset()
		return Document{}, &SessionExpiredError{Url: link}
	}
	return doc, nil
}
