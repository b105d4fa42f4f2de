package ratesetter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"ratesetter-client/internal/components/telemetry"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_fetch       = "fetcher.fetch"
	report_fetcher_submit_form = "fetcher.submit-form"

	maxRedirects = 10
)

// Document is a parsed page together with the url it was finally served from.
type Document struct {
	*goquery.Document
}

// Location is the url the page was served from after following redirects.
func (d Document) Location() *url.URL {
	return d.Url
}

// Form is what a browser would submit for an html form: its resolved action,
// its method and its successful controls in document order.
type Form struct {
	Action *url.URL
	Method string
	Fields []FormField
}

type FormField struct {
	Name  string
	Value string
}

// ParseForm reads the controls of the form element in sel. base resolves a
// relative (or empty) action.
func ParseForm(base *url.URL, sel *goquery.Selection) Form {
	action, err := url.Parse(strings.TrimSpace(sel.AttrOr("action", "")))
	if err != nil || action.String() == "" {
		action = &url.URL{}
	}
	if base != nil {
		action = base.ResolveReference(action)
	}

	method := strings.ToUpper(strings.TrimSpace(sel.AttrOr("method", "")))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	form := Form{Action: action, Method: method}
	sel.Find("input, select, textarea").Each(func(_ int, control *goquery.Selection) {
		name, ok := control.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := control.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(control) {
		case "textarea":
			form.Fields = append(form.Fields, FormField{Name: name, Value: control.Text()})
		case "select":
			options := control.Find("option[selected]")
			if options.Length() == 0 {
				if _, multiple := control.Attr("multiple"); multiple {
					return
				}
				options = control.Find("option").First()
			}
			options.Each(func(_ int, option *goquery.Selection) {
				value, ok := option.Attr("value")
				if !ok {
					value = strings.TrimSpace(option.Text())
				}
				form.Fields = append(form.Fields, FormField{Name: name, Value: value})
			})
		default:
			inputType := strings.ToLower(control.AttrOr("type", "text"))
			switch inputType {
			case "submit", "image", "reset", "button", "file":
				return
			case "checkbox", "radio":
				if _, checked := control.Attr("checked"); !checked {
					return
				}
				form.Fields = append(form.Fields, FormField{Name: name, Value: control.AttrOr("value", "on")})
			default:
				form.Fields = append(form.Fields, FormField{Name: name, Value: control.AttrOr("value", "")})
			}
		}
	})

	return form
}

// Values returns the encoded form with overrides applied, an override replaces
// every existing value of its field and fields the form lacks are added.
func (f Form) Values(overrides map[string]string) url.Values {
	values := url.Values{}
	for _, field := range f.Fields {
		if _, overridden := overrides[field.Name]; overridden {
			continue
		}
		values.Add(field.Name, field.Value)
	}
	for name, value := range overrides {
		values.Set(name, value)
	}
	return values
}

type fetcherOptions struct {
	site              Site
	timeout           time.Duration
	requestsPerSecond float64
	cloudflareBypass  bool
	messageOutput     telemetry.MessageOutput
}

// fetcher turns urls and forms into parsed documents over a single cookie jar.
type fetcher struct {
	http *resty.Client
	tel  telemetry.API
}

func newFetcher(opts fetcherOptions, tel telemetry.API) (fetcher, error) {
	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fetcher{}, err
	}
	httpClient.SetCookieJar(jar)
	if opts.cloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", opts.site.UserAgent)
	httpClient.SetRedirectPolicy(redirectPolicy())
	httpClient.SetTimeout(opts.timeout)

	if opts.requestsPerSecond > 0 {
		// max burst >= 2 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.requestsPerSecond), 2)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.messageOutput)

	return fetcher{http: httpClient, tel: tel}, nil
}

// redirectPolicy follows at most maxRedirects redirects wherever they lead,
// callers classify the page by the URL they end up at.
func redirectPolicy() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	})
}

// Fetch gets link and parses the page it ends up at.
func (f fetcher) Fetch(ctx context.Context, link string) (Document, error) {
	f.tel.ReportDebug(report_fetcher_fetch, link)

	res, err := f.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return Document{}, transportError(ctx, link, err)
	}
	return f.document(res, link)
}

// SubmitForm submits form the way a browser would, with overrides applied to
// its fields, and parses the page the submission ends up at.
func (f fetcher) SubmitForm(ctx context.Context, form Form, overrides map[string]string) (Document, error) {
	if form.Action == nil || !form.Action.IsAbs() {
		return Document{}, errors.New("cannot submit, form has no absolute action")
	}
	link := form.Action.String()
	f.tel.ReportDebug(report_fetcher_submit_form, form.Method, link)

	values := form.Values(overrides)
	req := f.http.R().SetContext(ctx)

	var res *resty.Response
	var err error
	if form.Method == http.MethodPost {
		res, err = req.SetFormDataFromValues(values).Post(link)
	} else {
		res, err = req.SetQueryParamsFromValues(values).Get(link)
	}
	if err != nil {
		return Document{}, transportError(ctx, link, err)
	}
	return f.document(res, link)
}

// transportError wraps err in a NetworkError unless it comes from ctx being
// cancelled or timing out, which is returned as is.
func transportError(ctx context.Context, link string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	return &NetworkError{Url: link, Err: err}
}

func (f fetcher) document(res *resty.Response, link string) (Document, error) {
	location, err := url.Parse(link)
	if err != nil {
		return Document{}, &ParseError{Url: link, Err: err}
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		location = res.RawResponse.Request.URL
	}

	root, err := html.Parse(bytes.NewReader(res.Body()))
	if err != nil {
		return Document{}, &ParseError{Url: location.String(), Err: err}
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Url = location

	return Document{Document: doc}, nil
}
