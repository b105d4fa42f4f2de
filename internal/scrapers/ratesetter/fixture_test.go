package ratesetter

import (
	"embed"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"ratesetter-client/internal/components/telemetry"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.html
var testPages embed.FS

const (
	testEmail     = "lender@example.com"
	testPassword  = "correct horse battery staple"
	testViewstate = "/wEPDwUKMTY1NDU2MTA1Mg9kFgJmD2QWAgIDD2QWAgIBD2Q="

	sessionCookie = "ASP.NET_SessionId"
	dashboardPath = "/your_lending/summary/default.aspx"
	loginPath     = "/members/login.aspx"
)

func readPage(t testing.TB, name string) string {
	contents, err := testPages.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(contents)
}

// loadDocument parses a fixture page as if it had been served from location.
func loadDocument(t testing.TB, name, location string) Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(readPage(t, name)))
	require.NoError(t, err)
	doc.Url, err = url.Parse(location)
	require.NoError(t, err)
	return Document{Document: doc}
}

// fixtureSite imitates the routing of the real site: everything answers 200,
// outcomes are signalled by where a request is redirected to.
type fixtureSite struct {
	t      testing.TB
	server *httptest.Server

	mutex     sync.Mutex
	pages     map[string]string
	sessions  map[string]bool
	requests  []string
	posted    []url.Values
	sessionNo int

	loginRedirect   string
	signOutRedirect string
}

func newFixtureSite(t testing.TB) *fixtureSite {
	f := &fixtureSite{
		t: t,
		pages: map[string]string{
			"/":                            readPage(t, "home.html"),
			loginPath:                      readPage(t, "login.html"),
			dashboardPath:                  readPage(t, "dashboard.html"),
			"/lending/market_view.aspx":    readPage(t, "market_view.html"),
			"/lending/provision_fund.aspx": readPage(t, "provision_fund.html"),
			"/members/welcome.aspx":        "<html><body><h1>Welcome</h1></body></html>",
		},
		sessions:        map[string]bool{},
		loginRedirect:   dashboardPath,
		signOutRedirect: loginPath,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixtureSite) site() *Site {
	site := DefaultSite()
	site.HomeUrl = f.server.URL + "/"
	site.MarketViewUrl = f.server.URL + "/lending/market_view.aspx"
	site.ProvisionFundUrl = f.server.URL + "/lending/provision_fund.aspx"
	return &site
}

func (f *fixtureSite) setPage(path, body string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.pages[path] = body
}

func (f *fixtureSite) editPage(path, old, replacement string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	require.Contains(f.t, f.pages[path], old)
	f.pages[path] = strings.Replace(f.pages[path], old, replacement, 1)
}

func (f *fixtureSite) expireSessions() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sessions = map[string]bool{}
}

func (f *fixtureSite) requestLog() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string{}, f.requests...)
}

func (f *fixtureSite) logins() []url.Values {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]url.Values{}, f.posted...)
}

func (f *fixtureSite) authorized(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	return err == nil && f.sessions[cookie.Value]
}

func (f *fixtureSite) serve(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.requests = append(f.requests, fmt.Sprintf("%s %s", r.Method, r.URL.Path))

	if r.Header.Get("User-Agent") != DefaultSite().UserAgent {
		http.Error(w, "unsupported browser", http.StatusForbidden)
		return
	}

	switch r.URL.Path {
	case loginPath:
		if r.Method == http.MethodPost {
			f.login(w, r)
			return
		}
		if r.URL.Query().Get("error") != "" {
			f.write(w, readPage(f.t, "login_failed.html"))
			return
		}
	case dashboardPath:
		if !f.authorized(r) {
			http.Redirect(w, r, loginPath+"?ReturnUrl=%2fyour_lending%2fsummary%2fdefault.aspx", http.StatusFound)
			return
		}
	case "/members/signout.aspx":
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			delete(f.sessions, cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", Expires: time.Unix(0, 0)})
		http.Redirect(w, r, f.signOutRedirect, http.StatusFound)
		return
	}

	page, ok := f.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	f.write(w, page)
}

func (f *fixtureSite) write(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (f *fixtureSite) login(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.posted = append(f.posted, r.PostForm)

	site := DefaultSite()
	if r.PostForm.Get(site.EventTargetField) != site.LoginButton ||
		r.PostForm.Get("__VIEWSTATE") != testViewstate ||
		r.PostForm.Get(site.EmailField) != testEmail ||
		r.PostForm.Get(site.PasswordField) != testPassword {
		http.Redirect(w, r, loginPath+"?error=1", http.StatusFound)
		return
	}

	f.sessionNo++
	session := fmt.Sprintf("session-%d", f.sessionNo)
	f.sessions[session] = true
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: session, Path: "/"})
	http.Redirect(w, r, f.loginRedirect, http.StatusFound)
}

// fakeSleep records every pause instead of sleeping, together with how many
// requests the site had seen when the pause happened.
type fakeSleep struct {
	site      *fixtureSite
	durations []time.Duration
	atRequest []int
}

func (s *fakeSleep) Sleep(d time.Duration) {
	s.durations = append(s.durations, d)
	if s.site != nil {
		s.atRequest = append(s.atRequest, len(s.site.requestLog()))
	}
}

type testClient struct {
	*Client
	tel   *telemetry.Recorder
	sleep *fakeSleep
}

func newTestClient(t testing.TB, f *fixtureSite, opts Options) testClient {
	recorder := telemetry.NewRecorder()
	sleep := &fakeSleep{site: f}

	if opts.Email == "" {
		opts.Email = testEmail
	}
	if opts.Password == "" {
		opts.Password = testPassword
	}
	if opts.Site == nil {
		opts.Site = f.site()
	}
	opts.Tel = recorder
	opts.Sleep = sleep
	opts.RequestsPerSecond = -1
	opts.Timeout = 5 * time.Second

	client, err := NewClient(opts)
	require.NoError(t, err)
	return testClient{Client: client, tel: recorder, sleep: sleep}
}
