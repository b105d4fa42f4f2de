package ratesetter

import (
	"fmt"
)

// AuthenticationError means the site rejected the credentials.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("ratesetter: authentication failed: %s", e.Reason)
}

// SessionExpiredError means a page that needs a logged in session redirected to
// the login page while the client believed it was connected.
type SessionExpiredError struct {
	Url string
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("ratesetter: session expired while fetching %s", e.Url)
}

// SiteChangedError means an assumption about the markup or routing of the site
// no longer holds. Retrying will not help.
type SiteChangedError struct {
	Component string
	Reason    string
}

func (e *SiteChangedError) Error() string {
	return fmt.Sprintf("ratesetter: site has changed (%s): %s", e.Component, e.Reason)
}

func siteChanged(component, format string, args ...any) *SiteChangedError {
	return &SiteChangedError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// NetworkError wraps a transport failure, it is never retried internally.
type NetworkError struct {
	Url string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("ratesetter: request to %s failed: %s", e.Url, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError means a page or one of its figures could not be parsed. Field is
// empty when the whole page failed to parse.
type ParseError struct {
	Url   string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ratesetter: parse %s: %s", e.Url, e.Err)
	}
	return fmt.Sprintf("ratesetter: parse %s on %s: %s", e.Field, e.Url, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
