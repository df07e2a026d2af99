package xrtc

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"golang.org/x/net/http2"
)

// Service endpoints and the environment variables that override them.
// The credentials file may also carry these variables; resolution order
// is explicit option, then file, then environment, then default.
const (
	DefaultLoginURL = "https://api.xrtc.org/v1/auth/login"
	DefaultSetURL   = "https://api.xrtc.org/v1/item/set"
	DefaultGetURL   = "https://api.xrtc.org/v1/item/get"

	EnvLoginURL = "LOGIN_URL"
	EnvSetURL   = "SET_URL"
	EnvGetURL   = "GET_URL"
)

// DefaultMaxBodyBytes is the service's documented cap on serialized
// request and response bodies. Override with [WithMaxBodyBytes] if the
// service deployment announces a different cap.
const DefaultMaxBodyBytes = 4096

// Transport defaults, matching the service's published client limits.
const (
	defaultDialTimeout              = 5 * time.Second
	defaultRequestTimeout           = 10 * time.Second
	defaultConcurrentRequestTimeout = 20 * time.Second
	defaultMaxInflight              = 6
)

// connection pooling limits to keep long-running polling sessions from
// exhausting sockets
const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	maxConnsPerHost     = 10
	idleConnTimeout     = 60 * time.Second
)

// resolveURLs fills the session's endpoint URLs from, in order, explicit
// options, the credentials file, the environment, and the defaults, then
// validates the result.
func (cfg *sessionConfig) resolveURLs(fileVars map[string]string) error {
	cfg.loginURL = firstNonEmpty(cfg.loginURL, fileVars[EnvLoginURL], os.Getenv(EnvLoginURL), DefaultLoginURL)
	cfg.setURL = firstNonEmpty(cfg.setURL, fileVars[EnvSetURL], os.Getenv(EnvSetURL), DefaultSetURL)
	cfg.getURL = firstNonEmpty(cfg.getURL, fileVars[EnvGetURL], os.Getenv(EnvGetURL), DefaultGetURL)

	for _, pair := range []struct{ name, value string }{
		{"login URL", cfg.loginURL},
		{"set URL", cfg.setURL},
		{"get URL", cfg.getURL},
	} {
		if err := validateEndpointURL(pair.value); err != nil {
			return fmt.Errorf("%s %q: %w", pair.name, pair.value, err)
		}
	}
	return nil
}

// validateEndpointURL rejects URLs the transport could not meaningfully
// POST to.
func validateEndpointURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// newHTTPClient builds the session's HTTP client: a cookie jar for the
// login session cookie over a pooled transport. Timeouts are applied
// per request via context, not on the client.
func newHTTPClient(cfg *sessionConfig) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	var transport http.RoundTripper
	if cfg.useHTTP2 {
		transport = &http2.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			IdleConnTimeout: idleConnTimeout,
		}
	} else {
		transport = &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.dialTimeout,
			}).DialContext,
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			MaxConnsPerHost:     maxConnsPerHost,
			IdleConnTimeout:     idleConnTimeout,
			DisableKeepAlives:   false,
		}
	}

	return &http.Client{
		Jar:       jar,
		Transport: transport,
	}, nil
}
