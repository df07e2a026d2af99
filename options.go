package xrtc

import (
	"errors"
	"log/slog"
	"time"

	"github.com/xrtc-org/xrtc-go/internal/poller"
)

// sessionConfig holds mutable state during session construction.
type sessionConfig struct {
	accountID       string
	apiKey          string
	credentialsFile string

	loginURL string
	setURL   string
	getURL   string

	dialTimeout    time.Duration
	requestTimeout time.Duration // zero selects the variant default
	maxBodyBytes   int
	watchBackoff   time.Duration
	maxInflight    int
	useHTTP2       bool

	logger *slog.Logger
}

// newSessionConfig returns the defaults every session starts from.
func newSessionConfig() *sessionConfig {
	return &sessionConfig{
		dialTimeout:  defaultDialTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		watchBackoff: poller.DefaultBackoff,
		maxInflight:  defaultMaxInflight,
	}
}

// Option is a function that configures a session during construction.
//
// Pass any number of options to [Open] or [OpenConcurrent]; construction
// fails on the first option whose validation rejects its value, and on
// none otherwise. The zero-option call is fully usable, resolving
// everything from files, the environment, and defaults.
type Option func(*sessionConfig) error

// WithCredentials supplies the account id and API key explicitly.
//
// Explicit values take precedence over the credentials file and the
// environment. Either argument may be left empty to have that field
// resolved from the lower-priority sources; see [ResolveCredentials].
//
// Example:
//
//	sess, err := xrtc.Open(ctx,
//	    xrtc.WithCredentials("acme-prod", "k-52ba0c0..."),
//	)
func WithCredentials(accountID, apiKey string) Option {
	return func(cfg *sessionConfig) error {
		cfg.accountID = accountID
		cfg.apiKey = apiKey
		return nil
	}
}

// WithCredentialsFile names the KEY=VALUE file credentials are read
// from. Unlike the default xrtc.env, a file named here must exist.
//
// The file may also carry LOGIN_URL, SET_URL, and GET_URL overrides.
//
// Returns an error if the path is empty.
func WithCredentialsFile(path string) Option {
	return func(cfg *sessionConfig) error {
		if path == "" {
			return errors.New("credentials file path cannot be empty")
		}
		cfg.credentialsFile = path
		return nil
	}
}

// WithLoginURL overrides the login endpoint.
//
// Returns an error if the URL is not an absolute http or https URL.
func WithLoginURL(rawURL string) Option {
	return func(cfg *sessionConfig) error {
		if err := validateEndpointURL(rawURL); err != nil {
			return err
		}
		cfg.loginURL = rawURL
		return nil
	}
}

// WithSetURL overrides the item submission endpoint.
//
// Returns an error if the URL is not an absolute http or https URL.
func WithSetURL(rawURL string) Option {
	return func(cfg *sessionConfig) error {
		if err := validateEndpointURL(rawURL); err != nil {
			return err
		}
		cfg.setURL = rawURL
		return nil
	}
}

// WithGetURL overrides the item retrieval endpoint.
//
// Returns an error if the URL is not an absolute http or https URL.
func WithGetURL(rawURL string) Option {
	return func(cfg *sessionConfig) error {
		if err := validateEndpointURL(rawURL); err != nil {
			return err
		}
		cfg.getURL = rawURL
		return nil
	}
}

// WithRequestTimeout bounds every wire round trip, including each
// individual polling round of a watch or stream. A round trip that
// exceeds it fails with a [TransportError]; timeouts never trigger a
// silent retry.
//
// Defaults to 10 seconds on [Open] and 20 seconds on [OpenConcurrent].
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *sessionConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithWatchBackoff sets the wait between polling rounds that produced
// no items, in watch and stream modes. Defaults to 250ms.
//
// Returns an error if the duration is zero or negative.
func WithWatchBackoff(d time.Duration) Option {
	return func(cfg *sessionConfig) error {
		if d <= 0 {
			return errors.New("watch backoff must be positive")
		}
		cfg.watchBackoff = d
		return nil
	}
}

// WithMaxBodyBytes overrides the serialized body size limit applied to
// outgoing requests and incoming responses. Defaults to
// [DefaultMaxBodyBytes].
//
// Returns an error if the limit is zero or negative.
func WithMaxBodyBytes(n int) Option {
	return func(cfg *sessionConfig) error {
		if n <= 0 {
			return errors.New("max body bytes must be positive")
		}
		cfg.maxBodyBytes = n
		return nil
	}
}

// WithMaxInflight caps the number of simultaneous round trips a
// [ConcurrentSession] issues. Defaults to 6. Has no effect on the
// blocking [Session], which runs one round trip at a time by nature.
//
// Returns an error if the value is zero or negative.
func WithMaxInflight(n int) Option {
	return func(cfg *sessionConfig) error {
		if n <= 0 {
			return errors.New("max inflight must be positive")
		}
		cfg.maxInflight = n
		return nil
	}
}

// WithLogger sets the [slog.Logger] the session logs through: polling
// rounds at debug level, failed round trips at warn. Without this
// option the session uses [slog.Default].
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sessionConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHTTP2 switches the session's transport to HTTP/2 over TLS.
// Only meaningful against https endpoints.
func WithHTTP2() Option {
	return func(cfg *sessionConfig) error {
		cfg.useHTTP2 = true
		return nil
	}
}
