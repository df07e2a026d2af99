// Package config provides YAML configuration parsing for xrtc clients.
//
// This package enables running the xrtc command-line tool with a
// configuration file, as an alternative to flags or the programmatic
// SDK approach.
//
// Example configuration:
//
//	credentials_file: prod.env
//	api_key: ${XRTC_API_KEY}
//
//	request_timeout: 5s
//	watch_backoff: 250ms
//
//	portals: [telemetry, alerts]
//	mode: watch
//	cutoff: 500ms
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minWatchBackoff is the minimum allowed backoff between polling rounds.
// This prevents accidental hammering of the service from a config typo.
const minWatchBackoff = 10 * time.Millisecond

// Config is the root configuration for an xrtc client, mirroring the
// YAML file field for field. Obtain one with [Load] or [Parse].
type Config struct {
	// AccountID is the account identifier. Overrides the credentials
	// file and the environment. This and the other credential and URL
	// fields accept ${VAR} and ${VAR:-default} references.
	AccountID string `yaml:"account_id"`

	// APIKey is the API key paired with AccountID.
	APIKey string `yaml:"api_key"`

	// CredentialsFile is a KEY=VALUE file to resolve credentials from.
	CredentialsFile string `yaml:"credentials_file"`

	// LoginURL overrides the login endpoint.
	LoginURL string `yaml:"login_url"`

	// SetURL overrides the item submission endpoint.
	SetURL string `yaml:"set_url"`

	// GetURL overrides the item retrieval endpoint.
	GetURL string `yaml:"get_url"`

	// RequestTimeout bounds every wire round trip, given as a Go
	// duration string ("5s", "500ms"). When omitted, the session
	// variant's default applies.
	RequestTimeout Duration `yaml:"request_timeout"`

	// WatchBackoff is the wait between empty polling rounds in watch and
	// stream modes. Must be at least 10ms. Defaults to 250ms.
	WatchBackoff Duration `yaml:"watch_backoff"`

	// MaxBodyBytes overrides the serialized body size limit. Defaults to
	// the service's 4096-byte cap.
	MaxBodyBytes int `yaml:"max_body_bytes"`

	// MaxInflight caps simultaneous round trips for concurrent sessions.
	// Defaults to 6.
	MaxInflight int `yaml:"max_inflight"`

	// HTTP2 switches the transport to HTTP/2 over TLS.
	HTTP2 bool `yaml:"http2"`

	// Portals are the portal ids a get command polls.
	Portals []string `yaml:"portals"`

	// Mode is the polling mode: "probe", "watch", or "stream".
	// Defaults to "probe".
	Mode string `yaml:"mode"`

	// Cutoff discards received items older than this age. Zero or
	// omitted disables staleness filtering.
	Cutoff Duration `yaml:"cutoff"`

	// Schedule is the drain order: "LIFO" or "FIFO". Defaults to the
	// service's LIFO order.
	Schedule string `yaml:"schedule"`
}

// Duration is a time.Duration that unmarshals from YAML duration
// strings such as "500ms" or "1m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration unwraps the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern recognizes ${VAR} and ${VAR:-default} references.
// Capture groups: 1 the variable name, 2 the ":-default" marker,
// 3 the default value itself (may be empty, as in ${VAR:-}).
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars substitutes environment values into ${VAR} and
// ${VAR:-default} references. A reference without a default fails when
// the variable is unset; an empty value is substituted as-is.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads the YAML file at path and parses it. Environment
// references in credential and URL fields are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses raw YAML configuration and validates every field.
// The mode defaults to "probe" when the file does not set one.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Mode == "" {
		cfg.Mode = "probe"
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate substitutes environment references, then checks
// every field against its constraints.
func (c *Config) expandAndValidate() error {
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"account_id", &c.AccountID},
		{"api_key", &c.APIKey},
		{"credentials_file", &c.CredentialsFile},
		{"login_url", &c.LoginURL},
		{"set_url", &c.SetURL},
		{"get_url", &c.GetURL},
	} {
		expanded, err := expandEnvVars(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}

	for _, pair := range []struct {
		name  string
		value string
	}{
		{"login_url", c.LoginURL},
		{"set_url", c.SetURL},
		{"get_url", c.GetURL},
	} {
		if pair.value == "" {
			continue
		}
		parsed, err := url.Parse(pair.value)
		if err != nil {
			return fmt.Errorf("%s: invalid url: %w", pair.name, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s: url scheme must be http or https, got %q", pair.name, parsed.Scheme)
		}
		if parsed.Host == "" {
			return fmt.Errorf("%s: url must have a host", pair.name)
		}
	}

	if c.RequestTimeout != 0 && c.RequestTimeout.Duration() <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Duration())
	}

	if c.WatchBackoff != 0 && c.WatchBackoff.Duration() < minWatchBackoff {
		return fmt.Errorf("watch_backoff must be at least %s, got %s", minWatchBackoff, c.WatchBackoff.Duration())
	}

	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes cannot be negative, got %d", c.MaxBodyBytes)
	}

	if c.MaxInflight < 0 {
		return fmt.Errorf("max_inflight cannot be negative, got %d", c.MaxInflight)
	}

	switch c.Mode {
	case "probe", "watch", "stream":
	default:
		return fmt.Errorf("mode must be probe, watch, or stream, got %q", c.Mode)
	}

	if c.Cutoff.Duration() < 0 {
		return fmt.Errorf("cutoff cannot be negative, got %s", c.Cutoff.Duration())
	}

	switch c.Schedule {
	case "", "LIFO", "FIFO":
	default:
		return fmt.Errorf("schedule must be LIFO or FIFO, got %q", c.Schedule)
	}

	seen := make(map[string]struct{}, len(c.Portals))
	for i, id := range c.Portals {
		if id == "" {
			return fmt.Errorf("portals[%d]: id cannot be empty", i)
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("portals[%d]: duplicate portal %q", i, id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

// RequirePortals returns an error unless the config names at least one
// portal. Commands that poll call this; submission commands do not.
func (c *Config) RequirePortals() error {
	if len(c.Portals) == 0 {
		return errors.New("at least one portal must be configured")
	}
	return nil
}
