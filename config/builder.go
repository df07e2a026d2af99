package config

import (
	"github.com/xrtc-org/xrtc-go"
)

// BuildOptions converts parsed configuration into SDK session options.
//
// Only fields the config actually sets become options, so SDK defaults
// and the credentials resolution chain stay in effect for the rest.
func BuildOptions(cfg *Config) []xrtc.Option {
	var opts []xrtc.Option

	if cfg.AccountID != "" || cfg.APIKey != "" {
		opts = append(opts, xrtc.WithCredentials(cfg.AccountID, cfg.APIKey))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, xrtc.WithCredentialsFile(cfg.CredentialsFile))
	}

	if cfg.LoginURL != "" {
		opts = append(opts, xrtc.WithLoginURL(cfg.LoginURL))
	}
	if cfg.SetURL != "" {
		opts = append(opts, xrtc.WithSetURL(cfg.SetURL))
	}
	if cfg.GetURL != "" {
		opts = append(opts, xrtc.WithGetURL(cfg.GetURL))
	}

	if cfg.RequestTimeout != 0 {
		opts = append(opts, xrtc.WithRequestTimeout(cfg.RequestTimeout.Duration()))
	}
	if cfg.WatchBackoff != 0 {
		opts = append(opts, xrtc.WithWatchBackoff(cfg.WatchBackoff.Duration()))
	}
	if cfg.MaxBodyBytes != 0 {
		opts = append(opts, xrtc.WithMaxBodyBytes(cfg.MaxBodyBytes))
	}
	if cfg.MaxInflight != 0 {
		opts = append(opts, xrtc.WithMaxInflight(cfg.MaxInflight))
	}
	if cfg.HTTP2 {
		opts = append(opts, xrtc.WithHTTP2())
	}

	return opts
}

// BuildGetOptions converts the polling fields into per-call get options.
func BuildGetOptions(cfg *Config) []xrtc.GetOption {
	var opts []xrtc.GetOption

	if cfg.Mode != "" {
		opts = append(opts, xrtc.WithMode(xrtc.Mode(cfg.Mode)))
	}
	if cfg.Cutoff != 0 {
		opts = append(opts, xrtc.WithCutoff(cfg.Cutoff.Duration()))
	}
	if cfg.Schedule != "" {
		opts = append(opts, xrtc.WithSchedule(xrtc.Schedule(cfg.Schedule)))
	}

	return opts
}

// BuildPortals converts the configured portal ids into SDK portals.
func BuildPortals(cfg *Config) []xrtc.Portal {
	portals := make([]xrtc.Portal, len(cfg.Portals))
	for i, id := range cfg.Portals {
		portals[i] = xrtc.Portal{ID: id}
	}
	return portals
}
