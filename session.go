package xrtc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xrtc-org/xrtc-go/internal/poller"
)

// operation names carried in [TransportError.Op] and logs
const (
	opLogin = "login"
	opSet   = "set"
	opGet   = "get"
)

// Session is the blocking variant of an item-exchange session.
//
// A Session owns one authenticated connection to the service: [Open]
// performs the login round trip, and every subsequent operation rides
// the resulting session cookie. Operations occupy the calling goroutine
// until their round trip completes; a watch or stream get occupies it
// for the current round on each pull.
//
// The typical lifecycle is:
//
//	sess, err := xrtc.Open(ctx)
//	if err != nil {
//	    slog.Error("failed to open session", "error", err)
//	    os.Exit(1)
//	}
//	defer sess.Close()
//
//	err = sess.SetItems(ctx, []xrtc.Item{{PortalID: "telemetry", Payload: `{"t":1}`}})
//
// A Session is not safe for concurrent use by multiple goroutines. Its
// internal state is synchronized, so concurrent misuse cannot corrupt
// memory, but the results of interleaved operations are unspecified.
// Use one Session per goroutine, or a [ConcurrentSession].
type Session struct {
	creds Credentials

	loginURL string
	setURL   string
	getURL   string

	requestTimeout time.Duration
	maxBodyBytes   int
	watchBackoff   time.Duration

	httpClient *http.Client
	logger     *slog.Logger

	loginTime time.Time

	mu     sync.Mutex
	closed bool
}

// Open resolves credentials, performs the login round trip, and returns
// an authenticated [Session].
//
// Credentials resolve per field from explicit options, the credentials
// file, then the environment; see [ResolveCredentials]. Endpoint URLs
// resolve the same way, falling back to the production defaults.
//
// Returns [ErrMissingCredentials] (wrapped configuration errors for an
// unreadable file or invalid URL), a [TransportError] if the login
// round trip fails, or a [DecodeError] if its response is unreadable.
//
// Example:
//
//	sess, err := xrtc.Open(ctx,
//	    xrtc.WithCredentialsFile("prod.env"),
//	    xrtc.WithRequestTimeout(5*time.Second),
//	)
func Open(ctx context.Context, opts ...Option) (*Session, error) {
	sess, _, err := openSession(ctx, opts, defaultRequestTimeout)
	return sess, err
}

// openSession is the shared constructor behind [Open] and
// [OpenConcurrent]. The variants differ only in their request timeout
// default and in what wraps the returned session.
func openSession(ctx context.Context, opts []Option, timeoutDefault time.Duration) (*Session, *sessionConfig, error) {
	cfg := newSessionConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	fileVars, err := readCredentialFile(cfg.credentialsFile)
	if err != nil {
		return nil, nil, err
	}
	creds, err := resolveCredentials(cfg.accountID, cfg.apiKey, fileVars)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.resolveURLs(fileVars); err != nil {
		return nil, nil, err
	}
	if cfg.requestTimeout == 0 {
		cfg.requestTimeout = timeoutDefault
	}

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	sess := &Session{
		creds:          creds,
		loginURL:       cfg.loginURL,
		setURL:         cfg.setURL,
		getURL:         cfg.getURL,
		requestTimeout: cfg.requestTimeout,
		maxBodyBytes:   cfg.maxBodyBytes,
		watchBackoff:   cfg.watchBackoff,
		httpClient:     httpClient,
		logger:         logger,
	}

	if err := sess.login(ctx); err != nil {
		httpClient.CloseIdleConnections()
		return nil, nil, err
	}
	return sess, cfg, nil
}

// login performs the authentication round trip. The service's session
// cookie lands in the client's jar; the response timestamp is retained
// for [Session.LoginTime].
func (s *Session) login(ctx context.Context) error {
	body, err := encodeLoginRequest(s.creds)
	if err != nil {
		return err
	}

	respBody, err := s.post(ctx, opLogin, s.loginURL, body)
	if err != nil {
		return err
	}

	resp, err := decodeLoginResponse(respBody, s.maxBodyBytes, s.loginURL)
	if err != nil {
		return err
	}

	s.loginTime = time.UnixMilli(resp.ServerTimestamp)
	s.logger.Debug("session established",
		"account_id", s.creds.AccountID(),
		"server_time", s.loginTime,
	)
	return nil
}

// LoginTime returns the service clock at the moment the session was
// established, taken from the login response. Useful for estimating
// the skew between the local clock and item timestamps.
func (s *Session) LoginTime() time.Time {
	return s.loginTime
}

// SetItems submits a batch of items in one round trip.
//
// The batch is ordered and atomic: the whole batch is accepted or the
// call fails. Every call performs exactly one round trip; there is no
// automatic batching across calls. Items carry PortalID and Payload;
// ServerTimestamp is assigned by the service and ignored here.
//
// Returns a [ValidationError] before any network activity for an empty
// batch, a missing portal id, or a serialized body over the size limit;
// a [TransportError] for HTTP and network failures; [ErrSessionClosed]
// after Close.
func (s *Session) SetItems(ctx context.Context, items []Item) error {
	if err := s.active(); err != nil {
		return err
	}

	body, err := encodeSetRequest(items, s.maxBodyBytes)
	if err != nil {
		return err
	}

	_, err = s.post(ctx, opSet, s.setURL, body)
	return err
}

// GetItems polls the given portals and returns a lazy item sequence.
//
// The sequence performs no network activity until pulled, and each pull
// performs at most one round trip. Batches flatten in server-response
// order. Ceasing to pull, at any point, stops all further requests;
// breaking out of the range loop is the cancellation signal.
//
// The mode set by [WithMode] decides when the sequence ends:
//
//   - [ModeProbe] (default): one round trip, then the sequence ends.
//     An empty result is a normal outcome, not an error.
//   - [ModeWatch]: rounds repeat, waiting [WithWatchBackoff] between
//     empty ones, until at least one item survives the cutoff filter.
//   - [ModeStream]: rounds repeat until the consumer stops pulling.
//     Every call starts a fresh loop.
//
// [WithCutoff] discards items whose age exceeds the given duration.
// Expiry does not end a watch or stream; filtered batches count as
// empty and polling continues.
//
// Errors are yielded in-band as the second range value: a failed call
// yields its error once and the sequence ends. A sequence never yields
// items after an error.
//
// Example:
//
//	portals := []xrtc.Portal{{ID: "telemetry"}}
//	for item, err := range sess.GetItems(ctx, portals,
//	    xrtc.WithMode(xrtc.ModeWatch),
//	    xrtc.WithCutoff(500*time.Millisecond),
//	) {
//	    if err != nil {
//	        return err
//	    }
//	    process(item)
//	}
func (s *Session) GetItems(ctx context.Context, portals []Portal, opts ...GetOption) iter.Seq2[Item, error] {
	cfg, round, err := s.buildGetRound(portals, opts)
	if err != nil {
		return errSeq(err)
	}
	return convertSeq(poller.Seq(ctx, round, cfg))
}

// buildGetRound validates a get call and assembles the poller
// configuration plus the single-round function that drives it. The
// request body is encoded once and reused across rounds.
func (s *Session) buildGetRound(portals []Portal, opts []GetOption) (poller.Config, poller.RoundFunc, error) {
	cfg := newGetConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return poller.Config{}, nil, err
		}
	}

	body, err := encodeGetRequest(portals, cfg.schedule, s.maxBodyBytes)
	if err != nil {
		return poller.Config{}, nil, err
	}

	round := func(ctx context.Context) ([]poller.Item, error) {
		if err := s.active(); err != nil {
			return nil, err
		}
		respBody, err := s.post(ctx, opGet, s.getURL, body)
		if err != nil {
			return nil, err
		}
		items, err := decodeItems(respBody, s.maxBodyBytes, s.getURL)
		if err != nil {
			return nil, err
		}
		return itemsToPoller(items), nil
	}

	return poller.Config{
		Mode:    cfg.mode.pollerMode(),
		Cutoff:  cfg.cutoff,
		Backoff: s.watchBackoff,
	}, round, nil
}

// Close releases the session's connections. Close is idempotent; any
// operation after the first Close fails with [ErrSessionClosed].
// In-flight blocking operations are not interrupted.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.httpClient.CloseIdleConnections()
	s.logger.Debug("session closed")
	return nil
}

// active returns ErrSessionClosed once Close has run.
func (s *Session) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// post performs one JSON round trip under the per-request timeout and
// maps failures onto the error taxonomy. Every request carries a fresh
// X-Request-Id for correlation with server-side logs.
func (s *Session) post(ctx context.Context, op, targetURL string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: op, URL: targetURL, RequestID: requestID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("request failed",
			"op", op,
			"url", targetURL,
			"request_id", requestID,
			"error", err,
		)
		return nil, &TransportError{Op: op, URL: targetURL, RequestID: requestID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// read one byte past the limit so decoders can detect oversize bodies
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, int64(s.maxBodyBytes)+1))
	if err != nil {
		s.logger.Warn("response read failed",
			"op", op,
			"url", targetURL,
			"request_id", requestID,
			"error", err,
		)
		return nil, &TransportError{Op: op, URL: targetURL, StatusCode: resp.StatusCode, RequestID: requestID, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var cause error
		if apiErr := decodeAPIError(respBody); apiErr != nil {
			cause = apiErr
		} else {
			cause = errors.New(resp.Status)
		}
		s.logger.Warn("request rejected",
			"op", op,
			"url", targetURL,
			"request_id", requestID,
			"status", resp.StatusCode,
			"error", cause,
		)
		return nil, &TransportError{Op: op, URL: targetURL, StatusCode: resp.StatusCode, RequestID: requestID, Err: cause}
	}

	s.logger.Debug("request completed",
		"op", op,
		"url", targetURL,
		"request_id", requestID,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return respBody, nil
}

// pollerMode converts the public mode to the poller-internal one.
func (m Mode) pollerMode() poller.Mode {
	switch m {
	case ModeWatch:
		return poller.Watch
	case ModeStream:
		return poller.Stream
	default:
		return poller.Probe
	}
}

// itemsToPoller converts received items to the poller-internal type.
func itemsToPoller(items []Item) []poller.Item {
	converted := make([]poller.Item, len(items))
	for i, item := range items {
		converted[i] = poller.Item{
			PortalID:        item.PortalID,
			Payload:         item.Payload,
			ServerTimestamp: item.ServerTimestamp,
		}
	}
	return converted
}

// itemFromPoller converts a poller-internal item to the public type.
func itemFromPoller(item poller.Item) Item {
	return Item{
		PortalID:        item.PortalID,
		Payload:         item.Payload,
		ServerTimestamp: item.ServerTimestamp,
	}
}

// convertSeq adapts a poller sequence to the public item type.
func convertSeq(seq iter.Seq2[poller.Item, error]) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for item, err := range seq {
			if !yield(itemFromPoller(item), err) {
				return
			}
		}
	}
}

// errSeq returns a sequence that yields a single error.
func errSeq(err error) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		yield(Item{}, err)
	}
}
