package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xrtc-org/xrtc-go/internal/store"
)

const (
	// sessionCookie carries the session token issued at login. The
	// client replays it through its cookie jar; the name itself is
	// opaque to the client.
	sessionCookie = "XRTCSESSION"

	// maxBodyBytes mirrors the service's serialized-body cap. Larger
	// requests are rejected with a structured error.
	maxBodyBytes = 4096

	// shutdownTimeout bounds the graceful-shutdown wait for in-flight
	// requests.
	shutdownTimeout = 5 * time.Second
)

// Error groups and codes for the structured error envelope. The real
// service's numbering is not public; these are small stable values that
// tests can assert on.
const (
	groupAuth    = 1
	groupRequest = 3

	codeBadCredentials = 5
	codeNoSession      = 6
	codeBadRequest     = 7
	codeOversize       = 8
)

// Server implements the item-exchange wire contract in memory.
//
// Server provides three endpoints:
//   - POST /v1/auth/login: credential check plus session cookie
//   - POST /v1/item/set: buffer a batch of items
//   - POST /v1/item/get: drain the requested portals
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]struct{}

	// now stamps accepted items, in milliseconds. Overridable in tests.
	now func() int64
}

// NewServer creates a new mock exchange [Server].
//
// Parameters:
//   - st: Store implementation buffering items between set and get
//   - port: TCP port to listen on
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called;
// [Server.Handler] serves the same routes without binding a port.
func NewServer(st store.Store, port int, logger *slog.Logger) *Server {
	return &Server{
		store:    st,
		port:     port,
		logger:   logger,
		sessions: make(map[string]struct{}),
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// Handler returns the route table as a plain [http.Handler], for use
// with httptest or an externally managed listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/login", s.handleLogin)
	mux.HandleFunc("/v1/item/set", s.handleSet)
	mux.HandleFunc("/v1/item/get", s.handleGet)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the
// server is listening. The server continues running until the context
// is cancelled, at which point it initiates a graceful shutdown with a
// 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// BaseContext derives all request contexts from the server
		// context, so cancellation reaches in-flight handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Request and response envelopes, matching the wire contract the client
// serializes.

type loginRequest struct {
	AccountID string `json:"accountid"`
	APIKey    string `json:"apikey"`
}

type setRequest struct {
	Items []store.Item `json:"items"`
}

type getRequest struct {
	Portals []struct {
		PortalID string `json:"portalid"`
	} `json:"portals"`
	Schedule string `json:"schedule"`
}

type getResponse struct {
	Items []store.Item `json:"items"`
}

type errorResponse struct {
	Error struct {
		Group   int    `json:"errorgroup"`
		Code    int    `json:"errorcode"`
		Message string `json:"errormessage"`
	} `json:"error"`
}

// handleLogin validates the credential pair and issues a session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest, "malformed login request")
		return
	}
	if req.AccountID == "" || req.APIKey == "" {
		s.writeError(w, http.StatusUnauthorized, groupAuth, codeBadCredentials, "invalid credentials")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = struct{}{}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})
	s.logger.Debug("login", "account", req.AccountID)
	s.writeJSON(w, map[string]int64{"servertimestamp": s.now()})
}

// handleSet stamps the submitted batch and buffers it per portal.
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(w, r) {
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req setRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest, "malformed set request")
		return
	}
	if len(req.Items) == 0 {
		s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest, "empty item batch")
		return
	}

	stamp := s.now()
	for i := range req.Items {
		if req.Items[i].PortalID == "" {
			s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest,
				fmt.Sprintf("items[%d]: empty portal id", i))
			return
		}
		req.Items[i].ServerTimestamp = stamp
	}

	s.store.Append(req.Items)
	s.logger.Debug("set", "items", len(req.Items))
	s.writeJSON(w, struct{}{})
}

// handleGet drains the requested portals and returns whatever was
// buffered, newest first unless the request asks for arrival order.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(w, r) {
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req getRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest, "malformed get request")
		return
	}
	if len(req.Portals) == 0 {
		s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest, "no portals requested")
		return
	}

	switch req.Schedule {
	case "", "LIFO", "FIFO":
	default:
		s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest,
			fmt.Sprintf("unknown schedule %q", req.Schedule))
		return
	}

	ids := make([]string, 0, len(req.Portals))
	for i, p := range req.Portals {
		if p.PortalID == "" {
			s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest,
				fmt.Sprintf("portals[%d]: empty portal id", i))
			return
		}
		ids = append(ids, p.PortalID)
	}

	items := s.store.Drain(ids, req.Schedule != "FIFO")
	s.logger.Debug("get", "portals", len(ids), "items", len(items))
	s.writeJSON(w, getResponse{Items: items})
}

// authorized checks the session cookie minted at login. Missing or
// unknown tokens are rejected with the service's 401 envelope.
func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		s.writeError(w, http.StatusUnauthorized, groupAuth, codeNoSession, "no session")
		return false
	}

	s.mu.Lock()
	_, known := s.sessions[cookie.Value]
	s.mu.Unlock()

	if !known {
		s.writeError(w, http.StatusUnauthorized, groupAuth, codeNoSession, "unknown session")
		return false
	}
	return true
}

// readBody reads a request body under the service's size cap. On
// failure it writes the error response and reports false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, groupRequest, codeBadRequest, "unreadable request body")
		return nil, false
	}
	if len(body) > maxBodyBytes {
		s.writeError(w, http.StatusBadRequest, groupRequest, codeOversize,
			fmt.Sprintf("request body over %d bytes", maxBodyBytes))
		return nil, false
	}
	return body, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError emits the service's structured error envelope.
func (s *Server) writeError(w http.ResponseWriter, status, group, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var resp errorResponse
	resp.Error.Group = group
	resp.Error.Code = code
	resp.Error.Message = msg
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode error response", "error", err)
	}
}
