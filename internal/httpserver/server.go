// internal/httpserver/server.go
//
// HTTP server wiring for the Simon Says backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, metrics,
//     timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Game endpoints under /api/v1 (see routes_game.go).
//   - MCP JSON-RPC endpoint: POST /mcp.
//
// Notes:
//   - CORS allows any origin; there is no authentication.
//   - Unknown routes and unsupported methods both answer a JSON 404.
//   - Unexpected errors are logged with the request id and hidden behind a
//     generic 500 body.

package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/simonsays/internal/game"
	"github.com/robalobadob/simonsays/internal/mcptools"
	"github.com/robalobadob/simonsays/internal/metrics"
	"github.com/robalobadob/simonsays/internal/realtime"
	"github.com/robalobadob/simonsays/internal/store"
)

const (
	defaultHistoryLimit   = 20
	defaultRequestTimeout = 10 * time.Second
	maxBodyBytes          = 1 << 20
)

// Options carries the optional collaborators. Nil fields disable the
// corresponding endpoints.
type Options struct {
	History        store.Store
	Hub            *realtime.Hub
	Metrics        *metrics.Metrics
	MCP            *mcptools.Tools
	HistoryLimit   int           // default page size for /history
	RequestTimeout time.Duration // per-request context deadline
}

// Server bundles the router and the shared game.
type Server struct {
	r    *chi.Mux
	game *game.Game
	opts Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(g *game.Game, opts Options) *Server {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	s := &Server{r: chi.NewRouter(), game: g, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)               // add X-Request-ID
	s.r.Use(chimw.RealIP)                  // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))   // request-scoped logger
	s.r.Use(hlog.AccessHandler(accessLog)) // one line per request
	s.r.Use(recoverer)                     // panics -> JSON 500
	if opts.Metrics != nil {
		s.r.Use(opts.Metrics.Instrument)
	}
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                    // default JSON responses
	s.r.Use(corsAnyOrigin)

	// Unknown routes and unsupported methods look the same to clients.
	s.r.NotFound(notFound)
	s.r.MethodNotAllowed(notFound)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "simon-says",
			"endpoints": []string{
				"GET /api/v1/game-state",
				"PUT /api/v1/game-state",
				"POST /api/v1/game-state/sequence",
				"GET /api/v1/game-state/history",
				"GET /api/v1/game-state/ws",
				"POST /mcp",
				"/health",
				"/metrics",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	if opts.Metrics != nil {
		s.r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	s.mountGame(s.r)

	if opts.MCP != nil {
		s.r.Post("/mcp", s.handleMCP)
	}

	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.r }

// handleMCP forwards one JSON-RPC message to the MCP tool server.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: "Failed to read request"})
		return
	}
	out, err := s.opts.MCP.HandleMessage(r.Context(), body)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if out == nil {
		w.Header().Del("Content-Type")
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// ------------------------------ responses ----------------------------------

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message   string      `json:"message"`
	GameState *game.State `json:"gameState,omitempty"`
}

// writeJSON encodes v with the given status. Content-Type is set by middleware.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Resource not found"})
}

// internalError logs err against the request and answers a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).
		Str("reqId", chimw.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}
