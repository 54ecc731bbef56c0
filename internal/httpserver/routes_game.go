// internal/httpserver/routes_game.go
//
// HTTP routes for the shared Simon Says game, mounted under /api/v1:
//   - GET  /game-state          → current level, sequence and high score
//   - PUT  /game-state          → restart at level 1 (high score kept)
//   - POST /game-state/sequence → submit a guess for the current level
//   - GET  /game-state/history  → recent rounds, newest first (?limit=N)
//   - GET  /game-state/ws       → websocket feed of state transitions
//
// Validation failures and wrong guesses both answer 400 with a message; a
// wrong guess also carries the reset game state.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/simonsays/internal/game"
	"github.com/robalobadob/simonsays/internal/store"
)

// mountGame registers all /api/v1 routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/api/v1/game-state", func(r chi.Router) {
		r.Get("/", s.handleGetState)
		r.Put("/", s.handleReset)
		r.Post("/sequence", s.handleSubmit)
		if s.opts.History != nil {
			r.Get("/history", s.handleHistory)
		}
		if s.opts.Hub != nil {
			r.Get("/ws", s.handleWS)
		}
	})
}

// -----------------------------------------------------------------------------
// GET/PUT /game-state

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.State())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st := s.game.Reset()
	writeJSON(w, http.StatusOK, messageBody{Message: "Game reset successfully", GameState: &st})
}

// -----------------------------------------------------------------------------
// POST /game-state/sequence

// submitReq keeps sequence raw so a missing field, a non-array and an
// empty array can all be told apart from a real guess.
type submitReq struct {
	Sequence json.RawMessage `json:"sequence"`
}

type submitRes struct {
	GameState game.State `json:"gameState"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var p submitReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		p.Sequence = nil
	}

	st, err := s.game.Submit(parseGuess(p.Sequence))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submitRes{GameState: st})
	case game.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, messageBody{Message: err.Error()})
	case errors.Is(err, game.ErrIncorrectSequence):
		writeJSON(w, http.StatusBadRequest, messageBody{Message: err.Error(), GameState: &st})
	default:
		internalError(w, r, err)
	}
}

// parseGuess turns the raw sequence into colors. Anything that is not a JSON
// array yields nil (rejected as missing). Non-string elements become empty
// colors, which can never match.
func parseGuess(raw json.RawMessage) []game.Color {
	var elems []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &elems) != nil {
		return nil
	}
	out := make([]game.Color, len(elems))
	for i, e := range elems {
		var c string
		if json.Unmarshal(e, &c) == nil {
			out[i] = game.Color(c)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// GET /game-state/history

type historyRes struct {
	Rounds []store.Round `json:"rounds"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.HistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, messageBody{Message: store.ErrInvalidLimit.Error()})
			return
		}
		limit = n
	}

	rounds, err := s.opts.History.Recent(r.Context(), limit)
	if errors.Is(err, store.ErrInvalidLimit) {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: err.Error()})
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	if rounds == nil {
		rounds = []store.Round{}
	}
	writeJSON(w, http.StatusOK, historyRes{Rounds: rounds})
}

// -----------------------------------------------------------------------------
// GET /game-state/ws

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	// The upgraded connection carries its own framing.
	w.Header().Del("Content-Type")
	s.opts.Hub.ServeWS(w, r, s.game)
}
