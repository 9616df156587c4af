package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"puzzle-gateway/internal/leaderboard"
	"puzzle-gateway/internal/metrics"
	"puzzle-gateway/internal/puzzle"
	"puzzle-gateway/middleware/ratelimit/infra"
)

// maxBodyBytes basta para qualquer corpo da API.
const maxBodyBytes = 64 << 10

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Success: false, Error: msg})
}

// decodeBody aceita corpo vazio quando allowEmpty.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

type puzzleRequest struct {
	Type       string   `json:"type"`
	Topic      string   `json:"topic"`
	ExcludeIDs []string `json:"excludeIds"`
}

type puzzleResponse struct {
	Puzzle puzzle.Puzzle `json:"puzzle"`
	Source puzzle.Source `json:"source"`
}

func (s *Server) handlePuzzle(w http.ResponseWriter, r *http.Request) {
	var req puzzleRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, src, err := s.puzzles.Next(r.Context(), puzzle.Request{
		Type:       puzzle.Type(strings.ToLower(strings.TrimSpace(req.Type))),
		Topic:      req.Topic,
		ExcludeIDs: req.ExcludeIDs,
	})
	if err != nil {
		if errors.Is(err, puzzle.ErrInvalidType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("next puzzle failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Puzzle unavailable")
		return
	}
	writeJSON(w, http.StatusOK, puzzleResponse{Puzzle: p, Source: src})
}

type validateRequest struct {
	PuzzleID string `json:"puzzleId"`
	Answer   string `json:"answer"`
}

type validateResponse struct {
	Correct bool `json:"correct"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(w, r, &req, false); err != nil || strings.TrimSpace(req.PuzzleID) == "" {
		writeError(w, http.StatusBadRequest, "Invalid puzzleId or answer")
		return
	}

	v, err := s.puzzles.Check(r.Context(), req.PuzzleID, req.Answer)
	if err != nil {
		if errors.Is(err, puzzle.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Puzzle not found")
			return
		}
		s.logger.Error("answer check failed", zap.String("puzzle_id", req.PuzzleID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Validation failed")
		return
	}

	s.logger.Debug("answer checked",
		zap.String("puzzle_id", req.PuzzleID),
		zap.Bool("correct", v.Correct),
		zap.String("method", string(v.Method)))
	writeJSON(w, http.StatusOK, validateResponse{Correct: v.Correct})
}

// queryInt devolve 0 para parâmetro ausente ou não numérico, o que vira o default.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) handleListLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, err := s.leaderboard.List(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		if errors.Is(err, leaderboard.ErrInvalidPage) {
			writeJSON(w, http.StatusBadRequest, leaderboard.Page{Entries: []leaderboard.Entry{}})
			return
		}
		s.logger.Error("leaderboard list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type submitRequest struct {
	Name        string   `json:"name"`
	TimeSeconds *float64 `json:"time_seconds"`
}

type submitResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleSubmitLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req, false); err != nil || req.TimeSeconds == nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Invalid name or time_seconds")
		return
	}

	if _, err := s.leaderboard.Submit(r.Context(), req.Name, *req.TimeSeconds); err != nil {
		var rej *leaderboard.RejectedError
		if errors.As(err, &rej) {
			writeError(w, http.StatusBadRequest, rej.Reason)
			return
		}
		writeError(w, http.StatusInternalServerError, "Insert failed")
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true})
}

// statsReader é implementado pelos stats stores em memória e no Redis.
type statsReader interface {
	Snapshot(ctx context.Context) (infra.StatsSnapshot, error)
}

type metricsResponse struct {
	metrics.Snapshot
	RateLimit *infra.StatsSnapshot `json:"rateLimit,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	resp := metricsResponse{Snapshot: s.metrics.Snapshot()}
	if sr, ok := s.stats.(statsReader); ok {
		snap, err := sr.Snapshot(r.Context())
		if err != nil {
			s.logger.Warn("reading rate limit stats failed", zap.Error(err))
		} else {
			resp.RateLimit = &snap
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
