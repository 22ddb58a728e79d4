package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/imgstack/internal/journal"
	"git.home.luguber.info/inful/imgstack/internal/logfields"
	"git.home.luguber.info/inful/imgstack/internal/metrics"
	"git.home.luguber.info/inful/imgstack/internal/stack"
	"git.home.luguber.info/inful/imgstack/internal/vault"
	"git.home.luguber.info/inful/imgstack/internal/version"
)

// transformRequest is the IPC payload posted by the editor plugin when the
// user triggers stack/unstack on a hovered image.
type transformRequest struct {
	// File is the vault-relative note path when the plugin knows it; empty
	// means "find the owning note from the reference".
	File string `json:"file,omitempty"`

	Locator    string   `json:"locator"`
	Classes    []string `json:"classes,omitempty"`
	FileSource string   `json:"fileSource,omitempty"`
	Indent     string   `json:"indent,omitempty"`
}

type transformResponse struct {
	RequestID string `json:"requestId"`
	File      string `json:"file"`
	Changed   bool   `json:"changed"`
}

type errorResponse struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

// Server exposes the plugin IPC endpoints plus health, metrics and journal.
type Server struct {
	vault    *vault.Vault
	mode     stack.Mode
	journal  *journal.Store
	recorder metrics.Recorder
	registry *prom.Registry
}

func NewServer(v *vault.Vault, mode stack.Mode, jnl *journal.Store, rec metrics.Recorder, reg *prom.Registry) *Server {
	return &Server{vault: v, mode: mode, journal: jnl, recorder: rec, registry: reg}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/stack", s.handleTransform(stack.OpStack))
	mux.HandleFunc("POST /v1/unstack", s.handleTransform(stack.OpUnstack))
	mux.HandleFunc("GET /v1/journal", s.handleJournal)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) handleTransform(op stack.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		started := time.Now()

		var req transformRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, requestID, op, http.StatusBadRequest, err, started)
			return
		}
		ref := stack.TargetRef{
			Locator:    req.Locator,
			Classes:    req.Classes,
			FileSource: req.FileSource,
			Indent:     req.Indent,
		}

		file, changed, err := s.apply(r.Context(), op, req.File, ref)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, stack.ErrUnresolvable):
				status = http.StatusUnprocessableEntity
			case errors.Is(err, vault.ErrNoOwner):
				status = http.StatusNotFound
			}
			s.fail(w, requestID, op, status, err, started)
			return
		}

		result := metrics.ResultNoop
		if changed {
			result = metrics.ResultApplied
		}
		s.recorder.ObserveTransform(string(op), result, time.Since(started))
		slog.Info("Transform handled",
			logfields.RequestID(requestID),
			logfields.Op(string(op)),
			logfields.File(file),
			slog.Bool("changed", changed),
			logfields.DurationMS(float64(time.Since(started).Milliseconds())))

		writeJSON(w, http.StatusOK, transformResponse{RequestID: requestID, File: file, Changed: changed})
	}
}

// apply resolves the owning note (when not named by the request) and runs the
// transform inside the vault's read-modify-write primitive.
func (s *Server) apply(ctx context.Context, op stack.Op, file string, ref stack.TargetRef) (string, bool, error) {
	// Resolve the key up front so an unresolvable reference fails before any
	// owner lookup or file access.
	key, err := stack.SearchKey(ref)
	if err != nil {
		return "", false, err
	}

	if file == "" {
		file, err = s.vault.FindOwner(ctx, key)
		if err != nil {
			return "", false, err
		}
	}

	changed := false
	var beforeSHA, afterSHA string
	err = s.vault.Process(ctx, file, func(current string) (string, error) {
		next, didChange, applyErr := stack.Apply(current, op, ref, s.mode)
		if applyErr != nil {
			return "", applyErr
		}
		changed = didChange
		beforeSHA = journal.SHA(current)
		afterSHA = journal.SHA(next)
		return next, nil
	})
	if err != nil {
		return file, false, err
	}

	if changed && s.journal != nil {
		if jErr := s.journal.Record(ctx, journal.Entry{
			File:      file,
			Op:        string(op),
			SearchKey: key,
			BeforeSHA: beforeSHA,
			AfterSHA:  afterSHA,
		}); jErr != nil {
			slog.Warn("Failed to journal transform", logfields.File(file), logfields.Error(jErr))
		}
	}
	return file, changed, nil
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "journal disabled"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
}

func (s *Server) fail(w http.ResponseWriter, requestID string, op stack.Op, status int, err error, started time.Time) {
	s.recorder.ObserveTransform(string(op), metrics.ResultError, time.Since(started))
	slog.Warn("Transform failed",
		logfields.RequestID(requestID),
		logfields.Op(string(op)),
		slog.Int("status", status),
		logfields.Error(err))
	writeJSON(w, status, errorResponse{RequestID: requestID, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
