package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"MarketPulse/internal/dashboard"
	"MarketPulse/internal/model"
)

const defaultHistoryLimit = 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "marketpulse",
	})
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.Instruments())
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.Thresholds())
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	days, ok := s.days(w, r)
	if !ok {
		return
	}
	ov, err := s.dashboard.Overview(r.Context(), days)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	days, ok := s.days(w, r)
	if !ok {
		return
	}
	var symbols []model.Symbol
	for _, part := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			symbols = append(symbols, model.Symbol(part))
		}
	}
	view, err := s.dashboard.Compare(r.Context(), symbols, days)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMacro(w http.ResponseWriter, r *http.Request) {
	days, ok := s.days(w, r)
	if !ok {
		return
	}
	view, err := s.dashboard.Macro(r.Context(), days)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	days, ok := s.days(w, r)
	if !ok {
		return
	}
	view, err := s.dashboard.Insights(r.Context(), days)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dashboard.Refresh(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.intParam(w, r, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	passes, err := s.dashboard.History(limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, passes)
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	symbol, err := url.PathUnescape(chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}
	limit, ok := s.intParam(w, r, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	entries, err := s.dashboard.AlertHistory(model.Symbol(symbol), limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// days reads the optional window parameter; 0 selects the configured default.
func (s *Server) days(w http.ResponseWriter, r *http.Request) (int, bool) {
	return s.intParam(w, r, "days", 0)
}

func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %q", name, raw))
		return 0, false
	}
	return v, true
}

// writeFailure maps service errors onto HTTP statuses.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrUnknownSymbol):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
