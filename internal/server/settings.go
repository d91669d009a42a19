package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ServiceConfig())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg entity.ServiceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)

	if err := s.store.SetServiceConfig(cfg); err != nil {
		s.logger.Error("saving service config failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.TripInfo())
}

func (s *Server) handlePutTrip(w http.ResponseWriter, r *http.Request) {
	var trip entity.TripInfo
	if err := json.NewDecoder(r.Body).Decode(&trip); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetTripInfo(trip); err != nil {
		s.logger.Error("saving trip info failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, trip)
}
