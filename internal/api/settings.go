package api

import (
	"net/http"

	"github.com/alexis/lmsadmin/internal/models"
)

func (s *Server) TierThresholds(w http.ResponseWriter, r *http.Request) {
	thresholds, err := s.api.TierThresholds(r.Context())
	if err != nil {
		respondUpstream(w, err)
		return
	}
	if thresholds == nil {
		thresholds = []models.TierThreshold{}
	}
	respondJSON(w, http.StatusOK, thresholds)
}

func (s *Server) SaveTierThreshold(w http.ResponseWriter, r *http.Request) {
	var t models.TierThreshold
	if err := decodeJSON(r, &t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateTierThreshold(&t); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.api.SaveTierThreshold(r.Context(), t)
	s.record(r, "config.tier", string(t.TargetTier), t, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) ExpirationConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.api.ExpirationConfig(r.Context())
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) SaveExpirationConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.ExpirationConfig
	if err := decodeJSON(r, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateExpirationConfig(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.api.SaveExpirationConfig(r.Context(), cfg)
	s.record(r, "config.expiration", string(cfg.ExpirationType), cfg, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) RunTierEvaluation(w http.ResponseWriter, r *http.Request) {
	msg, err := s.api.RunTierEvaluation(r.Context())
	s.record(r, "admin.tier-evaluation", "", nil, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondMessage(w, msg)
}

func (s *Server) ExpirePoints(w http.ResponseWriter, r *http.Request) {
	msg, err := s.api.ExpirePoints(r.Context())
	s.record(r, "admin.expire-points", "", nil, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondMessage(w, msg)
}
