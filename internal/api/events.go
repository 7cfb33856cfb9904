package api

import (
	"net/http"
	"strconv"

	"github.com/alexis/lmsadmin/internal/models"
)

func (s *Server) Onboard(w http.ResponseWriter, r *http.Request) {
	var req models.OnboardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.MemberID <= 0 {
		respondError(w, http.StatusBadRequest, "memberId is required")
		return
	}

	msg, err := s.api.Onboard(r.Context(), req.MemberID)
	s.record(r, "event.onboard", strconv.FormatInt(req.MemberID, 10), req, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondMessage(w, msg)
}

func (s *Server) Referral(w http.ResponseWriter, r *http.Request) {
	var req models.ReferralRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateReferral(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := s.api.Referral(r.Context(), req)
	s.record(r, "event.referral", strconv.FormatInt(req.ReferrerID, 10), req, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondMessage(w, msg)
}

// TriggerEvent forwards an arbitrary loyalty event; only eventType is
// checked.
func (s *Server) TriggerEvent(w http.ResponseWriter, r *http.Request) {
	var e models.EventTrigger
	if err := decodeJSON(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateEventTrigger(e); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := s.api.TriggerEvent(r.Context(), e)
	s.record(r, "event.trigger", e.EventType(), e, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondMessage(w, msg)
}
