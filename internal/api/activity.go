package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alexis/lmsadmin/internal/models"
)

// record appends a mutating call to the activity log. Logging failures are
// reported but never fail the request.
func (s *Server) record(r *http.Request, kind, subject string, detail interface{}, callErr error) {
	if s.store == nil {
		return
	}
	a := &models.Activity{
		Kind:    kind,
		Subject: subject,
		Outcome: models.OutcomeOK,
		Actor:   r.RemoteAddr,
	}
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			a.Detail = b
		}
	}
	if callErr != nil {
		a.Outcome = models.OutcomeError
		a.Error = callErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
	defer cancel()
	if err := s.store.RecordActivity(ctx, a); err != nil {
		s.logger.Error("record activity failed", "kind", kind, "error", err)
	}
}

func (s *Server) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", models.DefaultActivityLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.store == nil {
		respondJSON(w, http.StatusOK, []models.Activity{})
		return
	}
	entries, err := s.store.ListActivity(r.Context(), models.ActivityQuery{
		Limit: limit,
		Kind:  r.URL.Query().Get("kind"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
