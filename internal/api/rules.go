package api

import (
	"net/http"
	"strconv"

	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/ruleform"
	"github.com/alexis/lmsadmin/internal/sse"
)

// ruleView is a rule with its list summary.
type ruleView struct {
	models.Rule
	Summary ruleform.Summary `json:"summary"`
}

// ListRules returns all rules, or the rules of one tab with ?type=.
func (s *Server) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.api.ListRules(r.Context())
	if err != nil {
		respondUpstream(w, err)
		return
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t, err := models.ParseRuleType(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		rules = models.FilterRules(rules, t)
	}

	out := make([]ruleView, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleView{Rule: rule, Summary: ruleform.Summarize(rule)})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule models.Rule
	if err := decodeJSON(r, &rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateRule(&rule); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.api.CreateRule(r.Context(), rule)
	s.record(r, "rule.create", rule.RuleName, rule, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	s.broadcaster.Emit(sse.EventRuleSaved, created)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var rule models.Rule
	if err := decodeJSON(r, &rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateRule(&rule); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.api.UpdateRule(r.Context(), id, rule)
	s.record(r, "rule.update", strconv.FormatInt(id, 10), rule, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	s.broadcaster.Emit(sse.EventRuleSaved, updated)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.api.DeleteRule(r.Context(), id)
	s.record(r, "rule.delete", strconv.FormatInt(id, 10), nil, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	s.broadcaster.Emit(sse.EventRuleDeleted, map[string]int64{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ReloadRules(w http.ResponseWriter, r *http.Request) {
	msg, err := s.api.ReloadRules(r.Context())
	s.record(r, "rule.reload", "", nil, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondMessage(w, msg)
}

// EvaluateRules simulates a transaction against the active rules.
func (s *Server) EvaluateRules(w http.ResponseWriter, r *http.Request) {
	var req models.RuleEvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Transaction.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "transaction.amount must be positive")
		return
	}

	fact, err := s.api.EvaluateRules(r.Context(), req)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fact)
}
