package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alexis/lmsadmin/internal/drafts"
	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/ruleform"
	"github.com/alexis/lmsadmin/internal/sse"
)

type openDraftRequest struct {
	RuleType string `json:"ruleType"`
	RuleID   int64  `json:"ruleId"`
}

var errWrongType = errors.New("operation does not apply to this rule type")
var errNoRange = errors.New("no tiered range at that index")

// OpenDraft starts a draft for a new rule ({ruleType}) or for an existing
// one ({ruleId}).
func (s *Server) OpenDraft(w http.ResponseWriter, r *http.Request) {
	var req openDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var sess *drafts.Session
	switch {
	case req.RuleID > 0:
		rule, err := s.api.GetRule(r.Context(), req.RuleID)
		if err != nil {
			respondUpstream(w, err)
			return
		}
		sess = s.drafts.Edit(*rule)
	case req.RuleType != "":
		t, err := models.ParseRuleType(req.RuleType)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if sess, err = s.drafts.Create(t); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		respondError(w, http.StatusBadRequest, "ruleType or ruleId is required")
		return
	}

	w.Header().Set("Location", "/api/v1/drafts/"+sess.ID)
	respondJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*drafts.Session, bool) {
	sess, err := s.drafts.Get(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// editDraft applies fn and answers with the updated draft.
func (s *Server) editDraft(w http.ResponseWriter, r *http.Request, fn func(f *ruleform.Form) error) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(fn); err != nil {
		switch {
		case errors.Is(err, errWrongType):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, errNoRange):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, sess.View())
}

func requireType(f *ruleform.Form, t models.RuleType) error {
	if f.RuleType() != t {
		return fmt.Errorf("%w: requires a %s rule, draft is %s", errWrongType, t, f.RuleType())
	}
	return nil
}

func (s *Server) GetDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	s.drafts.Delete(chi.URLParam(r, "draftID"))
	w.WriteHeader(http.StatusNoContent)
}

// SetDraftFields assigns scalar fields from a JSON object. Values may be
// strings, numbers, booleans or null; they are applied in name order.
func (s *Server) SetDraftFields(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	names := make([]string, 0, len(body))
	values := make(map[string]string, len(body))
	for name, raw := range body {
		if !ruleform.KnownField(name) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown field: %q", name))
			return
		}
		v, err := fieldText(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", name, err))
			return
		}
		names = append(names, name)
		values[name] = v
	}
	sort.Strings(names)

	s.editDraft(w, r, func(f *ruleform.Form) error {
		for _, name := range names {
			if err := f.SetField(name, values[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

// fieldText turns a JSON value into the text SetField takes. Objects and
// arrays are kept as JSON text so conditions and actions can be sent
// structured.
func fieldText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(raw), nil
	}
}

func (s *Server) AddDraftRange(w http.ResponseWriter, r *http.Request) {
	s.editDraft(w, r, func(f *ruleform.Form) error {
		if err := requireType(f, models.RuleTypeTransaction); err != nil {
			return err
		}
		f.AddTieredRange()
		return nil
	})
}

// UpdateDraftRange sets fields of one range from {"min":..,"max":..,
// "points":..,"multiplier":..}. Omitted fields are left alone.
func (s *Server) UpdateDraftRange(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid range index")
		return
	}
	var body map[string]float64
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	fields := make([]string, 0, len(body))
	for field := range body {
		if !ruleform.ValidRangeField(field) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown range field: %q", field))
			return
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	s.editDraft(w, r, func(f *ruleform.Form) error {
		if err := requireType(f, models.RuleTypeTransaction); err != nil {
			return err
		}
		if index < 0 || index >= len(f.TieredRanges()) {
			return errNoRange
		}
		for _, field := range fields {
			f.UpdateTieredRange(index, field, body[field])
		}
		return nil
	})
}

func (s *Server) RemoveDraftRange(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid range index")
		return
	}
	s.editDraft(w, r, func(f *ruleform.Form) error {
		if err := requireType(f, models.RuleTypeTransaction); err != nil {
			return err
		}
		if index < 0 || index >= len(f.TieredRanges()) {
			return errNoRange
		}
		f.RemoveTieredRange(index)
		return nil
	})
}

func (s *Server) SetDraftAwardPoints(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Points *int `json:"points"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.Points == nil {
		respondError(w, http.StatusBadRequest, "points is required")
		return
	}
	s.editDraft(w, r, func(f *ruleform.Form) error {
		if err := requireType(f, models.RuleTypeEvent); err != nil {
			return err
		}
		f.SetAwardPoints(*body.Points)
		return nil
	})
}

func (s *Server) ToggleDraftProduct(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s.editDraft(w, r, func(f *ruleform.Form) error {
		if err := requireType(f, models.RuleTypeProduct); err != nil {
			return err
		}
		f.ToggleProductTarget(code)
		return nil
	})
}

// SelectAllDraftProducts toggles between every catalog product and none.
func (s *Server) SelectAllDraftProducts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session(w, r); !ok {
		return
	}
	products, err := s.api.ListProducts(r.Context())
	if err != nil {
		respondUpstream(w, err)
		return
	}
	codes := models.ProductCodes(products)
	s.editDraft(w, r, func(f *ruleform.Form) error {
		if err := requireType(f, models.RuleTypeProduct); err != nil {
			return err
		}
		f.SelectAllProducts(codes)
		return nil
	})
}

// DraftPayload shows what submit would send. With ?strict=true malformed
// conditions or actions are reported instead.
func (s *Server) DraftPayload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var (
		payload models.Rule
		err     error
	)
	_ = sess.Do(func(f *ruleform.Form) error {
		if r.URL.Query().Get("strict") == "true" {
			payload, err = f.BuildStrictPayload()
		} else {
			payload = f.BuildSubmitPayload()
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// DraftDiff compares an edit draft with the rule it was opened from.
func (s *Server) DraftDiff(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	stored := sess.Stored()
	if stored == nil {
		respondError(w, http.StatusConflict, "draft is for a new rule")
		return
	}
	var diff string
	err := sess.Do(func(f *ruleform.Form) error {
		var err error
		diff, err = f.Diff(*stored)
		return err
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"changed": diff != "", "diff": diff})
}

// SubmitDraft creates or updates the rule. The draft is closed on success
// and kept on failure so it can be corrected.
func (s *Server) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	strict := r.URL.Query().Get("strict") == "true"

	var (
		payload models.Rule
		ruleID  int64
		err     error
	)
	_ = sess.Do(func(f *ruleform.Form) error {
		ruleID = f.ID()
		if strict {
			payload, err = f.BuildStrictPayload()
			return nil
		}
		payload = f.BuildSubmitPayload()
		err = models.ValidateRule(&payload)
		return nil
	})
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var saved *models.Rule
	status := http.StatusCreated
	if ruleID > 0 {
		saved, err = s.api.UpdateRule(r.Context(), ruleID, payload)
		s.record(r, "rule.update", strconv.FormatInt(ruleID, 10), payload, err)
		status = http.StatusOK
	} else {
		saved, err = s.api.CreateRule(r.Context(), payload)
		s.record(r, "rule.create", payload.RuleName, payload, err)
	}
	if err != nil {
		respondUpstream(w, err)
		return
	}

	s.drafts.Delete(sess.ID)
	s.broadcaster.Emit(sse.EventRuleSaved, saved)
	respondJSON(w, status, saved)
}
