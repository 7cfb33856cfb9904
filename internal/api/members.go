package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/alexis/lmsadmin/internal/models"
)

// ListMembers proxies the paged member list. Supports ?page=, ?size=,
// ?search= and ?tier=.
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := queryInt(r, "size", 20)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := models.MemberQuery{Page: page, Size: size, Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("tier"); v != "" {
		if q.Tier, err = models.ParseTier(v); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := s.api.ListMembers(r.Context(), q)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListMembersLite serves the member directory snapshot. ?refresh=true
// reloads it first, ?search= filters it.
func (s *Server) ListMembersLite(w http.ResponseWriter, r *http.Request) {
	if s.members == nil {
		respondError(w, http.StatusServiceUnavailable, "member directory disabled")
		return
	}
	var err error
	if r.URL.Query().Get("refresh") == "true" {
		err = s.members.Refresh(r.Context())
	} else {
		err = s.members.Init(r.Context())
	}
	if err != nil && !s.members.Loaded() {
		respondUpstream(w, err)
		return
	}

	list := s.members.Members()
	if q := r.URL.Query().Get("search"); q != "" {
		list = s.members.Search(q)
	}
	if list == nil {
		list = []models.MemberLite{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) MemberStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.api.MemberStats(r.Context())
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := s.api.GetMember(r.Context(), id)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) CreateMember(w http.ResponseWriter, r *http.Request) {
	var m models.Member
	if err := decodeJSON(r, &m); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateMember(&m); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.api.CreateMember(r.Context(), m)
	s.record(r, "member.create", m.Email, m, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	s.refreshDirectory(r)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var m models.Member
	if err := decodeJSON(r, &m); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateMember(&m); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.api.UpdateMember(r.Context(), id, m)
	s.record(r, "member.update", strconv.FormatInt(id, 10), m, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	s.refreshDirectory(r)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.api.DeleteMember(r.Context(), id)
	s.record(r, "member.delete", strconv.FormatInt(id, 10), nil, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	s.refreshDirectory(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) MemberPoints(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	points, err := s.api.MemberPoints(r.Context(), id)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"memberId": id, "points": points})
}

// ResetMember clears a member's points and transaction history.
func (s *Server) ResetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.api.ResetMember(r.Context(), id)
	s.record(r, "member.reset", strconv.FormatInt(id, 10), nil, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	s.refreshDirectory(r)
	respondMessage(w, "member reset")
}

const refreshTimeout = 30 * time.Second

// refreshDirectory reloads the directory after a member mutation. A failed
// reload is logged; the previous list stays in use.
func (s *Server) refreshDirectory(r *http.Request) {
	if s.members == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), refreshTimeout)
	defer cancel()
	if err := s.members.Refresh(ctx); err != nil {
		s.logger.Warn("member directory refresh failed", "error", err)
	}
}
