package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/alexis/lmsadmin/internal/models"
)

func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.api.ListTransactions(r.Context())
	if err != nil {
		respondUpstream(w, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

// CreateTransaction submits a purchase or transfer. The rule engine
// settles it asynchronously, so the watcher is woken to follow it.
func (s *Server) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t models.Transaction
	if err := decodeJSON(r, &t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateTransaction(&t); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.api.CreateTransaction(r.Context(), t)
	s.record(r, "transaction.create", strconv.FormatInt(t.MemberID, 10), t, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	if s.watcher != nil {
		s.watcher.Kick()
	}
	respondJSON(w, http.StatusCreated, created)
}

// PendingTransactions returns the transactions the engine has not settled
// yet, from the watcher's last poll when one is running.
func (s *Server) PendingTransactions(w http.ResponseWriter, r *http.Request) {
	var pending []models.Transaction
	if s.watcher != nil {
		pending = s.watcher.Pending()
	} else {
		txs, err := s.api.ListTransactions(r.Context())
		if err != nil {
			respondUpstream(w, err)
			return
		}
		for _, t := range txs {
			if t.Status == models.StatusPending {
				pending = append(pending, t)
			}
		}
	}
	if pending == nil {
		pending = []models.Transaction{}
	}
	respondJSON(w, http.StatusOK, pending)
}

func (s *Server) MemberTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, err := s.api.MemberTransactions(r.Context(), id)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

// TransactionSummary totals a member's spending over ?period= (MONTHLY by
// default).
func (s *Server) TransactionSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	period := r.URL.Query().Get("period")
	if err := models.ValidatePeriod(period); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if period == "" {
		period = "MONTHLY"
	} else if !strings.Contains(period, "-") {
		period = strings.ToUpper(period)
	}

	summary, err := s.api.TransactionSummary(r.Context(), id, period)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
