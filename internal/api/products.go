package api

import (
	"net/http"
	"strconv"

	"github.com/alexis/lmsadmin/internal/models"
)

func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.api.ListProducts(r.Context())
	if err != nil {
		respondUpstream(w, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateProduct(&p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.api.CreateProduct(r.Context(), p)
	s.record(r, "product.create", p.Code, p, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var p models.Product
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := models.ValidateProduct(&p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.api.UpdateProduct(r.Context(), id, p)
	s.record(r, "product.update", strconv.FormatInt(id, 10), p, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.api.DeleteProduct(r.Context(), id)
	s.record(r, "product.delete", strconv.FormatInt(id, 10), nil, err)
	if err != nil {
		respondUpstream(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
