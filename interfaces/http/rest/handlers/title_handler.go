// Package handlers contains the REST handlers fronting the repository.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"partdocs/domain/core/entities"
	"partdocs/infrastructure/persistence"
	pkgerrors "partdocs/pkg/errors"
	"partdocs/pkg/partition"
	"partdocs/pkg/utils"
)

// TitleHandler exposes CRUD over the title repository.
type TitleHandler struct {
	repo   *persistence.Repository[*entities.Title]
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewTitleHandler creates a new title handler
func NewTitleHandler(repo *persistence.Repository[*entities.Title], errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *TitleHandler {
	return &TitleHandler{
		repo:   repo,
		errors: errorHandler,
		logger: logger,
	}
}

// CreateTitleRequest is the payload for creating a title.
type CreateTitleRequest struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name" validate:"required,min=1,max=500"`
	Rating  string  `json:"rating" validate:"required,min=1,max=50"`
	Year    int     `json:"year,omitempty" validate:"omitempty,gte=1870"`
	Score   float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=10"`
	Adult   bool    `json:"adult,omitempty"`
	Summary string  `json:"summary,omitempty" validate:"omitempty,max=5000"`
}

// ReplaceTitleRequest is the payload for replacing a title.
type ReplaceTitleRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=500"`
	Rating  string  `json:"rating" validate:"required,min=1,max=50"`
	Year    int     `json:"year,omitempty" validate:"omitempty,gte=1870"`
	Score   float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=10"`
	Adult   bool    `json:"adult,omitempty"`
	Summary string  `json:"summary,omitempty" validate:"omitempty,max=5000"`
}

// CreateTitle handles POST /api/v1/titles
func (h *TitleHandler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	var req CreateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	title, err := entities.NewTitle(req.Name, req.Rating)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	title.ID = req.ID
	title.Year = req.Year
	title.Score = req.Score
	title.Adult = req.Adult
	title.Summary = req.Summary

	if err := h.repo.Create(r.Context(), title); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.Header().Set("ETag", string(title.GetVersion()))
	h.respondJSON(w, http.StatusCreated, title)
}

// GetTitle handles GET /api/v1/titles/{titleID}
func (h *TitleHandler) GetTitle(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "titleID")

	title, err := h.repo.Read(r.Context(), externalID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if title == nil {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("title"))
		return
	}

	w.Header().Set("ETag", string(title.GetVersion()))
	h.respondJSON(w, http.StatusOK, title)
}

// ReplaceTitle handles PUT /api/v1/titles/{titleID}
func (h *TitleHandler) ReplaceTitle(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "titleID")

	var req ReplaceTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	title, err := entities.NewTitle(req.Name, req.Rating)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	title.ID = externalID
	title.Year = req.Year
	title.Score = req.Score
	title.Adult = req.Adult
	title.Summary = req.Summary

	if err := h.repo.Replace(r.Context(), title, expectedVersion(r)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.Header().Set("ETag", string(title.GetVersion()))
	h.respondJSON(w, http.StatusOK, title)
}

// DeleteTitle handles DELETE /api/v1/titles/{titleID}
func (h *TitleHandler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "titleID")

	if err := h.repo.Delete(r.Context(), externalID, expectedVersion(r)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTitles handles GET /api/v1/titles?rating=R
func (h *TitleHandler) ListTitles(w http.ResponseWriter, r *http.Request) {
	rating := r.URL.Query().Get("rating")
	if rating == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("rating query parameter is required"))
		return
	}

	titles, err := h.repo.QueryPartition(r.Context(), partition.NewKey(partition.String(rating)))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"titles": titles,
		"count":  len(titles),
	})
}

// expectedVersion reads the If-Match precondition, if present. An absent
// header means the write is unconditional.
func expectedVersion(r *http.Request) []byte {
	ifMatch := r.Header.Get("If-Match")
	if ifMatch == "" || ifMatch == "*" {
		return nil
	}
	return []byte(ifMatch)
}

func (h *TitleHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
