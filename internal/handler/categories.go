package handler

import (
	"net/http"

	"giftlist-api/internal/middleware"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// CategoryHandler handles category mutations.
type CategoryHandler struct {
	categories *service.CategoryService
	log        logrus.FieldLogger
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(categories *service.CategoryService, log logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{categories: categories, log: log.WithField("component", "category-handler")}
}

// RenameRequest is the body of PUT /api/v1/categories/{id}.
type RenameRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/v1/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	category, err := h.categories.Create(r.Context(), middleware.GetUserID(r.Context()), req, origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.Created(w, category)
}

// Rename handles PUT /api/v1/categories/{id}
func (h *CategoryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	category, err := h.categories.Rename(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Name, origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, category)
}

// Delete handles DELETE /api/v1/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ref, err := h.categories.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, ref)
}
