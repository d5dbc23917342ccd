package handler

import (
	"net/http"

	"giftlist-api/internal/middleware"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ListHandler handles gift list requests.
type ListHandler struct {
	lists *service.ListService
	log   logrus.FieldLogger
}

// NewListHandler creates a list handler.
func NewListHandler(lists *service.ListService, log logrus.FieldLogger) *ListHandler {
	return &ListHandler{lists: lists, log: log.WithField("component", "list-handler")}
}

// GetBySlug handles GET /api/v1/lists/{slug}. It is public.
func (h *ListHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	view, err := h.lists.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	response.OK(w, view)
}

// Create handles POST /api/v1/lists
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ListInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	list, err := h.lists.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.Created(w, list)
}

// Mine handles GET /api/v1/lists/mine
func (h *ListHandler) Mine(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.Mine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, lists)
}

// Get handles GET /api/v1/lists/id/{id}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.lists.GetForOwner(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, view)
}

// Update handles PUT /api/v1/lists/id/{id}
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.ListInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	list, err := h.lists.Update(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req, origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, list)
}

// Delete handles DELETE /api/v1/lists/id/{id}
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.lists.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.NoContent(w)
}
