package handler

import (
	"net/http"

	"giftlist-api/internal/middleware"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ItemHandler handles item mutations. The response body of every mutation
// carries the same entity as the broadcast event.
type ItemHandler struct {
	items *service.ItemService
	log   logrus.FieldLogger
}

// NewItemHandler creates an item handler.
func NewItemHandler(items *service.ItemService, log logrus.FieldLogger) *ItemHandler {
	return &ItemHandler{items: items, log: log.WithField("component", "item-handler")}
}

// Create handles POST /api/v1/items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	item, err := h.items.Create(r.Context(), middleware.GetUserID(r.Context()), req, origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.Created(w, item)
}

// Update handles PUT /api/v1/items/{id}
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	item, err := h.items.Update(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req, origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, item)
}

// Delete handles DELETE /api/v1/items/{id}
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ref, err := h.items.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, ref)
}

// Reserve handles PATCH /api/v1/items/{id}/reserve. It is public.
func (h *ItemHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req service.ReserveInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	item, err := h.items.Reserve(r.Context(), chi.URLParam(r, "id"), req, origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, item)
}

// Confirm handles PATCH /api/v1/items/{id}/confirm
func (h *ItemHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.Confirm(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, item)
}

// Cancel handles PATCH /api/v1/items/{id}/cancel
func (h *ItemHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.Cancel(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), origin(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, item)
}
