package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/growtools/backend/internal/domain"
	"github.com/growtools/backend/internal/service"
)

// ToolsHandler serves the tool catalog.
type ToolsHandler struct {
	tools *service.ToolService
}

// NewToolsHandler creates a new ToolsHandler.
func NewToolsHandler(tools *service.ToolService) *ToolsHandler {
	return &ToolsHandler{tools: tools}
}

// List handles GET /api/tools.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	tools, err := h.tools.List(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, tools)
}

// Get handles GET /api/tools/{toolId}.
func (h *ToolsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tool, err := h.tools.Get(r.Context(), chi.URLParam(r, "toolId"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, tool)
}

// Create handles POST /api/admin/tools.
func (h *ToolsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateToolRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	if err := Valid(&req); err != nil {
		Error(w, err)
		return
	}

	tool, err := h.tools.Create(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusCreated, tool)
}

// Update handles PUT /api/admin/tools/{toolId}.
func (h *ToolsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateToolRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	if err := Valid(&req); err != nil {
		Error(w, err)
		return
	}

	tool, err := h.tools.Update(r.Context(), chi.URLParam(r, "toolId"), &req)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, tool)
}
