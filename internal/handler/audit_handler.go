package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"annodrive/internal/service"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.Query)
}

// Query возвращает записи журнала в порядке вставки;
// ?file_id= сужает выборку до одного файла, ?limit= ограничивает размер
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.auditService.Query(r.Context(), r.URL.Query().Get("file_id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
