package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"annodrive/internal/service"
)

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Post("/files/{uuid}/export", h.Export)
}

type exportRequest struct {
	Users []string `json:"users"`
	User  string   `json:"user"`
}

// Export возвращает копию документа с впечатанными аннотациями
// выбранных пользователей
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	result, err := h.exportService.Export(r.Context(), fileUUID, req.Users, req.User)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Write(result.Data)
}
