package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"annodrive/internal/service"
)

type PDFHandler struct {
	pdfService *service.PDFService
}

func NewPDFHandler(pdfService *service.PDFService) *PDFHandler {
	return &PDFHandler{pdfService: pdfService}
}

func (h *PDFHandler) RegisterRoutes(r chi.Router) {
	r.Get("/pdf/{uuid}/page-count", h.PageCount)
	r.Post("/pdf/{uuid}/rotate-page", h.RotatePage)
	r.Post("/pdf/{uuid}/delete-page", h.DeletePage)
	r.Post("/pdf/{uuid}/reorder-pages", h.ReorderPages)
	r.Post("/pdf/{uuid}/enhance", h.Enhance)
	r.Post("/pdf/merge", h.Merge)
}

func (h *PDFHandler) PageCount(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	count, err := h.pdfService.PageCount(r.Context(), fileUUID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"page_count": count})
}

type rotatePageRequest struct {
	Page  int    `json:"page"`
	Angle int    `json:"angle"`
	User  string `json:"user"`
}

func (h *PDFHandler) RotatePage(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req rotatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.pdfService.RotatePage(r.Context(), fileUUID, req.User, req.Page, req.Angle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type deletePageRequest struct {
	Page int    `json:"page"`
	User string `json:"user"`
}

func (h *PDFHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req deletePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.pdfService.DeletePage(r.Context(), fileUUID, req.User, req.Page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type reorderPagesRequest struct {
	Order []int  `json:"order"`
	User  string `json:"user"`
}

func (h *PDFHandler) ReorderPages(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req reorderPagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.pdfService.ReorderPages(r.Context(), fileUUID, req.User, req.Order)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// Enhance перерисовывает PDF в скан-подобном виде
func (h *PDFHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.pdfService.Enhance(r.Context(), fileUUID, req.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type mergeRequest struct {
	FileIDs []string `json:"file_ids"`
	User    string   `json:"user"`
}

// Merge дописывает страницы остальных файлов в конец первого
func (h *PDFHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if len(req.FileIDs) < 2 {
		badRequest(w, "merge requires at least two file_ids")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.FileIDs))
	for _, raw := range req.FileIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid file UUID in file_ids")
			return
		}
		ids = append(ids, id)
	}

	version, err := h.pdfService.Merge(r.Context(), ids[0], ids[1:], req.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}
