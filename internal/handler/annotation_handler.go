package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"annodrive/internal/domain"
	"annodrive/internal/service"
)

type AnnotationHandler struct {
	annotationService *service.AnnotationService
}

func NewAnnotationHandler(annotationService *service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotationService: annotationService}
}

func (h *AnnotationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/files/{uuid}/annotations", h.ListLayers)
	r.Get("/files/{uuid}/annotations/{user}", h.GetLayer)
	r.Put("/files/{uuid}/annotations/{user}", h.PutLayer)
	r.Delete("/files/{uuid}/annotations/{user}", h.DeleteLayer)
	r.Post("/files/{uuid}/annotations/{user}/pages/{page}", h.MergePage)
}

func (h *AnnotationHandler) ListLayers(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	layers, err := h.annotationService.ListLayers(r.Context(), fileUUID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"layers": layers})
}

// GetLayer возвращает слой пользователя; для пользователя без сохраненного
// слоя отдается пустой слой с rev = 0, а не 404
func (h *AnnotationHandler) GetLayer(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	layer, err := h.annotationService.GetLayer(r.Context(), fileUUID, chi.URLParam(r, "user"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layer)
}

type putLayerRequest struct {
	FabricPages map[string]json.RawMessage `json:"fabric_pages"`
	Rev         *int                       `json:"rev,omitempty"`
}

// PutLayer полностью заменяет слой пользователя. Поле rev, если задано,
// включает оптимистическую блокировку: несовпадение дает 409.
func (h *AnnotationHandler) PutLayer(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req putLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	layer := &domain.AnnotationLayer{
		FileUUID:    fileUUID,
		User:        chi.URLParam(r, "user"),
		FabricPages: req.FabricPages,
	}
	if err := h.annotationService.PutLayer(r.Context(), layer, req.Rev); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layer)
}

func (h *AnnotationHandler) DeleteLayer(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.annotationService.DeleteLayer(r.Context(), fileUUID, chi.URLParam(r, "user")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type mergePageRequest struct {
	Objects []json.RawMessage `json:"objects"`
}

// MergePage дописывает объекты в сцену одной страницы слоя пользователя
func (h *AnnotationHandler) MergePage(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req mergePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	layer, err := h.annotationService.MergePage(
		r.Context(),
		fileUUID,
		chi.URLParam(r, "user"),
		chi.URLParam(r, "page"),
		req.Objects,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layer)
}
