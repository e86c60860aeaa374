package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"annodrive/internal/service"
)

type ImageHandler struct {
	imageService *service.ImageService
}

func NewImageHandler(imageService *service.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/images/{uuid}/crop", h.Crop)
	r.Post("/images/{uuid}/resize", h.Resize)
	r.Post("/images/{uuid}/rotate", h.Rotate)
	r.Post("/images/{uuid}/adjust", h.Adjust)
	r.Post("/images/{uuid}/enhance", h.Enhance)
}

type cropRequest struct {
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	User   string `json:"user"`
}

func (h *ImageHandler) Crop(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.imageService.Crop(r.Context(), fileUUID, req.User,
		req.Left, req.Top, req.Width, req.Height)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type resizeRequest struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	User   string `json:"user"`
}

func (h *ImageHandler) Resize(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.imageService.Resize(r.Context(), fileUUID, req.User, req.Width, req.Height)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type rotateRequest struct {
	Angle int    `json:"angle"`
	User  string `json:"user"`
}

func (h *ImageHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req rotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.imageService.Rotate(r.Context(), fileUUID, req.User, req.Angle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type enhanceRequest struct {
	User string `json:"user"`
}

func (h *ImageHandler) Enhance(w http.ResponseWriter, r *http.Request) {
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

	version, err := h.imageService.Enhance(r.Context(), fileUUID, req.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type adjustRequest struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	User       string  `json:"user"`
}

func (h *ImageHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.imageService.Adjust(r.Context(), fileUUID, req.User, req.Brightness, req.Contrast)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}
