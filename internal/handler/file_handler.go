package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"annodrive/internal/domain"
	"annodrive/internal/service"
)

const maxUploadSize = 100 << 20 // 100MB

type FileHandler struct {
	fileService    *service.FileService
	versionService *service.VersionService
	resetService   *service.ResetService
}

func NewFileHandler(
	fileService *service.FileService,
	versionService *service.VersionService,
	resetService *service.ResetService,
) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		versionService: versionService,
		resetService:   resetService,
	}
}

func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Post("/files", h.Upload)
	r.Post("/files/combine-images", h.CombineImages)
	r.Get("/files", h.List)
	r.Get("/files/{uuid}", h.Get)
	r.Delete("/files/{uuid}", h.Delete)
	r.Get("/files/{uuid}/download", h.Download)
	r.Post("/files/{uuid}/revert", h.Revert)
	r.Post("/files/{uuid}/reset", h.Reset)
}

func parseFileUUID(r *http.Request) (uuid.UUID, error) {
	fileUUID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid file UUID")
	}
	return fileUUID, nil
}

// Upload обрабатывает загрузку нового файла (multipart: file, user)
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequest(w, "failed to parse form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		badRequest(w, "failed to read file")
		return
	}

	user := r.FormValue("user")
	if user == "" {
		badRequest(w, "missing user field")
		return
	}

	created, err := h.fileService.Upload(r.Context(), &domain.FileUpload{
		Name:     header.Filename,
		User:     user,
		FileData: data,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type combineImagesRequest struct {
	FileIDs []string `json:"file_ids"`
	User    string   `json:"user"`
}

// CombineImages склеивает изображения в новый PDF-файл
func (h *FileHandler) CombineImages(w http.ResponseWriter, r *http.Request) {
	var req combineImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if len(req.FileIDs) == 0 {
		badRequest(w, "file_ids must not be empty")
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

	created, err := h.fileService.CombineImages(r.Context(), ids, req.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// Get возвращает карточку файла вместе с историей версий
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	file, err := h.fileService.Get(r.Context(), fileUUID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.fileService.Delete(r.Context(), fileUUID, r.URL.Query().Get("user")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Download отдает содержимое версии файла; ?mode=original|current|vN
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	sel, ok := domain.ParseVersionSelector(r.URL.Query().Get("mode"))
	if !ok {
		badRequest(w, "invalid mode, expected original, current or vN")
		return
	}

	dl, err := h.versionService.Download(r.Context(), fileUUID, sel)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", dl.File.MIMEType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", dl.File.OriginalName))
	w.Write(dl.Data)
}

type revertRequest struct {
	Version int    `json:"version"`
	User    string `json:"user"`
}

// Revert откатывает файл к указанной версии копированием содержимого
func (h *FileHandler) Revert(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req revertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.versionService.Revert(r.Context(), fileUUID, req.Version, req.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

type resetRequest struct {
	User string `json:"user"`
}

// Reset возвращает файл к оригиналу и удаляет все слои аннотаций
func (h *FileHandler) Reset(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := parseFileUUID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	version, err := h.resetService.Reset(r.Context(), fileUUID, req.User)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}
