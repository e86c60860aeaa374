package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annodrive/internal/domain"
	"annodrive/internal/service"
)

// fakeFileRepo знает ровно один файл
type fakeFileRepo struct {
	file *domain.File
}

func (f *fakeFileRepo) GetByUUID(ctx context.Context, fileUUID uuid.UUID) (*domain.File, error) {
	if f.file != nil && f.file.UUID == fileUUID {
		return f.file, nil
	}
	return nil, domain.ErrFileNotFound
}

func (f *fakeFileRepo) Create(context.Context, *sqlx.Tx, *domain.File) error { return nil }
func (f *fakeFileRepo) List(context.Context) ([]domain.File, error)         { return nil, nil }
func (f *fakeFileRepo) Delete(context.Context, uuid.UUID) error             { return nil }
func (f *fakeFileRepo) GetCurrentVersion(context.Context, *sqlx.Tx, uuid.UUID) (int, error) {
	return 0, nil
}
func (f *fakeFileRepo) UpdateCurrentVersion(context.Context, *sqlx.Tx, uuid.UUID, int, int64) error {
	return nil
}
func (f *fakeFileRepo) BeginTx(context.Context) (*sqlx.Tx, error) { return nil, nil }

// fakeAnnotationRepo хранит слои в памяти и честно проверяет rev
type fakeAnnotationRepo struct {
	layers map[string]*domain.AnnotationLayer
}

func newFakeAnnotationRepo() *fakeAnnotationRepo {
	return &fakeAnnotationRepo{layers: map[string]*domain.AnnotationLayer{}}
}

func layerKey(fileUUID uuid.UUID, user string) string {
	return fileUUID.String() + "/" + user
}

func (f *fakeAnnotationRepo) Get(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.AnnotationLayer, error) {
	layer, ok := f.layers[layerKey(fileUUID, user)]
	if !ok {
		return nil, nil
	}
	clone := *layer
	return &clone, nil
}

func (f *fakeAnnotationRepo) Upsert(ctx context.Context, layer *domain.AnnotationLayer, expectedRev *int) error {
	key := layerKey(layer.FileUUID, layer.User)
	existing, ok := f.layers[key]

	if expectedRev != nil {
		current := 0
		if ok {
			current = existing.Rev
		}
		if *expectedRev != current {
			return domain.ErrLayerConflict
		}
	}

	rev := 1
	if ok {
		rev = existing.Rev + 1
	}
	layer.Rev = rev
	clone := *layer
	f.layers[key] = &clone
	return nil
}

func (f *fakeAnnotationRepo) List(ctx context.Context, fileUUID uuid.UUID) ([]domain.AnnotationLayer, error) {
	var result []domain.AnnotationLayer
	for _, layer := range f.layers {
		if layer.FileUUID == fileUUID {
			result = append(result, *layer)
		}
	}
	return result, nil
}

func (f *fakeAnnotationRepo) Delete(ctx context.Context, fileUUID uuid.UUID, user string) error {
	delete(f.layers, layerKey(fileUUID, user))
	return nil
}

func (f *fakeAnnotationRepo) DeleteAll(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) error {
	for key, layer := range f.layers {
		if layer.FileUUID == fileUUID {
			delete(f.layers, key)
		}
	}
	return nil
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, string, string, string, any) {}

func newAnnotationServer(t *testing.T, fileUUID uuid.UUID) http.Handler {
	t.Helper()
	files := &fakeFileRepo{file: &domain.File{UUID: fileUUID, FileType: domain.FileTypePDF}}
	svc := service.NewAnnotationService(newFakeAnnotationRepo(), files, noopAuditor{})
	h := NewAnnotationHandler(svc)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

func layerURL(fileUUID uuid.UUID, user string) string {
	return fmt.Sprintf("/v1/files/%s/annotations/%s", fileUUID, user)
}

func putLayer(t *testing.T, srv http.Handler, url string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, url, bytes.NewReader(encoded))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestAnnotationHandler_GetMissingLayerReturnsEmpty(t *testing.T) {
	fileUUID := uuid.New()
	srv := newAnnotationServer(t, fileUUID)

	req := httptest.NewRequest(http.MethodGet, layerURL(fileUUID, "alice"), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var layer domain.AnnotationLayer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layer))
	assert.Equal(t, 0, layer.Rev)
	assert.Empty(t, layer.FabricPages)
}

func TestAnnotationHandler_PutGetRoundTrip(t *testing.T) {
	fileUUID := uuid.New()
	srv := newAnnotationServer(t, fileUUID)

	rec := putLayer(t, srv, layerURL(fileUUID, "alice"), map[string]any{
		"fabric_pages": map[string]any{
			"0": map[string]any{"objects": []any{map[string]any{"type": "rect"}}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, layerURL(fileUUID, "alice"), nil)
	getRec := httptest.NewRecorder()
	srv.ServeHTTP(getRec, req)

	require.Equal(t, http.StatusOK, getRec.Code)
	var layer domain.AnnotationLayer
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &layer))
	assert.Equal(t, 1, layer.Rev)
	assert.Contains(t, layer.FabricPages, "0")
}

func TestAnnotationHandler_StaleRevGets409(t *testing.T) {
	fileUUID := uuid.New()
	srv := newAnnotationServer(t, fileUUID)

	pages := map[string]any{"0": map[string]any{"objects": []any{}}}

	// Первая запись проходит, rev становится 1
	rec := putLayer(t, srv, layerURL(fileUUID, "alice"), map[string]any{
		"fabric_pages": pages, "rev": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Повторная запись с тем же rev = 0 устарела
	rec = putLayer(t, srv, layerURL(fileUUID, "alice"), map[string]any{
		"fabric_pages": pages, "rev": 0,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Запись с актуальным rev проходит
	rec = putLayer(t, srv, layerURL(fileUUID, "alice"), map[string]any{
		"fabric_pages": pages, "rev": 1,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnnotationHandler_UnknownFile404(t *testing.T) {
	srv := newAnnotationServer(t, uuid.New())

	req := httptest.NewRequest(http.MethodGet, layerURL(uuid.New(), "alice"), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnnotationHandler_InvalidUUID400(t *testing.T) {
	srv := newAnnotationServer(t, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/v1/files/not-a-uuid/annotations/alice", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnnotationHandler_MergePage(t *testing.T) {
	fileUUID := uuid.New()
	srv := newAnnotationServer(t, fileUUID)

	body, _ := json.Marshal(map[string]any{
		"objects": []any{map[string]any{"type": "path"}},
	})
	req := httptest.NewRequest(http.MethodPost,
		layerURL(fileUUID, "alice")+"/pages/0", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var layer domain.AnnotationLayer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layer))
	assert.Contains(t, layer.FabricPages, "0")
}
