package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"annodrive/internal/docproc"
	"annodrive/internal/domain"
)

type MockFileRepo struct {
	mock.Mock
}

func (m *MockFileRepo) Create(ctx context.Context, tx *sqlx.Tx, file *domain.File) error {
	args := m.Called(ctx, tx, file)
	return args.Error(0)
}

func (m *MockFileRepo) GetByUUID(ctx context.Context, fileUUID uuid.UUID) (*domain.File, error) {
	args := m.Called(ctx, fileUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.File), args.Error(1)
}

func (m *MockFileRepo) List(ctx context.Context) ([]domain.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.File), args.Error(1)
}

func (m *MockFileRepo) Delete(ctx context.Context, fileUUID uuid.UUID) error {
	args := m.Called(ctx, fileUUID)
	return args.Error(0)
}

func (m *MockFileRepo) GetCurrentVersion(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, fileUUID)
	return args.Int(0), args.Error(1)
}

func (m *MockFileRepo) UpdateCurrentVersion(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID, version int, size int64) error {
	args := m.Called(ctx, tx, fileUUID, version, size)
	return args.Error(0)
}

func (m *MockFileRepo) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqlx.Tx), args.Error(1)
}

type MockVersionRepo struct {
	mock.Mock
}

func (m *MockVersionRepo) Create(ctx context.Context, tx *sqlx.Tx, version *domain.FileVersion) error {
	args := m.Called(ctx, tx, version)
	return args.Error(0)
}

func (m *MockVersionRepo) GetByNumber(ctx context.Context, fileUUID uuid.UUID, number int) (*domain.FileVersion, error) {
	args := m.Called(ctx, fileUUID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileVersion), args.Error(1)
}

func (m *MockVersionRepo) GetAll(ctx context.Context, fileUUID uuid.UUID) ([]domain.FileVersion, error) {
	args := m.Called(ctx, fileUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FileVersion), args.Error(1)
}

func (m *MockVersionRepo) ListS3Keys(ctx context.Context, fileUUID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, fileUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockAnnotationRepo struct {
	mock.Mock
}

func (m *MockAnnotationRepo) Get(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.AnnotationLayer, error) {
	args := m.Called(ctx, fileUUID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnnotationLayer), args.Error(1)
}

func (m *MockAnnotationRepo) Upsert(ctx context.Context, layer *domain.AnnotationLayer, expectedRev *int) error {
	args := m.Called(ctx, layer, expectedRev)
	return args.Error(0)
}

func (m *MockAnnotationRepo) List(ctx context.Context, fileUUID uuid.UUID) ([]domain.AnnotationLayer, error) {
	args := m.Called(ctx, fileUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnnotationLayer), args.Error(1)
}

func (m *MockAnnotationRepo) Delete(ctx context.Context, fileUUID uuid.UUID, user string) error {
	args := m.Called(ctx, fileUUID, user)
	return args.Error(0)
}

func (m *MockAnnotationRepo) DeleteAll(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) error {
	args := m.Called(ctx, tx, fileUUID)
	return args.Error(0)
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepo) Query(ctx context.Context, fileUUID string, limit int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, fileUUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

// MockAuditor просто собирает записанные действия
type MockAuditor struct {
	Actions []string
}

func (m *MockAuditor) Record(ctx context.Context, fileUUID, user, action string, details any) {
	m.Actions = append(m.Actions, action)
}

type MockVersionManager struct {
	mock.Mock
}

func (m *MockVersionManager) CurrentContent(ctx context.Context, fileUUID uuid.UUID) (*domain.File, []byte, error) {
	args := m.Called(ctx, fileUUID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.File), args.Get(1).([]byte), args.Error(2)
}

func (m *MockVersionManager) CreateVersion(ctx context.Context, fileUUID uuid.UUID, action string, content []byte, details json.RawMessage) (*domain.FileVersion, error) {
	args := m.Called(ctx, fileUUID, action, content, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileVersion), args.Error(1)
}

// CreateVersionWith повторяет транзакционную семантику: ошибка fn
// означает откат, версия не возвращается
func (m *MockVersionManager) CreateVersionWith(ctx context.Context, fileUUID uuid.UUID, action string, content []byte, details json.RawMessage, fn func(tx *sqlx.Tx) error) (*domain.FileVersion, error) {
	args := m.Called(ctx, fileUUID, action, content, details)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(nil); err != nil {
			return nil, err
		}
	}
	return args.Get(0).(*domain.FileVersion), nil
}

type MockCompositor struct {
	mock.Mock
}

func (m *MockCompositor) RenderPages(ctx context.Context, content []byte, fileType string) ([]docproc.PageRaster, error) {
	args := m.Called(ctx, content, fileType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docproc.PageRaster), args.Error(1)
}

func (m *MockCompositor) CompositePage(ctx context.Context, page docproc.PageRaster, overlays [][]byte) (docproc.PageRaster, error) {
	args := m.Called(ctx, page, overlays)
	return args.Get(0).(docproc.PageRaster), args.Error(1)
}

func (m *MockCompositor) Assemble(ctx context.Context, pages []docproc.PageRaster, fileType string) ([]byte, error) {
	args := m.Called(ctx, pages, fileType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) RasterizePNG(scene *domain.Scene, width, height int) ([]byte, error) {
	args := m.Called(scene, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockS3 struct {
	mock.Mock
}

func (m *MockS3) UploadBytes(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockS3) GetBytes(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockS3) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockS3) DeleteObjects(ctx context.Context, keys []string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

type MockImageTransformer struct {
	mock.Mock
}

func (m *MockImageTransformer) Crop(data []byte, left, top, width, height int) ([]byte, error) {
	args := m.Called(data, left, top, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageTransformer) Resize(data []byte, width, height int) ([]byte, error) {
	args := m.Called(data, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageTransformer) Rotate(data []byte, angle int) ([]byte, error) {
	args := m.Called(data, angle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageTransformer) Adjust(data []byte, brightness, contrast float64) ([]byte, error) {
	args := m.Called(data, brightness, contrast)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageTransformer) Enhance(data []byte) ([]byte, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockAssembler struct {
	mock.Mock
}

func (m *MockAssembler) AssemblePDF(ctx context.Context, pages [][]byte) ([]byte, error) {
	args := m.Called(ctx, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockPDFTransformer struct {
	mock.Mock
}

func (m *MockPDFTransformer) PageCount(ctx context.Context, data []byte) (int, error) {
	args := m.Called(ctx, data)
	return args.Int(0), args.Error(1)
}

func (m *MockPDFTransformer) RotatePage(ctx context.Context, data []byte, page, angle int) ([]byte, error) {
	args := m.Called(ctx, data, page, angle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPDFTransformer) DeletePage(ctx context.Context, data []byte, page int) ([]byte, error) {
	args := m.Called(ctx, data, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPDFTransformer) ReorderPages(ctx context.Context, data []byte, order []int) ([]byte, error) {
	args := m.Called(ctx, data, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPDFTransformer) Merge(ctx context.Context, docs [][]byte) ([]byte, error) {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
