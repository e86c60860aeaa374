package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"annodrive/internal/docproc"
	"annodrive/internal/domain"
)

// Интерфейсы зависимостей сервисов. Продакшен-реализации лежат
// в internal/repository и internal/docproc; в тестах подставляются моки.

type FileRepo interface {
	Create(ctx context.Context, tx *sqlx.Tx, file *domain.File) error
	GetByUUID(ctx context.Context, fileUUID uuid.UUID) (*domain.File, error)
	List(ctx context.Context) ([]domain.File, error)
	Delete(ctx context.Context, fileUUID uuid.UUID) error
	GetCurrentVersion(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) (int, error)
	UpdateCurrentVersion(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID, version int, size int64) error
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
}

type VersionRepo interface {
	Create(ctx context.Context, tx *sqlx.Tx, version *domain.FileVersion) error
	GetByNumber(ctx context.Context, fileUUID uuid.UUID, number int) (*domain.FileVersion, error)
	GetAll(ctx context.Context, fileUUID uuid.UUID) ([]domain.FileVersion, error)
	ListS3Keys(ctx context.Context, fileUUID uuid.UUID) ([]string, error)
}

type AnnotationRepo interface {
	Get(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.AnnotationLayer, error)
	Upsert(ctx context.Context, layer *domain.AnnotationLayer, expectedRev *int) error
	List(ctx context.Context, fileUUID uuid.UUID) ([]domain.AnnotationLayer, error)
	Delete(ctx context.Context, fileUUID uuid.UUID, user string) error
	DeleteAll(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) error
}

type AuditRepo interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	Query(ctx context.Context, fileUUID string, limit int) ([]domain.AuditEntry, error)
}

// Auditor записывает событие в журнал. Запись не возвращает ошибку:
// сбой журнала не должен ломать основную операцию.
type Auditor interface {
	Record(ctx context.Context, fileUUID, user, action string, details any)
}

// VersionManager дает доступ к содержимому текущей версии файла
// и создает новые версии. Реализуется VersionService.
type VersionManager interface {
	CurrentContent(ctx context.Context, fileUUID uuid.UUID) (*domain.File, []byte, error)
	CreateVersion(ctx context.Context, fileUUID uuid.UUID, action string, content []byte, details json.RawMessage) (*domain.FileVersion, error)
	// CreateVersionWith дополнительно выполняет fn в транзакции версии:
	// ошибка fn откатывает и версию
	CreateVersionWith(ctx context.Context, fileUUID uuid.UUID, action string, content []byte, details json.RawMessage, fn func(tx *sqlx.Tx) error) (*domain.FileVersion, error)
}

// PageCompositor растеризует документ постранично и собирает его обратно
type PageCompositor interface {
	RenderPages(ctx context.Context, content []byte, fileType string) ([]docproc.PageRaster, error)
	CompositePage(ctx context.Context, page docproc.PageRaster, overlays [][]byte) (docproc.PageRaster, error)
	Assemble(ctx context.Context, pages []docproc.PageRaster, fileType string) ([]byte, error)
}

// SceneRasterizer превращает векторную сцену в PNG заданного размера
type SceneRasterizer interface {
	RasterizePNG(scene *domain.Scene, width, height int) ([]byte, error)
}

// PDFTransformer выполняет структурные операции над PDF
type PDFTransformer interface {
	PageCount(ctx context.Context, data []byte) (int, error)
	RotatePage(ctx context.Context, data []byte, page, angle int) ([]byte, error)
	DeletePage(ctx context.Context, data []byte, page int) ([]byte, error)
	ReorderPages(ctx context.Context, data []byte, order []int) ([]byte, error)
	Merge(ctx context.Context, docs [][]byte) ([]byte, error)
}

// ImageTransformer выполняет операции над изображениями
type ImageTransformer interface {
	Crop(data []byte, left, top, width, height int) ([]byte, error)
	Resize(data []byte, width, height int) ([]byte, error)
	Rotate(data []byte, angle int) ([]byte, error)
	Adjust(data []byte, brightness, contrast float64) ([]byte, error)
	Enhance(data []byte) ([]byte, error)
}

// PDFAssembler собирает постраничные изображения в один PDF
type PDFAssembler interface {
	AssemblePDF(ctx context.Context, pages [][]byte) ([]byte, error)
}
