package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"annodrive/internal/domain"
	"annodrive/internal/service/s3"
)

// ResetService возвращает файл к исходному состоянию: содержимое версии 1
// записывается как новая версия, слои аннотаций всех пользователей
// удаляются. История версий при этом сохраняется.
type ResetService struct {
	versions       VersionManager
	versionRepo    VersionRepo
	annotationRepo AnnotationRepo
	s3Client       s3.Storage
	audit          Auditor
}

func NewResetService(
	versions VersionManager,
	versionRepo VersionRepo,
	annotationRepo AnnotationRepo,
	s3Client s3.Storage,
	audit Auditor,
) *ResetService {
	return &ResetService{
		versions:       versions,
		versionRepo:    versionRepo,
		annotationRepo: annotationRepo,
		s3Client:       s3Client,
		audit:          audit,
	}
}

// Reset выполняет сброс файла к оригиналу. Операция необратима для
// аннотаций: удаленные слои восстановить нельзя.
func (s *ResetService) Reset(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.FileVersion, error) {
	original, err := s.versionRepo.GetByNumber(ctx, fileUUID, 1)
	if err != nil {
		return nil, err
	}

	data, err := s.s3Client.GetBytes(ctx, original.S3Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read original content: %w", err)
	}

	// Слои удаляются в транзакции новой версии: либо файл откатился
	// и слои исчезли, либо не произошло ни того, ни другого
	version, err := s.versions.CreateVersionWith(ctx, fileUUID, domain.ActionReset, data, nil,
		func(tx *sqlx.Tx) error {
			return s.annotationRepo.DeleteAll(ctx, tx, fileUUID)
		})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, fileUUID.String(), user, domain.ActionReset, nil)
	return version, nil
}
