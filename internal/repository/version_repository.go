package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"annodrive/internal/domain"
)

type VersionRepository struct {
	db *sqlx.DB
}

func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

func (r *VersionRepository) Create(ctx context.Context, tx *sqlx.Tx, version *domain.FileVersion) error {
	query := `
        INSERT INTO file_versions (file_uuid, version_number, action, s3_key, size_bytes, details)
        VALUES ($1, $2, $3, $4, $5, COALESCE($6, '{}'::jsonb))
        RETURNING id, created_at`

	err := tx.QueryRowContext(ctx, query,
		version.FileUUID,
		version.VersionNumber,
		version.Action,
		version.S3Key,
		version.SizeBytes,
		version.Details,
	).Scan(&version.ID, &version.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file version: %w", err)
	}
	return nil
}

func (r *VersionRepository) GetByNumber(ctx context.Context, fileUUID uuid.UUID, number int) (*domain.FileVersion, error) {
	var version domain.FileVersion
	query := `SELECT * FROM file_versions WHERE file_uuid = $1 AND version_number = $2`

	err := r.db.GetContext(ctx, &version, query, fileUUID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version %d: %w", number, err)
	}
	return &version, nil
}

// GetAll возвращает историю версий файла, новые сверху
func (r *VersionRepository) GetAll(ctx context.Context, fileUUID uuid.UUID) ([]domain.FileVersion, error) {
	var versions []domain.FileVersion
	query := `
        SELECT * FROM file_versions
        WHERE file_uuid = $1
        ORDER BY version_number DESC`

	if err := r.db.SelectContext(ctx, &versions, query, fileUUID); err != nil {
		return nil, fmt.Errorf("failed to get file versions: %w", err)
	}
	return versions, nil
}

// ListS3Keys возвращает ключи содержимого всех версий файла
// (используется при удалении файла для очистки хранилища)
func (r *VersionRepository) ListS3Keys(ctx context.Context, fileUUID uuid.UUID) ([]string, error) {
	var keys []string
	query := `SELECT s3_key FROM file_versions WHERE file_uuid = $1`

	if err := r.db.SelectContext(ctx, &keys, query, fileUUID); err != nil {
		return nil, fmt.Errorf("failed to list version keys: %w", err)
	}
	return keys, nil
}
