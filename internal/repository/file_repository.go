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

type FileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, tx *sqlx.Tx, file *domain.File) error {
	query := `
        INSERT INTO files (uuid, original_name, file_type, ext, mime_type, size_bytes, current_version)
        VALUES ($1, $2, $3, $4, $5, $6, 1)
        RETURNING created_at, updated_at`

	err := tx.QueryRowContext(
		ctx,
		query,
		file.UUID,
		file.OriginalName,
		file.FileType,
		file.Ext,
		file.MIMEType,
		file.SizeBytes,
	).Scan(&file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByUUID(ctx context.Context, fileUUID uuid.UUID) (*domain.File, error) {
	var file domain.File
	query := `SELECT * FROM files WHERE uuid = $1`

	err := r.db.GetContext(ctx, &file, query, fileUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) List(ctx context.Context) ([]domain.File, error) {
	var files []domain.File
	query := `SELECT * FROM files ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &files, query); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Delete удаляет файл; версии и слои аннотаций уходят каскадом
func (r *FileRepository) Delete(ctx context.Context, fileUUID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE uuid = $1`, fileUUID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}

// GetCurrentVersion читает текущий номер версии с блокировкой строки файла,
// чтобы параллельные структурные операции не выдали одинаковый номер
func (r *FileRepository) GetCurrentVersion(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) (int, error) {
	var version int
	query := `SELECT current_version FROM files WHERE uuid = $1 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, fileUUID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrFileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

func (r *FileRepository) UpdateCurrentVersion(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID, version int, size int64) error {
	query := `
        UPDATE files
        SET current_version = $1, size_bytes = $2, updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $3`
	_, err := tx.ExecContext(ctx, query, version, size, fileUUID)
	if err != nil {
		return fmt.Errorf("failed to update current version: %w", err)
	}
	return nil
}

func (r *FileRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}
