package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"annodrive/internal/domain"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
        INSERT INTO audit_log (file_uuid, username, action, details)
        VALUES ($1, $2, $3, COALESCE($4, '{}'::jsonb))
        RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.FileUUID,
		entry.User,
		entry.Action,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query возвращает не более limit последних записей журнала файла
// в порядке вставки (старые сверху)
func (r *AuditRepository) Query(ctx context.Context, fileUUID string, limit int) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	query := `
        SELECT * FROM audit_log
        WHERE ($1 = '' OR file_uuid = $1)
        ORDER BY id DESC
        LIMIT $2`

	if err := r.db.SelectContext(ctx, &entries, query, fileUUID, limit); err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	// Переворачиваем: наружу отдаем в порядке вставки
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
