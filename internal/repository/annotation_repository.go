package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"annodrive/internal/domain"
)

type AnnotationRepository struct {
	db *sqlx.DB
}

func NewAnnotationRepository(db *sqlx.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// annotationRow хранит слой в том виде, в каком он лежит в БД
// (fabric_pages одним jsonb-полем)
type annotationRow struct {
	FileUUID    uuid.UUID  `db:"file_uuid"`
	Username    string     `db:"username"`
	Rev         int        `db:"rev"`
	FabricPages []byte     `db:"fabric_pages"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

func (row *annotationRow) toLayer() (*domain.AnnotationLayer, error) {
	layer := &domain.AnnotationLayer{
		FileUUID:    row.FileUUID,
		User:        row.Username,
		Rev:         row.Rev,
		FabricPages: map[string]json.RawMessage{},
		UpdatedAt:   row.UpdatedAt,
	}
	if len(row.FabricPages) > 0 {
		if err := json.Unmarshal(row.FabricPages, &layer.FabricPages); err != nil {
			return nil, fmt.Errorf("failed to decode fabric_pages: %w", err)
		}
	}
	return layer, nil
}

// Get возвращает слой пользователя или nil, если пользователь еще ничего не сохранял
func (r *AnnotationRepository) Get(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.AnnotationLayer, error) {
	var row annotationRow
	query := `SELECT * FROM annotation_layers WHERE file_uuid = $1 AND username = $2`

	err := r.db.GetContext(ctx, &row, query, fileUUID, user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get annotation layer: %w", err)
	}
	return row.toLayer()
}

// Upsert полностью заменяет слой пользователя. Если expectedRev задан,
// запись выполняется только при совпадении rev; иначе действует
// правило "последняя запись побеждает".
func (r *AnnotationRepository) Upsert(ctx context.Context, layer *domain.AnnotationLayer, expectedRev *int) error {
	pages, err := json.Marshal(layer.FabricPages)
	if err != nil {
		return fmt.Errorf("failed to encode fabric_pages: %w", err)
	}

	if expectedRev == nil {
		query := `
            INSERT INTO annotation_layers (file_uuid, username, rev, fabric_pages, updated_at)
            VALUES ($1, $2, 1, $3, CURRENT_TIMESTAMP)
            ON CONFLICT (file_uuid, username) DO UPDATE
            SET fabric_pages = EXCLUDED.fabric_pages,
                rev = annotation_layers.rev + 1,
                updated_at = CURRENT_TIMESTAMP
            RETURNING rev, updated_at`
		err = r.db.QueryRowContext(ctx, query, layer.FileUUID, layer.User, pages).
			Scan(&layer.Rev, &layer.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert annotation layer: %w", err)
		}
		return nil
	}

	if *expectedRev == 0 {
		// Клиент видел отсутствующий слой: запись допустима, только если
		// никто не успел создать его первым
		query := `
            INSERT INTO annotation_layers (file_uuid, username, rev, fabric_pages, updated_at)
            VALUES ($1, $2, 1, $3, CURRENT_TIMESTAMP)
            ON CONFLICT (file_uuid, username) DO NOTHING
            RETURNING rev, updated_at`
		err = r.db.QueryRowContext(ctx, query, layer.FileUUID, layer.User, pages).
			Scan(&layer.Rev, &layer.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrLayerConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert annotation layer: %w", err)
		}
		return nil
	}

	query := `
        UPDATE annotation_layers
        SET fabric_pages = $1, rev = rev + 1, updated_at = CURRENT_TIMESTAMP
        WHERE file_uuid = $2 AND username = $3 AND rev = $4
        RETURNING rev, updated_at`
	err = r.db.QueryRowContext(ctx, query, pages, layer.FileUUID, layer.User, *expectedRev).
		Scan(&layer.Rev, &layer.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrLayerConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update annotation layer: %w", err)
	}
	return nil
}

// List возвращает слои всех пользователей файла в устойчивом порядке
func (r *AnnotationRepository) List(ctx context.Context, fileUUID uuid.UUID) ([]domain.AnnotationLayer, error) {
	var rows []annotationRow
	query := `SELECT * FROM annotation_layers WHERE file_uuid = $1 ORDER BY username`

	if err := r.db.SelectContext(ctx, &rows, query, fileUUID); err != nil {
		return nil, fmt.Errorf("failed to list annotation layers: %w", err)
	}

	layers := make([]domain.AnnotationLayer, 0, len(rows))
	for i := range rows {
		layer, err := rows[i].toLayer()
		if err != nil {
			return nil, err
		}
		layers = append(layers, *layer)
	}
	return layers, nil
}

// Delete удаляет слой пользователя; отсутствие слоя не является ошибкой
func (r *AnnotationRepository) Delete(ctx context.Context, fileUUID uuid.UUID, user string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM annotation_layers WHERE file_uuid = $1 AND username = $2`,
		fileUUID, user)
	if err != nil {
		return fmt.Errorf("failed to delete annotation layer: %w", err)
	}
	return nil
}

// DeleteAll удаляет слои всех пользователей файла. Выполняется в транзакции
// вызывающей стороны: при сбросе слои исчезают только вместе с новой версией.
func (r *AnnotationRepository) DeleteAll(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM annotation_layers WHERE file_uuid = $1`, fileUUID)
	if err != nil {
		return fmt.Errorf("failed to delete annotation layers: %w", err)
	}
	return nil
}
