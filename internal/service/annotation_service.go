package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"annodrive/internal/domain"
)

// Метки действий журнала для операций над аннотациями
const (
	actionSaveAnnotations  = "save-annotations"
	actionClearAnnotations = "clear-annotations"
)

// Число повторов read-modify-write при конфликте rev
const mergeRetries = 3

// AnnotationService управляет слоями аннотаций: у каждой пары
// (файл, пользователь) ровно один слой, сохраняемый целиком
type AnnotationService struct {
	annotationRepo AnnotationRepo
	fileRepo       FileRepo
	audit          Auditor
}

func NewAnnotationService(annotationRepo AnnotationRepo, fileRepo FileRepo, audit Auditor) *AnnotationService {
	return &AnnotationService{
		annotationRepo: annotationRepo,
		fileRepo:       fileRepo,
		audit:          audit,
	}
}

// GetLayer возвращает слой пользователя. Отсутствие сохраненного слоя —
// не ошибка: возвращается пустой слой с rev = 0.
func (s *AnnotationService) GetLayer(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.AnnotationLayer, error) {
	if _, err := s.fileRepo.GetByUUID(ctx, fileUUID); err != nil {
		return nil, err
	}

	layer, err := s.annotationRepo.Get(ctx, fileUUID, user)
	if err != nil {
		return nil, err
	}
	if layer == nil {
		return domain.EmptyLayer(fileUUID, user), nil
	}
	return layer, nil
}

// PutLayer полностью заменяет слой пользователя. Если expectedRev задан,
// запись отклоняется с domain.ErrLayerConflict при несовпадении rev.
func (s *AnnotationService) PutLayer(ctx context.Context, layer *domain.AnnotationLayer, expectedRev *int) error {
	if layer.User == "" {
		return fmt.Errorf("user must not be empty")
	}
	if _, err := s.fileRepo.GetByUUID(ctx, layer.FileUUID); err != nil {
		return err
	}
	if err := validatePageKeys(layer.FabricPages); err != nil {
		return err
	}
	if layer.FabricPages == nil {
		layer.FabricPages = map[string]json.RawMessage{}
	}

	if err := s.annotationRepo.Upsert(ctx, layer, expectedRev); err != nil {
		return err
	}

	s.audit.Record(ctx, layer.FileUUID.String(), layer.User, actionSaveAnnotations,
		map[string]int{"pages": len(layer.FabricPages)})
	return nil
}

// MergePage дописывает объекты в сцену одной страницы слоя пользователя.
// Конфликт rev с параллельной записью разрешается перечитыванием слоя
// и повтором, не более mergeRetries раз.
func (s *AnnotationService) MergePage(ctx context.Context, fileUUID uuid.UUID, user, pageKey string, objects []json.RawMessage) (*domain.AnnotationLayer, error) {
	if n, err := strconv.Atoi(pageKey); err != nil || n < 0 {
		return nil, fmt.Errorf("invalid page key %q", pageKey)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("no objects to merge")
	}

	var lastErr error
	for attempt := 0; attempt < mergeRetries; attempt++ {
		layer, err := s.GetLayer(ctx, fileUUID, user)
		if err != nil {
			return nil, err
		}

		merged, err := appendObjects(layer.FabricPages[pageKey], objects)
		if err != nil {
			return nil, err
		}
		layer.FabricPages[pageKey] = merged

		expectedRev := layer.Rev
		err = s.annotationRepo.Upsert(ctx, layer, &expectedRev)
		if err == nil {
			s.audit.Record(ctx, fileUUID.String(), user, actionSaveAnnotations,
				map[string]any{"page": pageKey, "merged_objects": len(objects)})
			return layer, nil
		}
		if !errors.Is(err, domain.ErrLayerConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// ListLayers возвращает слои всех пользователей файла,
// упорядоченные по имени пользователя
func (s *AnnotationService) ListLayers(ctx context.Context, fileUUID uuid.UUID) ([]domain.AnnotationLayer, error) {
	if _, err := s.fileRepo.GetByUUID(ctx, fileUUID); err != nil {
		return nil, err
	}
	return s.annotationRepo.List(ctx, fileUUID)
}

// DeleteLayer удаляет слой пользователя; удаление несуществующего слоя
// проходит без ошибки
func (s *AnnotationService) DeleteLayer(ctx context.Context, fileUUID uuid.UUID, user string) error {
	if _, err := s.fileRepo.GetByUUID(ctx, fileUUID); err != nil {
		return err
	}
	if err := s.annotationRepo.Delete(ctx, fileUUID, user); err != nil {
		return err
	}
	s.audit.Record(ctx, fileUUID.String(), user, actionClearAnnotations, nil)
	return nil
}

// validatePageKeys требует, чтобы ключи страниц были неотрицательными
// целыми в строковом виде ("0", "1", ...)
func validatePageKeys(pages map[string]json.RawMessage) error {
	for key := range pages {
		n, err := strconv.Atoi(key)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid page key %q", key)
		}
	}
	return nil
}

// appendObjects сливает новые объекты в конец списка объектов сцены.
// Остальные поля сцены, если они были, сохраняются как есть.
func appendObjects(scene json.RawMessage, objects []json.RawMessage) (json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	if len(scene) > 0 {
		if err := json.Unmarshal(scene, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode page scene: %w", err)
		}
	}

	var existing []json.RawMessage
	if raw, ok := doc["objects"]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &existing); err != nil {
			return nil, fmt.Errorf("failed to decode scene objects: %w", err)
		}
	}
	existing = append(existing, objects...)

	encoded, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scene objects: %w", err)
	}
	doc["objects"] = encoded

	return json.Marshal(doc)
}
