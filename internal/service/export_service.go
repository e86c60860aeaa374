package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"annodrive/internal/domain"
)

// ExportResult — готовый аннотированный документ
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService впечатывает аннотации выбранных пользователей в копию
// документа. Экспорт — чистая операция чтения: он не создает новую версию
// и не меняет ни файл, ни слои.
type ExportService struct {
	versions       VersionManager
	annotationRepo AnnotationRepo
	compositor     PageCompositor
	rasterizer     SceneRasterizer
	audit          Auditor
}

func NewExportService(
	versions VersionManager,
	annotationRepo AnnotationRepo,
	compositor PageCompositor,
	rasterizer SceneRasterizer,
	audit Auditor,
) *ExportService {
	return &ExportService{
		versions:       versions,
		annotationRepo: annotationRepo,
		compositor:     compositor,
		rasterizer:     rasterizer,
		audit:          audit,
	}
}

// Export собирает аннотированный документ: страницы текущей версии файла
// с наложенными слоями выбранных пользователей. Слои накладываются в
// возрастающем порядке имен, поэтому при равном выборе результат всегда
// одинаков. Страницы без аннотаций копируются без изменений; аннотации
// на несуществующих страницах молча отбрасываются.
func (s *ExportService) Export(ctx context.Context, fileUUID uuid.UUID, users []string, requestedBy string) (*ExportResult, error) {
	users = normalizeUsers(users)
	if len(users) == 0 {
		return nil, domain.ErrEmptySelection
	}

	file, content, err := s.versions.CurrentContent(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	layers := make([]*domain.AnnotationLayer, 0, len(users))
	for _, user := range users {
		layer, err := s.annotationRepo.Get(ctx, fileUUID, user)
		if err != nil {
			return nil, err
		}
		if layer != nil && len(layer.FabricPages) > 0 {
			layers = append(layers, layer)
		}
	}

	pages, err := s.compositor.RenderPages(ctx, content, file.FileType)
	if err != nil {
		return nil, fmt.Errorf("failed to render document pages: %w", err)
	}

	for idx := range pages {
		pageKey := strconv.Itoa(idx)
		var overlays [][]byte
		for _, layer := range layers {
			raw, ok := layer.FabricPages[pageKey]
			if !ok {
				continue
			}
			scene, err := domain.ParseScene(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: page %d, user %s: %v",
					domain.ErrRasterization, idx, layer.User, err)
			}
			if len(scene.Objects) == 0 {
				continue
			}
			overlay, err := s.rasterizer.RasterizePNG(scene, pages[idx].Width, pages[idx].Height)
			if err != nil {
				return nil, fmt.Errorf("%w: page %d, user %s: %v",
					domain.ErrRasterization, idx, layer.User, err)
			}
			overlays = append(overlays, overlay)
		}

		pages[idx], err = s.compositor.CompositePage(ctx, pages[idx], overlays)
		if err != nil {
			return nil, fmt.Errorf("failed to composite page %d: %w", idx, err)
		}
	}

	data, err := s.compositor.Assemble(ctx, pages, file.FileType)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble document: %w", err)
	}

	contentType := file.MIMEType
	if file.FileType == domain.FileTypePDF {
		contentType = "application/pdf"
	}

	s.audit.Record(ctx, fileUUID.String(), requestedBy, "export",
		map[string]any{"users": users})

	return &ExportResult{
		Data:        data,
		ContentType: contentType,
		Filename:    "annotated_" + file.OriginalName,
	}, nil
}

// normalizeUsers убирает пустые имена и дубликаты и сортирует по возрастанию
func normalizeUsers(users []string) []string {
	seen := make(map[string]struct{}, len(users))
	result := make([]string, 0, len(users))
	for _, user := range users {
		if user == "" {
			continue
		}
		if _, ok := seen[user]; ok {
			continue
		}
		seen[user] = struct{}{}
		result = append(result, user)
	}
	sort.Strings(result)
	return result
}
