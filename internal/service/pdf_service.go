package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"annodrive/internal/domain"
)

// PDFService выполняет структурные операции над PDF-файлами.
// Каждая операция порождает новую версию файла.
type PDFService struct {
	versions   VersionManager
	pdf        PDFTransformer
	compositor PageCompositor
	img        ImageTransformer
	audit      Auditor
}

func NewPDFService(versions VersionManager, pdf PDFTransformer, compositor PageCompositor, img ImageTransformer, audit Auditor) *PDFService {
	return &PDFService{versions: versions, pdf: pdf, compositor: compositor, img: img, audit: audit}
}

func (s *PDFService) currentPDF(ctx context.Context, fileUUID uuid.UUID) (*domain.File, []byte, error) {
	file, content, err := s.versions.CurrentContent(ctx, fileUUID)
	if err != nil {
		return nil, nil, err
	}
	if file.FileType != domain.FileTypePDF {
		return nil, nil, fmt.Errorf("file %s is not a PDF", fileUUID)
	}
	return file, content, nil
}

func (s *PDFService) saveVersion(ctx context.Context, fileUUID uuid.UUID, user, action string, content []byte, details any) (*domain.FileVersion, error) {
	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode operation details: %w", err)
	}

	version, err := s.versions.CreateVersion(ctx, fileUUID, action, content, encoded)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, fileUUID.String(), user, action, details)
	return version, nil
}

// RotatePage поворачивает страницу page (индекс с нуля) на angle градусов
func (s *PDFService) RotatePage(ctx context.Context, fileUUID uuid.UUID, user string, page, angle int) (*domain.FileVersion, error) {
	_, content, err := s.currentPDF(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.pdf.RotatePage(ctx, content, page, angle)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionRotatePage, result,
		map[string]int{"page": page, "angle": angle})
}

// DeletePage удаляет страницу page (индекс с нуля)
func (s *PDFService) DeletePage(ctx context.Context, fileUUID uuid.UUID, user string, page int) (*domain.FileVersion, error) {
	_, content, err := s.currentPDF(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.pdf.DeletePage(ctx, content, page)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionDeletePage, result,
		map[string]int{"page": page})
}

// ReorderPages переставляет страницы согласно перестановке order
func (s *PDFService) ReorderPages(ctx context.Context, fileUUID uuid.UUID, user string, order []int) (*domain.FileVersion, error) {
	_, content, err := s.currentPDF(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.pdf.ReorderPages(ctx, content, order)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionReorderPages, result,
		map[string][]int{"order": order})
}

// Merge дописывает страницы файлов others в конец файла fileUUID.
// Новая версия создается только у первого файла, остальные не меняются.
func (s *PDFService) Merge(ctx context.Context, fileUUID uuid.UUID, others []uuid.UUID, user string) (*domain.FileVersion, error) {
	if len(others) == 0 {
		return nil, fmt.Errorf("merge requires at least one additional file")
	}

	_, base, err := s.currentPDF(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	docs := [][]byte{base}
	merged := make([]string, 0, len(others))
	for _, other := range others {
		if other == fileUUID {
			return nil, fmt.Errorf("cannot merge a file with itself")
		}
		_, content, err := s.currentPDF(ctx, other)
		if err != nil {
			return nil, err
		}
		docs = append(docs, content)
		merged = append(merged, other.String())
	}

	result, err := s.pdf.Merge(ctx, docs)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionMerge, result,
		map[string][]string{"merged_files": merged})
}

// Enhance перерисовывает документ в скан-подобном виде: страницы
// растеризуются, каждая улучшается как фотография документа, результат
// собирается обратно в PDF. Векторное содержимое при этом теряется.
func (s *PDFService) Enhance(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.FileVersion, error) {
	_, content, err := s.currentPDF(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	pages, err := s.compositor.RenderPages(ctx, content, domain.FileTypePDF)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF pages: %w", err)
	}
	for i := range pages {
		enhanced, err := s.img.Enhance(pages[i].Data)
		if err != nil {
			return nil, fmt.Errorf("failed to enhance page %d: %w", i, err)
		}
		pages[i].Data = enhanced
	}

	result, err := s.compositor.Assemble(ctx, pages, domain.FileTypePDF)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble enhanced PDF: %w", err)
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionEnhance, result,
		map[string]bool{"grayscale": true, "sharpen": true})
}

// PageCount возвращает число страниц текущей версии PDF
func (s *PDFService) PageCount(ctx context.Context, fileUUID uuid.UUID) (int, error) {
	_, content, err := s.currentPDF(ctx, fileUUID)
	if err != nil {
		return 0, err
	}
	return s.pdf.PageCount(ctx, content)
}
