package docproc

import (
	"context"
	"fmt"

	"annodrive/internal/domain"
)

// PageRaster — растеризованная страница документа в PNG
type PageRaster struct {
	Data   []byte
	Width  int
	Height int
}

// Compositor растеризует документы постранично, накладывает оверлеи
// и собирает результат обратно в формат исходного документа
type Compositor struct {
	pdf *PDFProcessor
	img *ImageProcessor
}

func NewCompositor(pdf *PDFProcessor, img *ImageProcessor) *Compositor {
	return &Compositor{pdf: pdf, img: img}
}

// RenderPages возвращает страницы документа как PNG с размерами.
// Изображение считается документом из одной страницы.
func (c *Compositor) RenderPages(ctx context.Context, content []byte, fileType string) ([]PageRaster, error) {
	switch fileType {
	case domain.FileTypePDF:
		pages, err := c.pdf.RenderPages(ctx, content)
		if err != nil {
			return nil, err
		}
		rasters := make([]PageRaster, 0, len(pages))
		for _, page := range pages {
			w, h, err := c.img.Dimensions(page)
			if err != nil {
				return nil, err
			}
			rasters = append(rasters, PageRaster{Data: page, Width: w, Height: h})
		}
		return rasters, nil
	case domain.FileTypeImage:
		w, h, err := c.img.Dimensions(content)
		if err != nil {
			return nil, err
		}
		return []PageRaster{{Data: content, Width: w, Height: h}}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", fileType)
	}
}

// CompositePage накладывает оверлеи на страницу по порядку
func (c *Compositor) CompositePage(ctx context.Context, page PageRaster, overlays [][]byte) (PageRaster, error) {
	if len(overlays) == 0 {
		return page, nil
	}
	data, err := c.img.Composite(page.Data, overlays)
	if err != nil {
		return PageRaster{}, err
	}
	return PageRaster{Data: data, Width: page.Width, Height: page.Height}, nil
}

// Assemble собирает страницы в итоговый документ: для PDF — через img2pdf,
// для изображения результатом является единственная страница как есть
func (c *Compositor) Assemble(ctx context.Context, pages []PageRaster, fileType string) ([]byte, error) {
	switch fileType {
	case domain.FileTypePDF:
		raw := make([][]byte, 0, len(pages))
		for _, page := range pages {
			raw = append(raw, page.Data)
		}
		return c.pdf.AssemblePDF(ctx, raw)
	case domain.FileTypeImage:
		if len(pages) != 1 {
			return nil, fmt.Errorf("image document must have exactly one page, got %d", len(pages))
		}
		return pages[0].Data, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", fileType)
	}
}
