// Package docproc реализует обработку документов: растеризацию и сборку
// страниц PDF через внешние утилиты (pdftoppm, pdfinfo, qpdf, img2pdf)
// и операции над изображениями через libvips (bimg).
package docproc

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	tmpDir      = "/tmp/docproc"
	renderDPI   = 144              // разрешение растеризации страниц PDF
	execTimeout = 60 * time.Second // таймаут для внешних утилит
)

func init() {
	if err := os.MkdirAll(tmpDir, 0o777); err != nil {
		log.Printf("Warning: failed to create directory %s: %v", tmpDir, err)
	}
}

// PDFProcessor выполняет структурные операции и растеризацию PDF,
// делегируя работу утилитам poppler и qpdf
type PDFProcessor struct{}

func NewPDFProcessor() *PDFProcessor {
	return &PDFProcessor{}
}

func workDir() (string, func(), error) {
	path := filepath.Join(tmpDir, fmt.Sprintf("job_%d", time.Now().UnixNano()))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return path, func() { os.RemoveAll(path) }, nil
}

func runTool(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (stderr: %s)", name, err, stderr.String())
	}
	return nil
}

// PageCount возвращает число страниц документа (pdfinfo)
func (p *PDFProcessor) PageCount(ctx context.Context, data []byte) (int, error) {
	dir, cleanup, err := workDir()
	if err != nil {
		return 0, err
	}
	defer cleanup()

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write PDF file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "pdfinfo", pdfPath).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w", err)
	}

	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("failed to parse page count: %w", err)
		}
		return count, nil
	}
	return 0, fmt.Errorf("pdfinfo output has no Pages field")
}

// RenderPages растеризует все страницы документа в PNG (pdftoppm).
// Результат упорядочен по номерам страниц.
func (p *PDFProcessor) RenderPages(ctx context.Context, data []byte) ([][]byte, error) {
	dir, cleanup, err := workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write PDF file: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	err = runTool(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(renderDPI),
		pdfPath,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF pages: %w", err)
	}

	// pdftoppm нумерует страницы с ведущими нулями, поэтому
	// лексикографическая сортировка совпадает с порядком страниц
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}
	sort.Strings(matches)

	pages := make([][]byte, 0, len(matches))
	for _, path := range matches {
		img, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page: %w", err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// AssemblePDF собирает страницы-изображения обратно в один PDF (img2pdf),
// по одной странице на изображение, без перекодирования с потерями
func (p *PDFProcessor) AssemblePDF(ctx context.Context, pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to assemble")
	}

	dir, cleanup, err := workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	args := make([]string, 0, len(pages)+2)
	for i, page := range pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%04d.png", i))
		if err := os.WriteFile(path, page, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write page image: %w", err)
		}
		args = append(args, path)
	}

	outPath := filepath.Join(dir, "output.pdf")
	args = append(args, "-o", outPath)
	if err := runTool(ctx, "img2pdf", args...); err != nil {
		return nil, fmt.Errorf("failed to assemble PDF: %w", err)
	}

	result, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read assembled PDF: %w", err)
	}
	return result, nil
}

// RotatePage поворачивает одну страницу на angle градусов (90, 180, 270)
func (p *PDFProcessor) RotatePage(ctx context.Context, data []byte, page, angle int) ([]byte, error) {
	if angle != 90 && angle != 180 && angle != 270 {
		return nil, fmt.Errorf("unsupported rotation angle %d", angle)
	}

	count, err := p.PageCount(ctx, data)
	if err != nil {
		return nil, err
	}
	if page < 0 || page >= count {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, count)
	}

	return p.transform(ctx, data, func(in, out string) []string {
		// qpdf нумерует страницы с единицы
		return []string{
			fmt.Sprintf("--rotate=+%d:%d", angle, page+1),
			in, out,
		}
	})
}

// DeletePage удаляет одну страницу; единственную страницу удалить нельзя
func (p *PDFProcessor) DeletePage(ctx context.Context, data []byte, page int) ([]byte, error) {
	count, err := p.PageCount(ctx, data)
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return nil, fmt.Errorf("cannot delete the only page")
	}
	if page < 0 || page >= count {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, count)
	}

	spec := PageRangeExcluding(count, page)
	return p.transform(ctx, data, func(in, out string) []string {
		return []string{in, "--pages", ".", spec, "--", out}
	})
}

// ReorderPages переставляет страницы; order — перестановка индексов с нуля
func (p *PDFProcessor) ReorderPages(ctx context.Context, data []byte, order []int) ([]byte, error) {
	count, err := p.PageCount(ctx, data)
	if err != nil {
		return nil, err
	}

	spec, err := OrderSpec(count, order)
	if err != nil {
		return nil, err
	}

	return p.transform(ctx, data, func(in, out string) []string {
		return []string{in, "--pages", ".", spec, "--", out}
	})
}

// Merge соединяет несколько документов в один, в порядке перечисления
func (p *PDFProcessor) Merge(ctx context.Context, docs [][]byte) ([]byte, error) {
	if len(docs) < 2 {
		return nil, fmt.Errorf("merge requires at least two documents")
	}

	dir, cleanup, err := workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	args := []string{"--empty", "--pages"}
	for i, doc := range docs {
		path := filepath.Join(dir, fmt.Sprintf("input-%d.pdf", i))
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write input PDF: %w", err)
		}
		args = append(args, path)
	}

	outPath := filepath.Join(dir, "output.pdf")
	args = append(args, "--", outPath)
	if err := runTool(ctx, "qpdf", args...); err != nil {
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}

	result, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged PDF: %w", err)
	}
	return result, nil
}

func (p *PDFProcessor) transform(ctx context.Context, data []byte, buildArgs func(in, out string) []string) ([]byte, error) {
	dir, cleanup, err := workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	inPath := filepath.Join(dir, "input.pdf")
	outPath := filepath.Join(dir, "output.pdf")
	if err := os.WriteFile(inPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write PDF file: %w", err)
	}

	if err := runTool(ctx, "qpdf", buildArgs(inPath, outPath)...); err != nil {
		return nil, err
	}

	result, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read transformed PDF: %w", err)
	}
	return result, nil
}

// PageRangeExcluding строит спецификацию диапазона страниц qpdf,
// покрывающую все страницы документа, кроме excluded (индекс с нуля)
func PageRangeExcluding(count, excluded int) string {
	var parts []string
	page := excluded + 1 // в нумерации qpdf
	if page > 1 {
		if page == 2 {
			parts = append(parts, "1")
		} else {
			parts = append(parts, fmt.Sprintf("1-%d", page-1))
		}
	}
	if page < count {
		if page == count-1 {
			parts = append(parts, strconv.Itoa(count))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", page+1, count))
		}
	}
	return strings.Join(parts, ",")
}

// OrderSpec строит спецификацию перестановки страниц qpdf.
// order должен быть перестановкой индексов 0..count-1.
func OrderSpec(count int, order []int) (string, error) {
	if len(order) != count {
		return "", fmt.Errorf("order has %d entries, document has %d pages", len(order), count)
	}
	seen := make([]bool, count)
	parts := make([]string, 0, count)
	for _, idx := range order {
		if idx < 0 || idx >= count {
			return "", fmt.Errorf("page index %d out of range", idx)
		}
		if seen[idx] {
			return "", fmt.Errorf("page index %d repeated", idx)
		}
		seen[idx] = true
		parts = append(parts, strconv.Itoa(idx+1))
	}
	return strings.Join(parts, ","), nil
}
