// Package raster растеризует векторные сцены аннотаций в изображения
// с прозрачным фоном. Сцена — набор помеченных объектов (штрих, прямоугольник,
// эллипс, текст); размер результата задает вызывающая сторона и должен
// совпадать с пиксельными размерами страницы документа.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"annodrive/internal/domain"
)

const (
	defaultStrokeWidth = 2.0
	defaultFontSize    = 16.0
	ellipseSegments    = 64
)

var defaultColor = color.NRGBA{0, 0, 0, 255}

// Rasterizer переводит сцены в RGBA-растры. Экземпляр безопасен для
// параллельного использования: шрифт после разбора только читается,
// face создается на каждый вызов.
type Rasterizer struct {
	font *sfnt.Font
}

func New() (*Rasterizer, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	return &Rasterizer{font: fnt}, nil
}

// Rasterize отрисовывает сцену на прозрачном холсте width x height.
// Объекты рисуются в порядке следования в сцене; объекты неизвестного
// вида пропускаются.
func (r *Rasterizer) Rasterize(scene *domain.Scene, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster dimensions %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range scene.Objects {
		obj := &scene.Objects[i]
		switch obj.Kind {
		case domain.ObjectPath:
			r.drawPath(dst, obj)
		case domain.ObjectRect:
			r.drawRect(dst, obj)
		case domain.ObjectEllipse:
			r.drawEllipse(dst, obj)
		case domain.ObjectText:
			if err := r.drawText(dst, obj); err != nil {
				return nil, err
			}
		}
	}
	return dst, nil
}

// RasterizePNG отрисовывает сцену и кодирует результат в PNG с альфа-каналом
func (r *Rasterizer) RasterizePNG(scene *domain.Scene, width, height int) ([]byte, error) {
	img, err := r.Rasterize(scene, width, height)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode raster as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func strokeColor(obj *domain.SceneObject) color.NRGBA {
	if c, ok := ParseColor(obj.Stroke); ok {
		return c
	}
	return defaultColor
}

func strokeWidth(obj *domain.SceneObject) float64 {
	if obj.StrokeWidth > 0 {
		return obj.StrokeWidth
	}
	return defaultStrokeWidth
}

func (r *Rasterizer) drawPath(dst *image.RGBA, obj *domain.SceneObject) {
	if len(obj.Points) < 2 {
		return
	}
	pts := make([][2]float64, len(obj.Points))
	for i, p := range obj.Points {
		pts[i] = [2]float64{p[0] + obj.Left, p[1] + obj.Top}
	}
	strokePolyline(dst, pts, strokeWidth(obj), strokeColor(obj), false)
}

func (r *Rasterizer) drawRect(dst *image.RGBA, obj *domain.SceneObject) {
	corners := [][2]float64{
		{obj.Left, obj.Top},
		{obj.Left + obj.Width, obj.Top},
		{obj.Left + obj.Width, obj.Top + obj.Height},
		{obj.Left, obj.Top + obj.Height},
	}

	if c, ok := ParseColor(obj.Fill); ok {
		fillPolygon(dst, corners, c)
	}
	if _, ok := ParseColor(obj.Stroke); ok || obj.Fill == "" {
		strokePolyline(dst, corners, strokeWidth(obj), strokeColor(obj), true)
	}
}

func (r *Rasterizer) drawEllipse(dst *image.RGBA, obj *domain.SceneObject) {
	rx, ry := obj.RX, obj.RY
	if rx <= 0 || ry <= 0 {
		return
	}
	cx := obj.Left + rx
	cy := obj.Top + ry

	// Эллипс аппроксимируется ломаной; при 64 сегментах погрешность
	// меньше половины пикселя на страничных размерах
	pts := make([][2]float64, ellipseSegments)
	for i := 0; i < ellipseSegments; i++ {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = [2]float64{cx + rx*math.Cos(a), cy + ry*math.Sin(a)}
	}

	if c, ok := ParseColor(obj.Fill); ok {
		fillPolygon(dst, pts, c)
	}
	if _, ok := ParseColor(obj.Stroke); ok || obj.Fill == "" {
		strokePolyline(dst, pts, strokeWidth(obj), strokeColor(obj), true)
	}
}

func (r *Rasterizer) drawText(dst *image.RGBA, obj *domain.SceneObject) error {
	if obj.Text == "" {
		return nil
	}

	size := obj.FontSize
	if size <= 0 {
		size = defaultFontSize
	}

	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	// Текстовые объекты используют fill как цвет букв
	col := defaultColor
	if c, ok := ParseColor(obj.Fill); ok {
		col = c
	} else if c, ok := ParseColor(obj.Stroke); ok {
		col = c
	}

	// Координата top задает верх строки, переводим в базовую линию
	ascent := face.Metrics().Ascent
	drawer := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: floatToFixed(obj.Left),
			Y: floatToFixed(obj.Top) + ascent,
		},
	}
	drawer.DrawString(obj.Text)
	return nil
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// fillPolygon заливает многоугольник по правилу ненулевого индекса
func fillPolygon(dst *image.RGBA, pts [][2]float64, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	b := dst.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())
	ras.MoveTo(float32(pts[0][0]), float32(pts[0][1]))
	for _, p := range pts[1:] {
		ras.LineTo(float32(p[0]), float32(p[1]))
	}
	ras.ClosePath()
	ras.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// strokePolyline обводит ломаную линией заданной толщины: каждый сегмент
// рисуется четырехугольником, стыки и концы закрываются кругами
func strokePolyline(dst *image.RGBA, pts [][2]float64, width float64, col color.NRGBA, closed bool) {
	if len(pts) < 2 {
		return
	}
	half := width / 2
	if half <= 0 {
		half = defaultStrokeWidth / 2
	}

	b := dst.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())

	n := len(pts)
	segments := n - 1
	if closed {
		segments = n
	}
	for i := 0; i < segments; i++ {
		p1 := pts[i]
		p2 := pts[(i+1)%n]
		addSegmentQuad(ras, p1, p2, half)
	}
	for i := 0; i < n; i++ {
		if !closed && i == 0 {
			// Начало и конец открытой линии тоже закрываются кругом,
			// чтобы получить скругленные торцы
			addCircle(ras, pts[0], half)
			continue
		}
		addCircle(ras, pts[i], half)
	}

	ras.Draw(dst, b, image.NewUniform(col), image.Point{})
}

func addSegmentQuad(ras *vector.Rasterizer, p1, p2 [2]float64, half float64) {
	dx := p2[0] - p1[0]
	dy := p2[1] - p1[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	// Нормаль к сегменту длиной в полтолщины
	nx := -dy / length * half
	ny := dx / length * half

	ras.MoveTo(float32(p1[0]+nx), float32(p1[1]+ny))
	ras.LineTo(float32(p2[0]+nx), float32(p2[1]+ny))
	ras.LineTo(float32(p2[0]-nx), float32(p2[1]-ny))
	ras.LineTo(float32(p1[0]-nx), float32(p1[1]-ny))
	ras.ClosePath()
}

func addCircle(ras *vector.Rasterizer, c [2]float64, radius float64) {
	if radius <= 0 {
		return
	}
	// Круг из четырех кубических кривых Безье
	const k = 0.5522847498
	kr := k * radius
	x, y := c[0], c[1]

	ras.MoveTo(float32(x+radius), float32(y))
	ras.CubeTo(float32(x+radius), float32(y+kr), float32(x+kr), float32(y+radius), float32(x), float32(y+radius))
	ras.CubeTo(float32(x-kr), float32(y+radius), float32(x-radius), float32(y+kr), float32(x-radius), float32(y))
	ras.CubeTo(float32(x-radius), float32(y-kr), float32(x-kr), float32(y-radius), float32(x), float32(y-radius))
	ras.CubeTo(float32(x+kr), float32(y-radius), float32(x+radius), float32(y-kr), float32(x+radius), float32(y))
	ras.ClosePath()
}
