package raster

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annodrive/internal/domain"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected color.NRGBA
		ok       bool
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}, true},
		{"#f00", color.NRGBA{R: 255, A: 255}, true},
		{"#00ff0080", color.NRGBA{G: 255, A: 128}, true},
		{"rgb(0, 0, 255)", color.NRGBA{B: 255, A: 255}, true},
		{"rgba(255, 0, 0, 0.5)", color.NRGBA{R: 255, A: 127}, true},
		{"red", color.NRGBA{R: 255, A: 255}, true},
		{"transparent", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
		{"none", color.NRGBA{}, false},
		{"#zz0000", color.NRGBA{}, false},
	}

	for _, tt := range tests {
		c, ok := ParseColor(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.expected, c, "input %q", tt.input)
		}
	}
}

func countOpaque(t *testing.T, data []byte) (opaque, total int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			total++
			if a > 0 {
				opaque++
			}
		}
	}
	return opaque, total
}

func TestRasterize_EmptySceneIsTransparent(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	data, err := r.RasterizePNG(&domain.Scene{}, 100, 80)
	require.NoError(t, err)

	opaque, total := countOpaque(t, data)
	assert.Equal(t, 100*80, total)
	assert.Zero(t, opaque, "empty scene must produce a fully transparent overlay")
}

func TestRasterize_RectLeavesInk(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	scene := &domain.Scene{Objects: []domain.SceneObject{{
		Kind:        domain.ObjectRect,
		Left:        10,
		Top:         10,
		Width:       50,
		Height:      30,
		Stroke:      "#ff0000",
		StrokeWidth: 3,
	}}}

	data, err := r.RasterizePNG(scene, 100, 80)
	require.NoError(t, err)

	opaque, _ := countOpaque(t, data)
	assert.Greater(t, opaque, 0, "stroked rect must leave visible pixels")
}

func TestRasterize_FilledRectCoversArea(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	scene := &domain.Scene{Objects: []domain.SceneObject{{
		Kind:   domain.ObjectRect,
		Left:   0,
		Top:    0,
		Width:  100,
		Height: 80,
		Fill:   "#00ff00",
	}}}

	data, err := r.RasterizePNG(scene, 100, 80)
	require.NoError(t, err)

	opaque, total := countOpaque(t, data)
	assert.Greater(t, opaque, total/2, "full-canvas fill must cover most pixels")
}

func TestRasterize_PathAndEllipseAndText(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	scene := &domain.Scene{Objects: []domain.SceneObject{
		{
			Kind:   domain.ObjectPath,
			Points: [][2]float64{{5, 5}, {50, 40}, {90, 10}},
			Stroke: "#000000",
		},
		{
			Kind:   domain.ObjectEllipse,
			Left:   20,
			Top:    20,
			RX:     15,
			RY:     10,
			Stroke: "blue",
		},
		{
			Kind:     domain.ObjectText,
			Left:     10,
			Top:      50,
			Text:     "note",
			FontSize: 14,
			Fill:     "#333333",
		},
	}}

	data, err := r.RasterizePNG(scene, 120, 90)
	require.NoError(t, err)

	opaque, _ := countOpaque(t, data)
	assert.Greater(t, opaque, 0)
}

func TestRasterize_UnknownKindSkipped(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	scene := &domain.Scene{Objects: []domain.SceneObject{{
		Kind: "hologram",
	}}}

	data, err := r.RasterizePNG(scene, 40, 40)
	require.NoError(t, err)

	opaque, _ := countOpaque(t, data)
	assert.Zero(t, opaque)
}

func TestRasterize_Deterministic(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	scene := &domain.Scene{Objects: []domain.SceneObject{{
		Kind:   domain.ObjectEllipse,
		Left:   30,
		Top:    30,
		RX:     20,
		RY:     20,
		Stroke: "#112233",
		Fill:   "#44556677",
	}}}

	first, err := r.RasterizePNG(scene, 100, 100)
	require.NoError(t, err)
	second, err := r.RasterizePNG(scene, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same scene must produce byte-identical output")
}

func TestRasterize_InvalidDimensions(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	_, err = r.Rasterize(&domain.Scene{}, 0, 100)
	assert.Error(t, err)
	_, err = r.Rasterize(&domain.Scene{}, 100, -1)
	assert.Error(t, err)
}
