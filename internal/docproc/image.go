package docproc

import (
	"fmt"

	"github.com/h2non/bimg"
)

// ImageProcessor выполняет операции над изображениями через libvips
type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Dimensions возвращает ширину и высоту изображения в пикселях
func (p *ImageProcessor) Dimensions(data []byte) (int, int, error) {
	size, err := bimg.NewImage(data).Size()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image size: %w", err)
	}
	return size.Width, size.Height, nil
}

// Composite накладывает PNG-оверлеи на базовое изображение по порядку.
// Оверлеи должны совпадать с базой по размеру; формат результата
// совпадает с форматом базы.
func (p *ImageProcessor) Composite(base []byte, overlays [][]byte) ([]byte, error) {
	result := base
	for i, overlay := range overlays {
		processed, err := bimg.NewImage(result).Process(bimg.Options{
			WatermarkImage: bimg.WatermarkImage{
				Left:    0,
				Top:     0,
				Buf:     overlay,
				Opacity: 1.0,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to composite overlay %d: %w", i, err)
		}
		result = processed
	}
	return result, nil
}

// Crop вырезает прямоугольную область изображения
func (p *ImageProcessor) Crop(data []byte, left, top, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("crop area must be positive, got %dx%d", width, height)
	}
	result, err := bimg.NewImage(data).Extract(top, left, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to crop image: %w", err)
	}
	return result, nil
}

// Resize изменяет размер изображения до указанных габаритов
func (p *ImageProcessor) Resize(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %dx%d", width, height)
	}
	result, err := bimg.NewImage(data).ForceResize(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}
	return result, nil
}

// Rotate поворачивает изображение на угол, кратный 90 градусам
func (p *ImageProcessor) Rotate(data []byte, angle int) ([]byte, error) {
	if angle != 90 && angle != 180 && angle != 270 {
		return nil, fmt.Errorf("unsupported rotation angle %d", angle)
	}
	result, err := bimg.NewImage(data).Rotate(bimg.Angle(angle))
	if err != nil {
		return nil, fmt.Errorf("failed to rotate image: %w", err)
	}
	return result, nil
}

// Enhance готовит фотографию документа к скан-подобному виду: перевод
// в градации серого, нерезкое маскирование и гамма-коррекция для
// выравнивания освещенности
func (p *ImageProcessor) Enhance(data []byte) ([]byte, error) {
	result, err := bimg.NewImage(data).Process(bimg.Options{
		Interpretation: bimg.InterpretationBW,
		Sharpen:        bimg.Sharpen{Radius: 1, X1: 2, Y2: 10, Y3: 20, M1: 0, M2: 3},
		Gamma:          1.8,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enhance image: %w", err)
	}
	return result, nil
}

// Adjust меняет яркость и контраст изображения
func (p *ImageProcessor) Adjust(data []byte, brightness, contrast float64) ([]byte, error) {
	result, err := bimg.NewImage(data).Process(bimg.Options{
		Brightness: brightness,
		Contrast:   contrast,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to adjust image: %w", err)
	}
	return result, nil
}
