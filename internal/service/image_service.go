package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"annodrive/internal/domain"
)

// ImageService выполняет операции редактирования изображений.
// Каждая операция порождает новую версию файла.
type ImageService struct {
	versions VersionManager
	img      ImageTransformer
	audit    Auditor
}

func NewImageService(versions VersionManager, img ImageTransformer, audit Auditor) *ImageService {
	return &ImageService{versions: versions, img: img, audit: audit}
}

func (s *ImageService) currentImage(ctx context.Context, fileUUID uuid.UUID) ([]byte, error) {
	file, content, err := s.versions.CurrentContent(ctx, fileUUID)
	if err != nil {
		return nil, err
	}
	if file.FileType != domain.FileTypeImage {
		return nil, fmt.Errorf("file %s is not an image", fileUUID)
	}
	return content, nil
}

func (s *ImageService) saveVersion(ctx context.Context, fileUUID uuid.UUID, user, action string, content []byte, details any) (*domain.FileVersion, error) {
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

// Crop вырезает прямоугольную область изображения
func (s *ImageService) Crop(ctx context.Context, fileUUID uuid.UUID, user string, left, top, width, height int) (*domain.FileVersion, error) {
	content, err := s.currentImage(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.img.Crop(content, left, top, width, height)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionCrop, result,
		map[string]int{"left": left, "top": top, "width": width, "height": height})
}

// Resize изменяет размер изображения
func (s *ImageService) Resize(ctx context.Context, fileUUID uuid.UUID, user string, width, height int) (*domain.FileVersion, error) {
	content, err := s.currentImage(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.img.Resize(content, width, height)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionResize, result,
		map[string]int{"width": width, "height": height})
}

// Rotate поворачивает изображение на угол, кратный 90 градусам
func (s *ImageService) Rotate(ctx context.Context, fileUUID uuid.UUID, user string, angle int) (*domain.FileVersion, error) {
	content, err := s.currentImage(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.img.Rotate(content, angle)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionRotate, result,
		map[string]int{"angle": angle})
}

// Enhance улучшает фотографию документа до скан-подобного вида
func (s *ImageService) Enhance(ctx context.Context, fileUUID uuid.UUID, user string) (*domain.FileVersion, error) {
	content, err := s.currentImage(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.img.Enhance(content)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionEnhance, result,
		map[string]bool{"grayscale": true, "sharpen": true})
}

// Adjust меняет яркость и контраст изображения
func (s *ImageService) Adjust(ctx context.Context, fileUUID uuid.UUID, user string, brightness, contrast float64) (*domain.FileVersion, error) {
	content, err := s.currentImage(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	result, err := s.img.Adjust(content, brightness, contrast)
	if err != nil {
		return nil, err
	}
	return s.saveVersion(ctx, fileUUID, user, domain.ActionAdjust, result,
		map[string]float64{"brightness": brightness, "contrast": contrast})
}
