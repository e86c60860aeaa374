package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"annodrive/internal/domain"
	"annodrive/internal/service/s3"
)

const maxFileSize = 100 * 1024 * 1024 // 100MB максимальный размер файла

// FileService управляет жизненным циклом файлов: загрузка, список,
// карточка файла и удаление
type FileService struct {
	fileRepo    FileRepo
	versionRepo VersionRepo
	s3Client    s3.Storage
	assembler   PDFAssembler
	img         ImageTransformer
	audit       Auditor
}

func NewFileService(
	fileRepo FileRepo,
	versionRepo VersionRepo,
	s3Client s3.Storage,
	assembler PDFAssembler,
	img ImageTransformer,
	audit Auditor,
) *FileService {
	return &FileService{
		fileRepo:    fileRepo,
		versionRepo: versionRepo,
		s3Client:    s3Client,
		assembler:   assembler,
		img:         img,
		audit:       audit,
	}
}

// Upload регистрирует новый файл. Загруженное содержимое становится
// версией 1 — оригиналом, к которому ведут revert-to-v1 и сброс.
func (s *FileService) Upload(ctx context.Context, upload *domain.FileUpload) (*domain.File, error) {
	if upload == nil || len(upload.FileData) == 0 || upload.Name == "" {
		return nil, fmt.Errorf("invalid upload: missing file data or name")
	}
	if int64(len(upload.FileData)) > maxFileSize {
		return nil, fmt.Errorf("file size exceeds maximum allowed size of %d bytes", maxFileSize)
	}

	file, err := s.create(ctx, upload.Name, upload.FileData)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, file.UUID.String(), upload.User, domain.ActionUpload,
		map[string]string{"name": upload.Name})
	return file, nil
}

// create регистрирует файл с содержимым data как версией 1
func (s *FileService) create(ctx context.Context, name string, data []byte) (*domain.File, error) {
	fileType, ext, mimeType := domain.ClassifyExtension(name)
	if fileType == "" {
		return nil, fmt.Errorf("unsupported file extension in %q", name)
	}

	file := &domain.File{
		UUID:           uuid.New(),
		OriginalName:   name,
		FileType:       fileType,
		Ext:            ext,
		MIMEType:       mimeType,
		SizeBytes:      int64(len(data)),
		CurrentVersion: 1,
	}
	version := &domain.FileVersion{
		FileUUID:      file.UUID,
		VersionNumber: 1,
		Action:        domain.ActionUpload,
		S3Key:         contentKey(file.UUID, 1),
		SizeBytes:     file.SizeBytes,
	}

	if err := s.s3Client.UploadBytes(ctx, version.S3Key, data); err != nil {
		return nil, fmt.Errorf("failed to upload file content: %w", err)
	}

	tx, err := s.fileRepo.BeginTx(ctx)
	if err != nil {
		s.cleanupObject(version.S3Key)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.fileRepo.Create(ctx, tx, file); err != nil {
		s.cleanupObject(version.S3Key)
		return nil, err
	}
	if err := s.versionRepo.Create(ctx, tx, version); err != nil {
		s.cleanupObject(version.S3Key)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.cleanupObject(version.S3Key)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	file.Versions = []domain.FileVersion{*version}
	return file, nil
}

// CombineImages улучшает текущие версии выбранных изображений как фотографии
// документов, склеивает их в PDF и регистрирует результат как новый файл
func (s *FileService) CombineImages(ctx context.Context, imageUUIDs []uuid.UUID, user string) (*domain.File, error) {
	if len(imageUUIDs) == 0 {
		return nil, fmt.Errorf("combine requires at least one image")
	}

	pages := make([][]byte, 0, len(imageUUIDs))
	sources := make([]string, 0, len(imageUUIDs))
	for _, id := range imageUUIDs {
		file, err := s.fileRepo.GetByUUID(ctx, id)
		if err != nil {
			return nil, err
		}
		if file.FileType != domain.FileTypeImage {
			return nil, fmt.Errorf("file %s is not an image", id)
		}

		version, err := s.versionRepo.GetByNumber(ctx, id, file.CurrentVersion)
		if err != nil {
			return nil, err
		}
		data, err := s.s3Client.GetBytes(ctx, version.S3Key)
		if err != nil {
			return nil, fmt.Errorf("failed to read image content: %w", err)
		}

		enhanced, err := s.img.Enhance(data)
		if err != nil {
			return nil, fmt.Errorf("failed to enhance image %s: %w", id, err)
		}
		pages = append(pages, enhanced)
		sources = append(sources, id.String())
	}

	result, err := s.assembler.AssemblePDF(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble PDF: %w", err)
	}

	file, err := s.create(ctx, "photo-to-pdf.pdf", result)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, file.UUID.String(), user, domain.ActionCombine,
		map[string][]string{"source_files": sources})
	return file, nil
}

func (s *FileService) cleanupObject(key string) {
	if err := s.s3Client.DeleteObject(context.Background(), key); err != nil {
		log.Printf("[File] Failed to clean up object %s: %v", key, err)
	}
}

func (s *FileService) List(ctx context.Context) ([]domain.File, error) {
	return s.fileRepo.List(ctx)
}

// Get возвращает карточку файла вместе с историей версий
func (s *FileService) Get(ctx context.Context, fileUUID uuid.UUID) (*domain.File, error) {
	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	versions, err := s.versionRepo.GetAll(ctx, fileUUID)
	if err != nil {
		return nil, err
	}
	file.Versions = versions
	return file, nil
}

// Delete удаляет файл со всеми версиями, слоями аннотаций и содержимым
// в хранилище. Записи журнала остаются.
func (s *FileService) Delete(ctx context.Context, fileUUID uuid.UUID, user string) error {
	keys, err := s.versionRepo.ListS3Keys(ctx, fileUUID)
	if err != nil {
		return err
	}

	// Версии и слои аннотаций уходят каскадом вместе со строкой файла
	if err := s.fileRepo.Delete(ctx, fileUUID); err != nil {
		return err
	}

	if len(keys) > 0 {
		if err := s.s3Client.DeleteObjects(ctx, keys); err != nil {
			log.Printf("[File] Failed to delete %d objects for file %s: %v", len(keys), fileUUID, err)
		}
	}

	s.audit.Record(ctx, fileUUID.String(), user, "delete", nil)
	return nil
}
