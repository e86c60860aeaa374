package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"annodrive/internal/domain"
	"annodrive/internal/service/s3"
)

// VersionService отвечает за историю версий файла: создание новых версий,
// откат и выдачу содержимого по селектору. История только дополняется,
// содержимое существующих версий никогда не меняется.
type VersionService struct {
	fileRepo    FileRepo
	versionRepo VersionRepo
	s3Client    s3.Storage
	audit       Auditor
}

func NewVersionService(fileRepo FileRepo, versionRepo VersionRepo, s3Client s3.Storage, audit Auditor) *VersionService {
	return &VersionService{
		fileRepo:    fileRepo,
		versionRepo: versionRepo,
		s3Client:    s3Client,
		audit:       audit,
	}
}

func contentKey(fileUUID uuid.UUID, version int) string {
	return fmt.Sprintf("doc_editor_files/%s/v%d", fileUUID, version)
}

// CreateVersion создает следующую версию файла с указанным содержимым.
// Номер версии выдается под блокировкой строки файла, поэтому параллельные
// операции над одним файлом сериализуются и номера не повторяются.
func (s *VersionService) CreateVersion(
	ctx context.Context,
	fileUUID uuid.UUID,
	action string,
	content []byte,
	details json.RawMessage,
) (*domain.FileVersion, error) {
	return s.CreateVersionWith(ctx, fileUUID, action, content, details, nil)
}

// CreateVersionWith создает версию и выполняет fn в той же транзакции.
// Если fn возвращает ошибку, транзакция откатывается и версия не появляется:
// сопутствующие изменения фиксируются только вместе с версией.
func (s *VersionService) CreateVersionWith(
	ctx context.Context,
	fileUUID uuid.UUID,
	action string,
	content []byte,
	details json.RawMessage,
	fn func(tx *sqlx.Tx) error,
) (*domain.FileVersion, error) {
	tx, err := s.fileRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.fileRepo.GetCurrentVersion(ctx, tx, fileUUID)
	if err != nil {
		return nil, err
	}
	next := current + 1

	version := &domain.FileVersion{
		FileUUID:      fileUUID,
		VersionNumber: next,
		Action:        action,
		S3Key:         contentKey(fileUUID, next),
		SizeBytes:     int64(len(content)),
		Details:       details,
	}

	if err := s.s3Client.UploadBytes(ctx, version.S3Key, content); err != nil {
		return nil, fmt.Errorf("failed to upload version content: %w", err)
	}

	if err := s.versionRepo.Create(ctx, tx, version); err != nil {
		s.cleanupObject(version.S3Key)
		return nil, err
	}
	if err := s.fileRepo.UpdateCurrentVersion(ctx, tx, fileUUID, next, version.SizeBytes); err != nil {
		s.cleanupObject(version.S3Key)
		return nil, err
	}
	if fn != nil {
		if err := fn(tx); err != nil {
			s.cleanupObject(version.S3Key)
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		s.cleanupObject(version.S3Key)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return version, nil
}

func (s *VersionService) cleanupObject(key string) {
	if err := s.s3Client.DeleteObject(context.Background(), key); err != nil {
		log.Printf("[Version] Failed to clean up object %s: %v", key, err)
	}
}

// GetVersions возвращает историю версий файла, новые сверху
func (s *VersionService) GetVersions(ctx context.Context, fileUUID uuid.UUID) ([]domain.FileVersion, error) {
	if _, err := s.fileRepo.GetByUUID(ctx, fileUUID); err != nil {
		return nil, err
	}
	return s.versionRepo.GetAll(ctx, fileUUID)
}

// Download возвращает содержимое версии, выбранной селектором:
// оригинал (версия 1), текущую или конкретный номер
func (s *VersionService) Download(ctx context.Context, fileUUID uuid.UUID, sel domain.VersionSelector) (*domain.FileDownload, error) {
	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	number := sel.Number
	switch {
	case sel.Original:
		number = 1
	case sel.Current:
		number = file.CurrentVersion
	}

	// Отсутствующая версия при скачивании — такое же "не найдено",
	// как и отсутствующий файл
	version, err := s.versionRepo.GetByNumber(ctx, fileUUID, number)
	if err != nil {
		return nil, err
	}

	data, err := s.s3Client.GetBytes(ctx, version.S3Key)
	if err != nil {
		return nil, fmt.Errorf("failed to download version content: %w", err)
	}

	return &domain.FileDownload{File: file, Version: version, Data: data}, nil
}

// CurrentContent возвращает файл и содержимое его текущей версии
func (s *VersionService) CurrentContent(ctx context.Context, fileUUID uuid.UUID) (*domain.File, []byte, error) {
	dl, err := s.Download(ctx, fileUUID, domain.VersionSelector{Current: true})
	if err != nil {
		return nil, nil, err
	}
	return dl.File, dl.Data, nil
}

// Revert откатывает файл к версии target копированием: содержимое target
// записывается как новая версия поверх истории, сама история не усекается
func (s *VersionService) Revert(ctx context.Context, fileUUID uuid.UUID, target int, user string) (*domain.FileVersion, error) {
	if _, err := s.fileRepo.GetByUUID(ctx, fileUUID); err != nil {
		return nil, err
	}
	if target < 1 {
		return nil, fmt.Errorf("%w: v%d", domain.ErrInvalidVersion, target)
	}

	source, err := s.versionRepo.GetByNumber(ctx, fileUUID, target)
	if errors.Is(err, domain.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: v%d", domain.ErrInvalidVersion, target)
	}
	if err != nil {
		return nil, err
	}

	data, err := s.s3Client.GetBytes(ctx, source.S3Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read revert source: %w", err)
	}

	details, _ := json.Marshal(map[string]int{"target_version": target})
	version, err := s.CreateVersion(ctx, fileUUID, domain.RevertAction(target), data, details)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, fileUUID.String(), user, version.Action, map[string]int{"target_version": target})
	return version, nil
}
