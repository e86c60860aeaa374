package service

import (
	"context"
	"encoding/json"
	"log"

	"annodrive/internal/domain"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditService ведет журнал действий. Запись выполняется по принципу
// fire-and-forget: ошибка журнала логируется, но не прерывает операцию.
type AuditService struct {
	auditRepo AuditRepo
}

func NewAuditService(auditRepo AuditRepo) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Record дописывает запись в журнал. details сериализуется в JSON;
// несериализуемые детали опускаются.
func (s *AuditService) Record(ctx context.Context, fileUUID, user, action string, details any) {
	entry := &domain.AuditEntry{
		FileUUID: fileUUID,
		User:     user,
		Action:   action,
	}

	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			log.Printf("[Audit] Failed to encode details for action %s: %v", action, err)
		} else {
			entry.Details = data
		}
	}

	if err := s.auditRepo.Append(ctx, entry); err != nil {
		log.Printf("[Audit] Failed to record action %s for file %s: %v", action, fileUUID, err)
	}
}

// Query возвращает последние записи журнала в порядке вставки.
// Пустой fileUUID означает журнал по всем файлам.
func (s *AuditService) Query(ctx context.Context, fileUUID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.auditRepo.Query(ctx, fileUUID, limit)
}
