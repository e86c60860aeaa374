package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Метки действий, порождающих новые версии
const (
	ActionUpload       = "upload"
	ActionRotatePage   = "rotate-page"
	ActionDeletePage   = "delete-page"
	ActionReorderPages = "reorder-pages"
	ActionCrop         = "crop"
	ActionResize       = "resize"
	ActionRotate       = "rotate"
	ActionAdjust       = "adjust"
	ActionMerge        = "merge"
	ActionEnhance      = "enhance"
	ActionCombine      = "combine-images"
	ActionReset        = "reset"
)

// RevertAction формирует метку действия для отката к версии target
func RevertAction(target int) string {
	return "revert-to-v" + strconv.Itoa(target)
}

type FileVersion struct {
	ID            int64           `json:"-" db:"id"`
	FileUUID      uuid.UUID       `json:"file_uuid" db:"file_uuid"`
	VersionNumber int             `json:"version" db:"version_number"`
	Action        string          `json:"action" db:"action"`
	S3Key         string          `json:"-" db:"s3_key"`
	SizeBytes     int64           `json:"size_bytes" db:"size_bytes"`
	Details       json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// VersionSelector указывает, какую версию файла нужно получить:
// оригинал (версия 1), текущую или конкретный номер.
type VersionSelector struct {
	Original bool
	Current  bool
	Number   int
}

// ParseVersionSelector разбирает селектор из строки запроса:
// "original", "current" (по умолчанию) или "v3"/"3".
func ParseVersionSelector(s string) (VersionSelector, bool) {
	switch s {
	case "", "current":
		return VersionSelector{Current: true}, true
	case "original":
		return VersionSelector{Original: true}, true
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "v"))
	if err != nil || n < 1 {
		return VersionSelector{}, false
	}
	return VersionSelector{Number: n}, true
}
