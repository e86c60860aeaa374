package domain

import (
	"encoding/json"
	"time"
)

// AuditEntry — запись журнала действий. Журнал только дописывается,
// порядок записей соответствует порядку вставки; потребитель сам
// разворачивает его для показа "последние сверху".
type AuditEntry struct {
	ID        int64           `json:"-" db:"id"`
	FileUUID  string          `json:"file_id" db:"file_uuid"`
	User      string          `json:"user" db:"username"`
	Action    string          `json:"action" db:"action"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt time.Time       `json:"timestamp" db:"created_at"`
}
