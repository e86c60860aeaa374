package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnnotationLayer хранит полный набор аннотаций одного пользователя для файла:
// отображение "номер страницы (с нуля)" -> сериализованная векторная сцена.
// Запись перезаписывается целиком при каждом сохранении; rev растет на единицу
// при каждой записи и служит токеном оптимистической блокировки.
type AnnotationLayer struct {
	FileUUID    uuid.UUID                  `json:"file_uuid" db:"file_uuid"`
	User        string                     `json:"user" db:"username"`
	Rev         int                        `json:"rev" db:"rev"`
	FabricPages map[string]json.RawMessage `json:"fabric_pages" db:"-"`
	UpdatedAt   *time.Time                 `json:"updated_at" db:"updated_at"`
}

// EmptyLayer возвращает корректный пустой слой для пользователя,
// который еще ничего не сохранял. Это не ошибка "не найдено".
func EmptyLayer(fileUUID uuid.UUID, user string) *AnnotationLayer {
	return &AnnotationLayer{
		FileUUID:    fileUUID,
		User:        user,
		Rev:         0,
		FabricPages: map[string]json.RawMessage{},
	}
}
