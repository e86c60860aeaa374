// storage.go
package s3

import "context"

// Storage определяет интерфейс хранилища содержимого версий файлов.
// Ядро работает с ним как с непрозрачным blob-хранилищем: store/fetch по ключу.
type Storage interface {
	UploadBytes(ctx context.Context, key string, data []byte) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	DeleteObjects(ctx context.Context, keys []string) error
}
