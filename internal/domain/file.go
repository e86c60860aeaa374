package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Типы файлов, поддерживаемые редактором
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

// AllowedImageExtensions содержит расширения, принимаемые при загрузке изображений
var AllowedImageExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

type File struct {
	UUID           uuid.UUID `json:"uuid" db:"uuid"`
	OriginalName   string    `json:"original_name" db:"original_name"`
	FileType       string    `json:"file_type" db:"file_type"`
	Ext            string    `json:"ext" db:"ext"`
	MIMEType       string    `json:"mime_type" db:"mime_type"`
	SizeBytes      int64     `json:"size_bytes" db:"size_bytes"`
	CurrentVersion int       `json:"current_version" db:"current_version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Versions []FileVersion `json:"versions,omitempty" db:"-"`
}

type FileUpload struct {
	Name     string
	User     string
	FileData []byte
}

type FileDownload struct {
	File    *File
	Version *FileVersion
	Data    []byte
}

// ClassifyExtension определяет тип файла и MIME-тип по расширению имени.
// Возвращает пустой тип, если расширение не поддерживается.
func ClassifyExtension(name string) (fileType, ext, mimeType string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return "", "", ""
	}
	ext = strings.ToLower(name[idx+1:])
	if ext == "pdf" {
		return FileTypePDF, ext, "application/pdf"
	}
	if mime, ok := AllowedImageExtensions[ext]; ok {
		return FileTypeImage, ext, mime
	}
	return "", "", ""
}
