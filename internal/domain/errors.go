package domain

import "errors"

// Ошибки уровня предметной области. Обработчики HTTP сопоставляют их
// с кодами ответов через errors.Is.
var (
	// ErrFileNotFound — неизвестный файл, версия или слой
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidVersion — цель отката не является существующей версией файла
	ErrInvalidVersion = errors.New("invalid version number")

	// ErrEmptySelection — экспорт без выбранных пользователей
	ErrEmptySelection = errors.New("no users selected for export")

	// ErrLayerConflict — устаревший rev при записи слоя аннотаций;
	// клиент должен перечитать слой и повторить запись
	ErrLayerConflict = errors.New("annotation layer was modified concurrently")

	// ErrRasterization — сбой растеризации сцены; экспорт прерывается целиком
	ErrRasterization = errors.New("scene rasterization failed")
)
