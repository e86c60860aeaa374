package domain

import (
	"encoding/json"
	"fmt"
)

// Виды объектов векторной сцены
const (
	ObjectPath    = "path"
	ObjectRect    = "rect"
	ObjectEllipse = "ellipse"
	ObjectText    = "text"
)

// Scene — сериализуемая векторная сцена одной страницы: набор рисуемых
// объектов с атрибутами отрисовки. Ядро не интерпретирует семантику объектов
// глубже, чем нужно для растеризации.
type Scene struct {
	Objects []SceneObject `json:"objects"`
}

// SceneObject — помеченный вариант: общие поля геометрии и отрисовки плюс
// поля, специфичные для kind. Растеризатор диспетчеризует по Kind;
// неизвестные виды пропускаются без ошибки.
type SceneObject struct {
	Kind string `json:"type"`

	// Общая геометрия (координаты в пикселях страницы, начало в левом верхнем углу)
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Атрибуты отрисовки
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Fill        string  `json:"fill,omitempty"`

	// kind=ellipse
	RX float64 `json:"rx,omitempty"`
	RY float64 `json:"ry,omitempty"`

	// kind=path: ломаная произвольной формы (freehand)
	Points [][2]float64 `json:"points,omitempty"`

	// kind=text
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// ParseScene разбирает сериализованную сцену страницы. Текстовые объекты
// клиенты присылают под разными именами, они приводятся к ObjectText.
func ParseScene(raw json.RawMessage) (*Scene, error) {
	var scene Scene
	if err := json.Unmarshal(raw, &scene); err != nil {
		return nil, fmt.Errorf("invalid scene document: %w", err)
	}
	for i := range scene.Objects {
		switch scene.Objects[i].Kind {
		case "textbox", "i-text":
			scene.Objects[i].Kind = ObjectText
		}
	}
	return &scene, nil
}
