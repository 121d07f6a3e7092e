package interact

import (
	"time"

	"rbcal/internal/model"
)

// DragAction is the kind of drag in progress.
type DragAction string

const (
	DragMove   DragAction = "move"
	DragResize DragAction = "resize"
)

// Direction is the edge of an event being resized.
type Direction string

const (
	DirectionUp    Direction = "UP"
	DirectionDown  Direction = "DOWN"
	DirectionLeft  Direction = "LEFT"
	DirectionRight Direction = "RIGHT"
)

// DropInfo is reported once a drag is confirmed. Event is the dragged
// event as the host supplied it, never the preview.
type DropInfo struct {
	Event      model.Event `json:"-"`
	Action     DragAction  `json:"action"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	ResourceID string      `json:"resource_id,omitempty"`
	AllDay     bool        `json:"all_day"`
}
