// Copyright (c) 2026 Exvault. All rights reserved.

package document

import (
	"math"

	"github.com/exvault/exvault/internal/imaging"
	"github.com/exvault/exvault/internal/platform/apperr"
)

// # Box Editor

// Pointer event types accepted by the editor. Leave is treated exactly like
// up so a gesture that loses mouse capture still completes.
const (
	EventDown  = "down"
	EventMove  = "move"
	EventUp    = "up"
	EventLeave = "leave"
)

// PointerEvent is one pointer sample on the rendered composite.
//
// Y is in on-screen pixels; ViewHeight is the on-screen height of the
// composite at the moment of the event. The two together recover native
// coordinates regardless of window size, and because the window can resize
// mid-gesture the scale is recomputed from every event, never cached.
type PointerEvent struct {
	Type       string  `json:"type"`
	Y          float64 `json:"y"`
	ViewHeight float64 `json:"view_height"`
}

// boxEditor is the two-state drawing machine: idle until a pointer-down
// starts a gesture, drawing until pointer-up/leave completes it. Boxes are
// always full-width; only the vertical extent is drawn.
type boxEditor struct {
	drawing  bool
	startY   int
	currentY int
}

func (editor *boxEditor) reset() {
	editor.drawing = false
	editor.startY = 0
	editor.currentY = 0
}

// current returns the in-progress box. Meaningful only while drawing.
func (editor *boxEditor) current() imaging.Box {
	top := editor.startY
	if editor.currentY < top {
		top = editor.currentY
	}
	height := editor.currentY - editor.startY
	if height < 0 {
		height = -height
	}
	return imaging.Box{Y: top, Height: height}
}

// handle advances the machine by one event whose Y is already in native
// pixels. It returns the completed box when the event ends a gesture with
// nonzero extent.
func (editor *boxEditor) handle(eventType string, nativeY int) (imaging.Box, bool, error) {
	switch eventType {
	case EventDown:
		editor.drawing = true
		editor.startY = nativeY
		editor.currentY = nativeY
		return imaging.Box{}, false, nil

	case EventMove:
		if editor.drawing {
			editor.currentY = nativeY
		}
		return imaging.Box{}, false, nil

	case EventUp, EventLeave:
		if !editor.drawing {
			return imaging.Box{}, false, nil
		}
		editor.currentY = nativeY
		box := editor.current()
		editor.reset()
		if box.Height == 0 {
			// A click without a drag draws nothing.
			return imaging.Box{}, false, nil
		}
		return box, true, nil

	default:
		return imaging.Box{}, false, apperr.ValidationError("Unknown pointer event type: " + eventType)
	}
}

// toNative converts an on-screen Y coordinate to native composite pixels.
func toNative(event PointerEvent, nativeHeight int) (int, error) {
	if event.ViewHeight <= 0 {
		return 0, apperr.ValidationError("view_height must be positive")
	}

	scale := float64(nativeHeight) / event.ViewHeight
	nativeY := int(math.Round(event.Y * scale))

	if nativeY < 0 {
		nativeY = 0
	}
	if nativeY > nativeHeight {
		nativeY = nativeHeight
	}
	return nativeY, nil
}
