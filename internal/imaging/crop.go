// Copyright (c) 2026 Exvault. All rights reserved.

package imaging

import (
	"image"
	"image/draw"

	"github.com/exvault/exvault/internal/platform/apperr"
)

// # Cropper

// Crop extracts a full-width horizontal band from the composite.
//
// The box is clamped to the composite bounds. When the clamped band is
// shorter than minHeight, the content is centered vertically on a white
// canvas of exactly minHeight: paddingTop = (minHeight - bandHeight) / 2,
// with the extra row going to the bottom when the difference is odd. The
// content itself is never scaled.
func Crop(source *image.RGBA, box Box, minHeight int) (*image.RGBA, error) {
	if source == nil {
		return nil, apperr.SourceNotReady("No composite image is loaded")
	}

	bounds := source.Bounds()

	top := box.Y
	if top < 0 {
		top = 0
	}
	if top > bounds.Dy() {
		top = bounds.Dy()
	}

	bottom := box.Y + box.Height
	if bottom > bounds.Dy() {
		bottom = bounds.Dy()
	}

	bandHeight := bottom - top
	if bandHeight <= 0 {
		return nil, apperr.Unprocessable("Bounding box has no vertical extent")
	}

	outputHeight := bandHeight
	paddingTop := 0
	if minHeight > 0 && bandHeight < minHeight {
		outputHeight = minHeight
		paddingTop = (minHeight - bandHeight) / 2
	}

	output := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), outputHeight))
	if paddingTop > 0 || outputHeight > bandHeight {
		draw.Draw(output, output.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
	}

	target := image.Rect(0, paddingTop, bounds.Dx(), paddingTop+bandHeight)
	draw.Draw(output, target, source, image.Point{X: bounds.Min.X, Y: bounds.Min.Y + top}, draw.Src)

	return output, nil
}
