// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package imaging implements the raster pipeline at the heart of Exvault:
rasterizing input documents into page bitmaps, stitching pages into one tall
composite, and cropping user-boxed regions into standalone exercise images.

The geometry here carries exact numeric contracts (see the package tests);
everything else in the application is plumbing around it.
*/
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	// Register decoders for the supported raster input formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/exvault/exvault/internal/platform/apperr"
)

// Box is a user-drawn bounding region on the composite image.
//
// Exvault uses a single geometry variant: boxes always span the full
// composite width, so only the vertical extent is carried. Coordinates are
// in native composite pixels.
type Box struct {
	Y      int `json:"y"`
	Height int `json:"height"`
}

// Frame is an encoded raster image together with its pixel dimensions.
//
// It is the interchange type between the pipeline and the HTTP/storage
// boundaries; data-URI encoding happens only at the display boundary.
type Frame struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    []byte `json:"-"`
}

// white is the canvas background for stitching and pad fills.
var white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// DecodeRGBA decodes PNG, JPEG, or WebP bytes into an RGBA bitmap.
func DecodeRGBA(data []byte) (*image.RGBA, error) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.ImageDecode("Image could not be decoded", err)
	}

	bounds := decoded.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), decoded, bounds.Min, draw.Src)
	return rgba, nil
}

// EncodePNG encodes a bitmap into a [Frame] carrying lossless PNG bytes.
func EncodePNG(img image.Image) (Frame, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Frame{}, apperr.Internal(err)
	}

	bounds := img.Bounds()
	return Frame{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		PNG:    buf.Bytes(),
	}, nil
}

// DataURI renders a frame as an embeddable data reference for the UI.
func (f Frame) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(f.PNG)
}
