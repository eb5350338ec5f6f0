// Copyright (c) 2026 Exvault. All rights reserved.

package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/exvault/exvault/internal/platform/apperr"
)

// # Rasterizer

// BasePointDPI is the PDF point density; page renders use BasePointDPI
// multiplied by the configured scale, so scale 1.5 yields 108 dpi.
const BasePointDPI = 72

// Rasterizer turns an uploaded document into ordered page bitmaps.
type Rasterizer struct {
	scale float64
}

// NewRasterizer creates a rasterizer rendering at the given scale factor.
func NewRasterizer(scale float64) *Rasterizer {
	return &Rasterizer{scale: scale}
}

// Rasterize decodes an uploaded file into its ordered page bitmaps.
//
// PDF inputs are validated and rendered page by page; raster inputs
// (PNG, JPEG, WebP) become a single-page result. The filename is only
// consulted for its extension.
func (rasterizer *Rasterizer) Rasterize(ctx context.Context, filename string, data []byte) ([]*image.RGBA, error) {
	if len(data) == 0 {
		return nil, apperr.ImageDecode("Uploaded file is empty", nil)
	}

	if isPDF(filename, data) {
		return rasterizer.rasterizePDF(ctx, data)
	}

	page, err := DecodeRGBA(data)
	if err != nil {
		return nil, err
	}
	return []*image.RGBA{page}, nil
}

func (rasterizer *Rasterizer) rasterizePDF(ctx context.Context, data []byte) ([]*image.RGBA, error) {
	// Cheap structural validation before handing the bytes to the renderer;
	// pdfcpu walks the xref table and rejects truncated documents early.
	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, apperr.ImageDecode("PDF document is invalid", err)
	}
	if pageCount == 0 {
		return nil, apperr.ImageDecode("PDF document has no pages", nil)
	}

	document, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, apperr.ImageDecode("PDF document could not be opened", err)
	}
	defer document.Close()

	dpi := BasePointDPI * rasterizer.scale

	pages := make([]*image.RGBA, 0, document.NumPage())
	for pageIndex := 0; pageIndex < document.NumPage(); pageIndex++ {
		select {
		case <-ctx.Done():
			return nil, apperr.Internal(ctx.Err())
		default:
		}

		page, err := document.ImageDPI(pageIndex, dpi)
		if err != nil {
			return nil, apperr.ImageDecode(fmt.Sprintf("Page %d could not be rendered", pageIndex+1), err)
		}
		pages = append(pages, page)
	}

	return pages, nil
}

// isPDF sniffs the document type from the filename extension with a
// magic-byte fallback for extensionless uploads.
func isPDF(filename string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
