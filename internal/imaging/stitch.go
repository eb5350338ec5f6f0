// Copyright (c) 2026 Exvault. All rights reserved.

package imaging

import (
	"context"
	"image"
	"image/draw"

	"golang.org/x/sync/errgroup"

	"github.com/exvault/exvault/internal/platform/apperr"
)

// # Stitcher

// PageLoader resolves one page bitmap. Loaders are invoked concurrently by
// [StitchLoaders]; drawing starts only after every loader has resolved, so a
// failed page never yields a partial composite.
type PageLoader func(ctx context.Context) (*image.RGBA, error)

// Stitch composes ordered page bitmaps into a single tall canvas.
//
// The canvas width is the maximum page width and its height the sum of page
// heights. Pages are drawn top to bottom in input order, left-aligned at
// x = 0, over a white background. Page order in the input slice is the page
// order on the canvas regardless of how the pages were produced.
func Stitch(pages []*image.RGBA) (*image.RGBA, error) {
	if len(pages) == 0 {
		return nil, apperr.ImageDecode("Document produced no pages", nil)
	}

	canvasWidth, canvasHeight := 0, 0
	for _, page := range pages {
		bounds := page.Bounds()
		if bounds.Dx() > canvasWidth {
			canvasWidth = bounds.Dx()
		}
		canvasHeight += bounds.Dy()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)

	offsetY := 0
	for _, page := range pages {
		bounds := page.Bounds()
		target := image.Rect(0, offsetY, bounds.Dx(), offsetY+bounds.Dy())
		draw.Draw(canvas, target, page, bounds.Min, draw.Src)
		offsetY += bounds.Dy()
	}

	return canvas, nil
}

// StitchLoaders resolves all page loaders in parallel, then stitches the
// results in loader order. Any loader failure aborts the whole composite.
func StitchLoaders(ctx context.Context, loaders []PageLoader) (*image.RGBA, error) {
	if len(loaders) == 0 {
		return nil, apperr.ImageDecode("Document produced no pages", nil)
	}

	pages := make([]*image.RGBA, len(loaders))

	group, groupCtx := errgroup.WithContext(ctx)
	for index, loader := range loaders {
		group.Go(func() error {
			page, err := loader(groupCtx)
			if err != nil {
				return err
			}
			pages[index] = page
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return Stitch(pages)
}

// EncodePages encodes page bitmaps to PNG frames concurrently, preserving
// page order. The encoded frames feed both the extraction request payload
// and the composite cache key.
func EncodePages(ctx context.Context, pages []*image.RGBA) ([]Frame, error) {
	frames := make([]Frame, len(pages))

	group, _ := errgroup.WithContext(ctx)
	for index, page := range pages {
		group.Go(func() error {
			frame, err := EncodePNG(page)
			if err != nil {
				return err
			}
			frames[index] = frame
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return frames, nil
}
