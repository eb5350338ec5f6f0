// Copyright (c) 2026 Exvault. All rights reserved.

package imaging

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exvault/exvault/internal/platform/apperr"
)

/*
TestCrop_PageBoundaryBand crops a band that straddles the seam between two
stitched pages and verifies both pages contribute the expected rows.
*/
func TestCrop_PageBoundaryBand(t *testing.T) {
	composite, err := Stitch([]*image.RGBA{
		solidPage(800, 1000, red),
		solidPage(800, 1200, blue),
	})
	require.NoError(t, err)

	cropped, err := Crop(composite, Box{Y: 950, Height: 100}, 0)

	require.NoError(t, err)
	assert.Equal(t, 800, cropped.Bounds().Dx())
	assert.Equal(t, 100, cropped.Bounds().Dy())

	// Rows [0, 50) come from the first page, rows [50, 100) from the second.
	assert.Equal(t, red, cropped.RGBAAt(0, 0))
	assert.Equal(t, red, cropped.RGBAAt(799, 49))
	assert.Equal(t, blue, cropped.RGBAAt(0, 50))
	assert.Equal(t, blue, cropped.RGBAAt(799, 99))
}

/*
TestCrop_MinHeightPadding verifies short crops are centered on a white
canvas of exactly the minimum height, with content never scaled.
*/
func TestCrop_MinHeightPadding(t *testing.T) {
	tests := []struct {
		name           string
		boxHeight      int
		minHeight      int
		wantHeight     int
		wantPaddingTop int
	}{
		{
			name:           "short band pads to minimum",
			boxHeight:      100,
			minHeight:      150,
			wantHeight:     150,
			wantPaddingTop: 25,
		},
		{
			name:           "odd difference gives the extra row to the bottom",
			boxHeight:      101,
			minHeight:      150,
			wantHeight:     150,
			wantPaddingTop: 24,
		},
		{
			name:           "band at minimum is untouched",
			boxHeight:      150,
			minHeight:      150,
			wantHeight:     150,
			wantPaddingTop: 0,
		},
		{
			name:           "tall band is untouched",
			boxHeight:      400,
			minHeight:      150,
			wantHeight:     400,
			wantPaddingTop: 0,
		},
		{
			name:           "zero minimum disables padding",
			boxHeight:      40,
			minHeight:      0,
			wantHeight:     40,
			wantPaddingTop: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			source := solidPage(800, 1000, red)

			cropped, err := Crop(source, Box{Y: 200, Height: test.boxHeight}, test.minHeight)

			require.NoError(t, err)
			assert.Equal(t, test.wantHeight, cropped.Bounds().Dy())

			if test.wantPaddingTop > 0 {
				// Padding rows are white, the content row beneath them is not.
				assert.Equal(t, white, cropped.RGBAAt(0, 0))
				assert.Equal(t, white, cropped.RGBAAt(0, test.wantPaddingTop-1))
			}
			assert.Equal(t, red, cropped.RGBAAt(0, test.wantPaddingTop))
			assert.Equal(t, red, cropped.RGBAAt(0, test.wantPaddingTop+test.boxHeight-1))

			if test.wantHeight > test.wantPaddingTop+test.boxHeight {
				assert.Equal(t, white, cropped.RGBAAt(0, test.wantHeight-1))
			}
		})
	}
}

/*
TestCrop_Clamping verifies out-of-range boxes are clamped to the composite
bounds instead of failing.
*/
func TestCrop_Clamping(t *testing.T) {
	source := solidPage(800, 1000, red)

	tests := []struct {
		name       string
		box        Box
		wantHeight int
	}{
		{
			name:       "box extending past the bottom is clamped",
			box:        Box{Y: 900, Height: 500},
			wantHeight: 100,
		},
		{
			// The band keeps its absolute bottom edge, so the rows above
			// zero are simply lost.
			name:       "negative top is clamped to zero",
			box:        Box{Y: -50, Height: 200},
			wantHeight: 150,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cropped, err := Crop(source, test.box, 0)

			require.NoError(t, err)
			assert.Equal(t, test.wantHeight, cropped.Bounds().Dy())
		})
	}
}

func TestCrop_NoSource(t *testing.T) {
	cropped, err := Crop(nil, Box{Y: 0, Height: 100}, 150)

	assert.Nil(t, cropped)

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "SOURCE_NOT_READY", appError.Code)
}

func TestCrop_EmptyBand(t *testing.T) {
	source := solidPage(800, 1000, red)

	cropped, err := Crop(source, Box{Y: 1000, Height: 50}, 150)

	assert.Nil(t, cropped)
	assert.Error(t, err)
}
