// Copyright (c) 2026 Exvault. All rights reserved.

package exercise

import (
	"time"

	"github.com/exvault/exvault/internal/imaging"
)

// Exercise is one captured exercise: its metadata, the region it was cropped
// from, and the image file holding the crop.
type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Tags carries the exercise type first, then subject keywords.
	Tags []string `json:"tags"`
	// BoundingBox is the full-width band on the source composite, in native
	// pixels. Kept so a capture can be re-cropped from a re-rendered source.
	BoundingBox imaging.Box `json:"bounding_box"`
	// ImagePath is the crop's location relative to the data directory.
	ImagePath string    `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`

	// Course and Week locate the exercise in the library hierarchy,
	// populated on reads.
	Course string `json:"course,omitempty"`
	Week   int    `json:"week,omitempty"`
}
