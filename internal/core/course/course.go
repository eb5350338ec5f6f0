// Copyright (c) 2026 Exvault. All rights reserved.

package course

import (
	"time"

	"github.com/exvault/exvault/internal/core/exercise"
)

// Week groups the exercises saved under one week of a course.
type Week struct {
	Number    int                 `json:"number"`
	Exercises []exercise.Exercise `json:"exercises"`
}

// Course is the top level of the library hierarchy. Single and grouped
// reads both return it with its weeks populated.
type Course struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`

	Weeks []Week `json:"weeks"`
}

// ExportExercise is one exercise in a backup document, with its image
// inlined as an embeddable data reference.
type ExportExercise struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Image string   `json:"image"`
}

// ExportDocument is the downloadable backup of one course week. It is
// self-contained: restoring it needs no access to the image store.
type ExportDocument struct {
	CourseName string           `json:"courseName"`
	Week       int              `json:"week"`
	Exercises  []ExportExercise `json:"exercises"`
}
