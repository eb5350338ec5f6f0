// Copyright (c) 2026 Exvault. All rights reserved.

package exercise

import "context"

type Repository interface {
	// ReplaceWeek atomically replaces all exercises of one course week with
	// the given batch, creating the course and week rows as needed. It
	// returns the saved exercises and the image paths of the rows it
	// replaced, so callers can clean up orphaned files after commit.
	ReplaceWeek(context context.Context, course string, week int, exercises []Exercise) ([]Exercise, []string, error)

	// Insert stores a single exercise, creating the course and week rows as
	// needed. Duplicate names within a week are allowed.
	Insert(context context.Context, course string, week int, exercise Exercise) (*Exercise, error)

	GetByID(context context.Context, id string) (*Exercise, error)
	Update(context context.Context, id string, name string, tags []string) (*Exercise, error)

	// Delete removes the row and returns its image path for file cleanup.
	Delete(context context.Context, id string) (imagePath string, err error)

	SearchByName(context context.Context, query string, limit, offset int) ([]Exercise, int, error)
	FilterByTags(context context.Context, tags []string, limit, offset int) ([]Exercise, int, error)
}
