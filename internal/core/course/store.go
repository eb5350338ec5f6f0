// Copyright (c) 2026 Exvault. All rights reserved.

package course

import (
	"context"

	"github.com/exvault/exvault/internal/core/exercise"
)

type Repository interface {
	// ListGrouped returns every course with its weeks and their exercises,
	// courses alphabetically, weeks and exercises in ascending order.
	ListGrouped(context context.Context) ([]Course, error)

	GetByName(context context.Context, name string) (*Course, error)

	// DeleteByName removes a course with everything under it and returns
	// the image paths of all removed exercises for file cleanup.
	DeleteByName(context context.Context, name string) ([]string, error)

	// DeleteWeek removes one week of a course, returning removed image paths.
	DeleteWeek(context context.Context, name string, week int) ([]string, error)

	// WeekExercises returns the exercises of one course week.
	WeekExercises(context context.Context, name string, week int) ([]exercise.Exercise, error)
}
