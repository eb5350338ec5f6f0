// Copyright (c) 2026 Exvault. All rights reserved.

package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exvault/exvault/internal/core/exercise"
)

/*
TestEnsureWeek verifies the week-tree assembly behind the course reads:
each week appears once, insertion order is kept, and exercises appended
through the returned pointer land in the right week. Both ListGrouped and
GetByName build their trees through this helper.
*/
func TestEnsureWeek(t *testing.T) {
	course := &Course{Name: "Analysis", Weeks: make([]Week, 0)}

	ensureWeek(course, 1)
	ensureWeek(course, 2)
	week := ensureWeek(course, 1)
	week.Exercises = append(week.Exercises, exercise.Exercise{Name: "Exercise 1.1"})

	require.Len(t, course.Weeks, 2)
	assert.Equal(t, 1, course.Weeks[0].Number)
	assert.Equal(t, 2, course.Weeks[1].Number)
	require.Len(t, course.Weeks[0].Exercises, 1)
	assert.Equal(t, "Exercise 1.1", course.Weeks[0].Exercises[0].Name)
	assert.Empty(t, course.Weeks[1].Exercises)
}
