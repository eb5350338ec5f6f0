// Copyright (c) 2026 Exvault. All rights reserved.

package schema

// ExerciseTable represents the 'vault.exercise' table
type ExerciseTable struct {
	Table       string
	ID          string
	WeekID      string
	Name        string
	Tags        string
	BoundingBox string
	ImagePath   string
	CreatedAt   string
}

// Exercise is the schema definition for vault.exercise
var Exercise = ExerciseTable{
	Table:       "vault.exercise",
	ID:          "id",
	WeekID:      "weekid",
	Name:        "name",
	Tags:        "tags",
	BoundingBox: "boundingbox",
	ImagePath:   "imagepath",
	CreatedAt:   "createdat",
}

func (t ExerciseTable) Columns() []string {
	return []string{t.ID, t.WeekID, t.Name, t.Tags, t.BoundingBox, t.ImagePath, t.CreatedAt}
}
