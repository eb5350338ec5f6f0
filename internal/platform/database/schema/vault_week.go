// Copyright (c) 2026 Exvault. All rights reserved.

package schema

// WeekTable represents the 'vault.week' table
type WeekTable struct {
	Table     string
	ID        string
	CourseID  string
	Number    string
	CreatedAt string
}

// Week is the schema definition for vault.week
var Week = WeekTable{
	Table:     "vault.week",
	ID:        "id",
	CourseID:  "courseid",
	Number:    "number",
	CreatedAt: "createdat",
}

func (t WeekTable) Columns() []string {
	return []string{t.ID, t.CourseID, t.Number, t.CreatedAt}
}
