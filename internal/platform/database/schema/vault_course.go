// Copyright (c) 2026 Exvault. All rights reserved.

// Package schema centralizes table and column identifiers so that SQL built
// in the stores never contains bare string literals.
package schema

// CourseTable represents the 'vault.course' table
type CourseTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	CreatedAt string
}

// Course is the schema definition for vault.course
var Course = CourseTable{
	Table:     "vault.course",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	CreatedAt: "createdat",
}

func (t CourseTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.CreatedAt}
}
