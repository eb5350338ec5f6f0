// Copyright (c) 2026 Exvault. All rights reserved.

package course

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exvault/exvault/internal/core/exercise"
	"github.com/exvault/exvault/internal/platform/database/schema"
	"github.com/exvault/exvault/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Grouped Listing

func (repository *PostgresRepository) ListGrouped(context context.Context) ([]Course, error) {
	courseQuery := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s ORDER BY %s ASC`,
		schema.Course.ID, schema.Course.Name, schema.Course.Slug, schema.Course.CreatedAt,
		schema.Course.Table, schema.Course.Name)

	courseRows, err := repository.db.Query(context, courseQuery)
	if err != nil {
		return nil, dberr.Wrap(err, "list_courses")
	}
	defer courseRows.Close()

	courses := make([]Course, 0)
	courseIndex := make(map[string]int)

	for courseRows.Next() {
		item := Course{Weeks: make([]Week, 0)}
		if err := courseRows.Scan(&item.ID, &item.Name, &item.Slug, &item.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_course")
		}
		courseIndex[item.ID] = len(courses)
		courses = append(courses, item)
	}
	courseRows.Close()
	if err := courseRows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_courses")
	}

	// Weeks first so empty weeks still appear in the listing.
	weekQuery := fmt.Sprintf(`SELECT %s, %s FROM %s ORDER BY %s ASC`,
		schema.Week.CourseID, schema.Week.Number, schema.Week.Table, schema.Week.Number)

	weekRows, err := repository.db.Query(context, weekQuery)
	if err != nil {
		return nil, dberr.Wrap(err, "list_weeks")
	}
	defer weekRows.Close()

	for weekRows.Next() {
		var courseID string
		var number int
		if err := weekRows.Scan(&courseID, &number); err != nil {
			return nil, dberr.Wrap(err, "scan_week")
		}
		if index, ok := courseIndex[courseID]; ok {
			ensureWeek(&courses[index], number)
		}
	}
	weekRows.Close()
	if err := weekRows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_weeks")
	}

	// One pass over all exercises, ordered so weeks group contiguously.
	exerciseQuery := fmt.Sprintf(`
		SELECT w.%s, w.%s, c.%s, e.%s, e.%s, e.%s, e.%s, e.%s, e.%s
		FROM %s e
		JOIN %s w ON e.%s = w.%s
		JOIN %s c ON w.%s = c.%s
		ORDER BY c.%s ASC, w.%s ASC, e.%s ASC
	`,
		schema.Week.CourseID, schema.Week.Number, schema.Course.Name,
		schema.Exercise.ID, schema.Exercise.Name, schema.Exercise.Tags,
		schema.Exercise.BoundingBox, schema.Exercise.ImagePath, schema.Exercise.CreatedAt,
		schema.Exercise.Table,
		schema.Week.Table, schema.Exercise.WeekID, schema.Week.ID,
		schema.Course.Table, schema.Week.CourseID, schema.Course.ID,
		schema.Course.Name, schema.Week.Number, schema.Exercise.CreatedAt,
	)

	rows, err := repository.db.Query(context, exerciseQuery)
	if err != nil {
		return nil, dberr.Wrap(err, "list_course_exercises")
	}
	defer rows.Close()

	for rows.Next() {
		var courseID string
		var weekNumber int
		var courseName string
		item := exercise.Exercise{}

		err := rows.Scan(
			&courseID, &weekNumber, &courseName,
			&item.ID, &item.Name, &item.Tags,
			&item.BoundingBox, &item.ImagePath, &item.CreatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_course_exercise")
		}

		index, ok := courseIndex[courseID]
		if !ok {
			continue
		}
		item.Course = courseName
		item.Week = weekNumber

		week := ensureWeek(&courses[index], weekNumber)
		week.Exercises = append(week.Exercises, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_course_exercises")
	}

	return courses, nil
}

// ensureWeek returns the course's week with the given number, appending it
// when first seen. Input ordering keeps appends in ascending order.
func ensureWeek(course *Course, number int) *Week {
	for index := range course.Weeks {
		if course.Weeks[index].Number == number {
			return &course.Weeks[index]
		}
	}
	course.Weeks = append(course.Weeks, Week{Number: number, Exercises: make([]exercise.Exercise, 0)})
	return &course.Weeks[len(course.Weeks)-1]
}

// GetByName returns one course with its full week and exercise tree.
func (repository *PostgresRepository) GetByName(context context.Context, name string) (*Course, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.Course.ID, schema.Course.Name, schema.Course.Slug, schema.Course.CreatedAt,
		schema.Course.Table, schema.Course.Name)

	item := &Course{Weeks: make([]Week, 0)}
	err := repository.db.QueryRow(context, query, name).Scan(&item.ID, &item.Name, &item.Slug, &item.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_course_by_name")
	}

	// Weeks first so empty weeks still appear.
	weekQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		schema.Week.Number, schema.Week.Table, schema.Week.CourseID, schema.Week.Number)

	weekRows, err := repository.db.Query(context, weekQuery, item.ID)
	if err != nil {
		return nil, dberr.Wrap(err, "get_course_weeks")
	}
	defer weekRows.Close()

	for weekRows.Next() {
		var number int
		if err := weekRows.Scan(&number); err != nil {
			return nil, dberr.Wrap(err, "scan_course_week")
		}
		ensureWeek(item, number)
	}
	weekRows.Close()
	if err := weekRows.Err(); err != nil {
		return nil, dberr.Wrap(err, "get_course_weeks")
	}

	exerciseQuery := fmt.Sprintf(`
		SELECT w.%s, e.%s, e.%s, e.%s, e.%s, e.%s, e.%s
		FROM %s e
		JOIN %s w ON e.%s = w.%s
		WHERE w.%s = $1
		ORDER BY w.%s ASC, e.%s ASC
	`,
		schema.Week.Number,
		schema.Exercise.ID, schema.Exercise.Name, schema.Exercise.Tags,
		schema.Exercise.BoundingBox, schema.Exercise.ImagePath, schema.Exercise.CreatedAt,
		schema.Exercise.Table,
		schema.Week.Table, schema.Exercise.WeekID, schema.Week.ID,
		schema.Week.CourseID,
		schema.Week.Number, schema.Exercise.CreatedAt,
	)

	rows, err := repository.db.Query(context, exerciseQuery, item.ID)
	if err != nil {
		return nil, dberr.Wrap(err, "get_course_exercises")
	}
	defer rows.Close()

	for rows.Next() {
		var weekNumber int
		entry := exercise.Exercise{}

		err := rows.Scan(
			&weekNumber,
			&entry.ID, &entry.Name, &entry.Tags,
			&entry.BoundingBox, &entry.ImagePath, &entry.CreatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_course_exercise")
		}
		entry.Course = item.Name
		entry.Week = weekNumber

		week := ensureWeek(item, weekNumber)
		week.Exercises = append(week.Exercises, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "get_course_exercises")
	}

	return item, nil
}

// # Deletion

func (repository *PostgresRepository) DeleteByName(context context.Context, name string) ([]string, error) {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_delete_course")
	}
	defer transaction.Rollback(context)

	// Collect image paths before the cascade wipes the rows.
	pathQuery := fmt.Sprintf(`
		SELECT e.%s FROM %s e
		JOIN %s w ON e.%s = w.%s
		JOIN %s c ON w.%s = c.%s
		WHERE c.%s = $1
	`,
		schema.Exercise.ImagePath, schema.Exercise.Table,
		schema.Week.Table, schema.Exercise.WeekID, schema.Week.ID,
		schema.Course.Table, schema.Week.CourseID, schema.Course.ID,
		schema.Course.Name,
	)
	paths, err := collectPaths(context, transaction, pathQuery, name)
	if err != nil {
		return nil, err
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.Course.Table, schema.Course.Name)
	result, err := transaction.Exec(context, deleteQuery, name)
	if err != nil {
		return nil, dberr.Wrap(err, "delete_course")
	}
	if result.RowsAffected() == 0 {
		return nil, dberr.Wrap(pgx.ErrNoRows, "delete_course")
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "commit_delete_course")
	}
	return paths, nil
}

func (repository *PostgresRepository) DeleteWeek(context context.Context, name string, week int) ([]string, error) {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_delete_week")
	}
	defer transaction.Rollback(context)

	pathQuery := fmt.Sprintf(`
		SELECT e.%s FROM %s e
		JOIN %s w ON e.%s = w.%s
		JOIN %s c ON w.%s = c.%s
		WHERE c.%s = $1 AND w.%s = $2
	`,
		schema.Exercise.ImagePath, schema.Exercise.Table,
		schema.Week.Table, schema.Exercise.WeekID, schema.Week.ID,
		schema.Course.Table, schema.Week.CourseID, schema.Course.ID,
		schema.Course.Name, schema.Week.Number,
	)
	paths, err := collectPaths(context, transaction, pathQuery, name, week)
	if err != nil {
		return nil, err
	}

	deleteQuery := fmt.Sprintf(`
		DELETE FROM %s w USING %s c
		WHERE w.%s = c.%s AND c.%s = $1 AND w.%s = $2
	`,
		schema.Week.Table, schema.Course.Table,
		schema.Week.CourseID, schema.Course.ID,
		schema.Course.Name, schema.Week.Number,
	)
	result, err := transaction.Exec(context, deleteQuery, name, week)
	if err != nil {
		return nil, dberr.Wrap(err, "delete_week")
	}
	if result.RowsAffected() == 0 {
		return nil, dberr.Wrap(pgx.ErrNoRows, "delete_week")
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "commit_delete_week")
	}
	return paths, nil
}

func collectPaths(context context.Context, tx pgx.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "collect_image_paths")
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, dberr.Wrap(err, "scan_image_path")
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "collect_image_paths")
	}
	return paths, nil
}

// # Export Support

func (repository *PostgresRepository) WeekExercises(context context.Context, name string, week int) ([]exercise.Exercise, error) {
	query := fmt.Sprintf(`
		SELECT e.%s, e.%s, e.%s, e.%s, e.%s, e.%s, c.%s, w.%s
		FROM %s e
		JOIN %s w ON e.%s = w.%s
		JOIN %s c ON w.%s = c.%s
		WHERE c.%s = $1 AND w.%s = $2
		ORDER BY e.%s ASC
	`,
		schema.Exercise.ID, schema.Exercise.Name, schema.Exercise.Tags,
		schema.Exercise.BoundingBox, schema.Exercise.ImagePath, schema.Exercise.CreatedAt,
		schema.Course.Name, schema.Week.Number,
		schema.Exercise.Table,
		schema.Week.Table, schema.Exercise.WeekID, schema.Week.ID,
		schema.Course.Table, schema.Week.CourseID, schema.Course.ID,
		schema.Course.Name, schema.Week.Number,
		schema.Exercise.CreatedAt,
	)

	rows, err := repository.db.Query(context, query, name, week)
	if err != nil {
		return nil, dberr.Wrap(err, "list_week_exercises")
	}
	defer rows.Close()

	exercises := make([]exercise.Exercise, 0)
	for rows.Next() {
		item := exercise.Exercise{}
		err := rows.Scan(
			&item.ID, &item.Name, &item.Tags,
			&item.BoundingBox, &item.ImagePath, &item.CreatedAt,
			&item.Course, &item.Week,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_week_exercise")
		}
		exercises = append(exercises, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_week_exercises")
	}

	return exercises, nil
}
