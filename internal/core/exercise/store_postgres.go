// Copyright (c) 2026 Exvault. All rights reserved.

package exercise

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exvault/exvault/internal/platform/database/schema"
	"github.com/exvault/exvault/internal/platform/dberr"
	"github.com/exvault/exvault/pkg/slug"
	"github.com/exvault/exvault/pkg/uuidv7"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Hierarchy Upserts

// upsertCourse resolves a course name to its row id, creating the row on
// first use. The no-op DO UPDATE makes RETURNING work on conflicts.
func upsertCourse(context context.Context, tx pgx.Tx, name string) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s
		RETURNING %s
	`,
		schema.Course.Table, schema.Course.ID, schema.Course.Name, schema.Course.Slug, schema.Course.CreatedAt,
		schema.Course.Name, schema.Course.Name, schema.Course.Name,
		schema.Course.ID,
	)

	var courseID string
	if err := tx.QueryRow(context, query, uuidv7.New(), name, slug.From(name)).Scan(&courseID); err != nil {
		return "", dberr.Wrap(err, "upsert_course")
	}
	return courseID, nil
}

// upsertWeek resolves a (course, number) pair to its week row id.
func upsertWeek(context context.Context, tx pgx.Tx, courseID string, number int) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s
		RETURNING %s
	`,
		schema.Week.Table, schema.Week.ID, schema.Week.CourseID, schema.Week.Number, schema.Week.CreatedAt,
		schema.Week.CourseID, schema.Week.Number, schema.Week.Number, schema.Week.Number,
		schema.Week.ID,
	)

	var weekID string
	if err := tx.QueryRow(context, query, uuidv7.New(), courseID, number).Scan(&weekID); err != nil {
		return "", dberr.Wrap(err, "upsert_week")
	}
	return weekID, nil
}

// insertExercise stores one row under an existing week, assigning a fresh id.
func insertExercise(context context.Context, tx pgx.Tx, weekID string, exercise Exercise) (Exercise, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING %s
	`,
		schema.Exercise.Table,
		schema.Exercise.ID, schema.Exercise.WeekID, schema.Exercise.Name,
		schema.Exercise.Tags, schema.Exercise.BoundingBox, schema.Exercise.ImagePath,
		schema.Exercise.CreatedAt,
		schema.Exercise.CreatedAt,
	)

	exercise.ID = uuidv7.New()
	err := tx.QueryRow(context, query,
		exercise.ID, weekID, exercise.Name,
		exercise.Tags, exercise.BoundingBox, exercise.ImagePath,
	).Scan(&exercise.CreatedAt)
	if err != nil {
		return Exercise{}, dberr.Wrap(err, "insert_exercise")
	}
	return exercise, nil
}

// # Batch Save

func (repository *PostgresRepository) ReplaceWeek(context context.Context, course string, week int, exercises []Exercise) ([]Exercise, []string, error) {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, nil, dberr.Wrap(err, "begin_replace_week")
	}
	defer transaction.Rollback(context)

	courseID, err := upsertCourse(context, transaction, course)
	if err != nil {
		return nil, nil, err
	}
	weekID, err := upsertWeek(context, transaction, courseID, week)
	if err != nil {
		return nil, nil, err
	}

	// Clear the previous contents of the week; the returned image paths let
	// the caller delete the now-orphaned files once the commit sticks.
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`,
		schema.Exercise.Table, schema.Exercise.WeekID, schema.Exercise.ImagePath)

	rows, err := transaction.Query(context, deleteQuery, weekID)
	if err != nil {
		return nil, nil, dberr.Wrap(err, "clear_week_exercises")
	}
	removedPaths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return nil, nil, dberr.Wrap(err, "scan_removed_path")
		}
		removedPaths = append(removedPaths, path)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, dberr.Wrap(err, "clear_week_exercises")
	}

	saved := make([]Exercise, 0, len(exercises))
	for _, item := range exercises {
		inserted, err := insertExercise(context, transaction, weekID, item)
		if err != nil {
			return nil, nil, err
		}
		inserted.Course = course
		inserted.Week = week
		saved = append(saved, inserted)
	}

	if err := transaction.Commit(context); err != nil {
		return nil, nil, dberr.Wrap(err, "commit_replace_week")
	}
	return saved, removedPaths, nil
}

func (repository *PostgresRepository) Insert(context context.Context, course string, week int, exercise Exercise) (*Exercise, error) {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_insert_exercise")
	}
	defer transaction.Rollback(context)

	courseID, err := upsertCourse(context, transaction, course)
	if err != nil {
		return nil, err
	}
	weekID, err := upsertWeek(context, transaction, courseID, week)
	if err != nil {
		return nil, err
	}

	inserted, err := insertExercise(context, transaction, weekID, exercise)
	if err != nil {
		return nil, err
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "commit_insert_exercise")
	}

	inserted.Course = course
	inserted.Week = week
	return &inserted, nil
}

// # Reads

// selectClause joins exercises to their week and course for display.
func selectClause() string {
	return fmt.Sprintf(`
		SELECT e.%s, e.%s, e.%s, e.%s, e.%s, e.%s, c.%s, w.%s
		FROM %s e
		JOIN %s w ON e.%s = w.%s
		JOIN %s c ON w.%s = c.%s
	`,
		schema.Exercise.ID, schema.Exercise.Name, schema.Exercise.Tags,
		schema.Exercise.BoundingBox, schema.Exercise.ImagePath, schema.Exercise.CreatedAt,
		schema.Course.Name, schema.Week.Number,
		schema.Exercise.Table,
		schema.Week.Table, schema.Exercise.WeekID, schema.Week.ID,
		schema.Course.Table, schema.Week.CourseID, schema.Course.ID,
	)
}

func scanExercise(row pgx.Row) (*Exercise, error) {
	item := &Exercise{}
	err := row.Scan(
		&item.ID, &item.Name, &item.Tags,
		&item.BoundingBox, &item.ImagePath, &item.CreatedAt,
		&item.Course, &item.Week,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (repository *PostgresRepository) GetByID(context context.Context, id string) (*Exercise, error) {
	query := selectClause() + fmt.Sprintf(` WHERE e.%s = $1`, schema.Exercise.ID)

	item, err := scanExercise(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_exercise_by_id")
	}
	return item, nil
}

func (repository *PostgresRepository) Update(context context.Context, id string, name string, tags []string) (*Exercise, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.Exercise.Table, schema.Exercise.Name, schema.Exercise.Tags, schema.Exercise.ID)

	result, err := repository.db.Exec(context, query, id, name, tags)
	if err != nil {
		return nil, dberr.Wrap(err, "update_exercise")
	}
	if result.RowsAffected() == 0 {
		return nil, dberr.Wrap(pgx.ErrNoRows, "update_exercise")
	}

	return repository.GetByID(context, id)
}

func (repository *PostgresRepository) Delete(context context.Context, id string) (string, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`,
		schema.Exercise.Table, schema.Exercise.ID, schema.Exercise.ImagePath)

	var imagePath string
	if err := repository.db.QueryRow(context, query, id).Scan(&imagePath); err != nil {
		return "", dberr.Wrap(err, "delete_exercise")
	}
	return imagePath, nil
}

// # Search and Filter

func (repository *PostgresRepository) SearchByName(context context.Context, query string, limit, offset int) ([]Exercise, int, error) {
	pattern := "%" + escapeLike(query) + "%"

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s ILIKE $1`,
		schema.Exercise.Table, schema.Exercise.Name)
	var total int
	if err := repository.db.QueryRow(context, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_search_exercises")
	}

	listQuery := selectClause() + fmt.Sprintf(
		` WHERE e.%s ILIKE $1 ORDER BY e.%s DESC LIMIT $2 OFFSET $3`,
		schema.Exercise.Name, schema.Exercise.CreatedAt)

	return repository.list(context, listQuery, total, pattern, limit, offset)
}

func (repository *PostgresRepository) FilterByTags(context context.Context, tags []string, limit, offset int) ([]Exercise, int, error) {
	lowered := make([]string, len(tags))
	for index, tag := range tags {
		lowered[index] = strings.ToLower(strings.TrimSpace(tag))
	}

	// Any-match: an exercise qualifies when at least one of its tags equals,
	// case-insensitively, one of the requested tags.
	condition := fmt.Sprintf(`EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(%s.%s) AS tag
			WHERE LOWER(tag) = ANY($1)
		)`, "e", schema.Exercise.Tags)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s e WHERE %s`,
		schema.Exercise.Table, condition)
	var total int
	if err := repository.db.QueryRow(context, countQuery, lowered).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_filter_exercises")
	}

	listQuery := selectClause() + fmt.Sprintf(
		` WHERE %s ORDER BY e.%s DESC LIMIT $2 OFFSET $3`,
		condition, schema.Exercise.CreatedAt)

	return repository.list(context, listQuery, total, lowered, limit, offset)
}

// list runs a paginated select built from [selectClause].
func (repository *PostgresRepository) list(context context.Context, query string, total int, filter any, limit, offset int) ([]Exercise, int, error) {
	rows, err := repository.db.Query(context, query, filter, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_exercises")
	}
	defer rows.Close()

	exercises := make([]Exercise, 0)
	for rows.Next() {
		item, err := scanExercise(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_exercise")
		}
		exercises = append(exercises, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_exercises")
	}

	return exercises, total, nil
}

// escapeLike neutralizes LIKE metacharacters in user input.
func escapeLike(input string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(input)
}
