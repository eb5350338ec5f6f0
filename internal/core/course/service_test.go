// Copyright (c) 2026 Exvault. All rights reserved.

package course

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exvault/exvault/internal/core/exercise"
	"github.com/exvault/exvault/internal/platform/apperr"
)

// # Fakes

type fakeRepository struct {
	courses     []Course
	weekContent map[string][]exercise.Exercise
	deletePaths []string
}

func (repository *fakeRepository) ListGrouped(context.Context) ([]Course, error) {
	return repository.courses, nil
}

func (repository *fakeRepository) GetByName(_ context.Context, name string) (*Course, error) {
	for index := range repository.courses {
		if repository.courses[index].Name == name {
			return &repository.courses[index], nil
		}
	}
	return nil, apperr.NotFound("Course")
}

func (repository *fakeRepository) DeleteByName(_ context.Context, name string) ([]string, error) {
	if _, err := repository.GetByName(context.Background(), name); err != nil {
		return nil, err
	}
	return repository.deletePaths, nil
}

func (repository *fakeRepository) DeleteWeek(_ context.Context, name string, week int) ([]string, error) {
	return repository.deletePaths, nil
}

func (repository *fakeRepository) WeekExercises(_ context.Context, name string, week int) ([]exercise.Exercise, error) {
	return repository.weekContent[name], nil
}

type fakeImageStore struct {
	files   map[string][]byte
	deleted []string
}

func (store *fakeImageStore) Read(path string) ([]byte, error) {
	data, ok := store.files[path]
	if !ok {
		return nil, apperr.NotFound("Image")
	}
	return data, nil
}

func (store *fakeImageStore) Delete(path string) error {
	store.deleted = append(store.deleted, path)
	return nil
}

// # Tests

func TestService_DeleteCourse_RemovesImages(t *testing.T) {
	repository := &fakeRepository{
		courses:     []Course{{Name: "Analysis"}},
		deletePaths: []string{"images/a.png", "images/b.png"},
	}
	store := &fakeImageStore{}
	service := NewService(repository, store, slog.Default())

	require.NoError(t, service.DeleteCourse(t.Context(), "Analysis"))

	assert.Equal(t, []string{"images/a.png", "images/b.png"}, store.deleted)
}

func TestService_DeleteCourse_NotFound(t *testing.T) {
	service := NewService(&fakeRepository{}, &fakeImageStore{}, slog.Default())

	err := service.DeleteCourse(t.Context(), "Missing")

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

/*
TestService_Export verifies the backup document shape: course name, week,
and per-exercise name/tags with the image inlined as a data reference.
*/
func TestService_Export(t *testing.T) {
	repository := &fakeRepository{
		weekContent: map[string][]exercise.Exercise{
			"Analysis": {
				{Name: "Exercise 1", Tags: []string{"homework", "limits"}, ImagePath: "images/one.png"},
				{Name: "Exercise 2", Tags: []string{"exam"}, ImagePath: "images/missing.png"},
			},
		},
	}
	store := &fakeImageStore{files: map[string][]byte{
		"images/one.png": []byte("png-bytes"),
	}}
	service := NewService(repository, store, slog.Default())

	document, err := service.Export(t.Context(), "Analysis", 3)

	require.NoError(t, err)
	assert.Equal(t, "Analysis", document.CourseName)
	assert.Equal(t, 3, document.Week)
	require.Len(t, document.Exercises, 2)

	assert.Equal(t, "Exercise 1", document.Exercises[0].Name)
	assert.True(t, strings.HasPrefix(document.Exercises[0].Image, "data:image/png;base64,"))

	// An unreadable image does not sink the whole backup.
	assert.Equal(t, "Exercise 2", document.Exercises[1].Name)
	assert.Empty(t, document.Exercises[1].Image)
}

func TestService_Export_EmptyWeek(t *testing.T) {
	service := NewService(&fakeRepository{weekContent: map[string][]exercise.Exercise{}}, &fakeImageStore{}, slog.Default())

	document, err := service.Export(t.Context(), "Analysis", 1)

	assert.Nil(t, document)

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}
