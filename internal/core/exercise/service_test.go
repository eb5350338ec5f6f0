// Copyright (c) 2026 Exvault. All rights reserved.

package exercise

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exvault/exvault/internal/platform/apperr"
)

// # Fakes

// memoryRepository is a minimal in-memory Repository for service tests.
type memoryRepository struct {
	nextID    int
	exercises map[string]*Exercise
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{exercises: make(map[string]*Exercise)}
}

func (repository *memoryRepository) store(course string, week int, item Exercise) *Exercise {
	repository.nextID++
	item.ID = strconv.Itoa(repository.nextID)
	item.Course = course
	item.Week = week
	repository.exercises[item.ID] = &item
	return &item
}

func (repository *memoryRepository) ReplaceWeek(_ context.Context, course string, week int, items []Exercise) ([]Exercise, []string, error) {
	removed := make([]string, 0)
	for id, existing := range repository.exercises {
		if existing.Course == course && existing.Week == week {
			removed = append(removed, existing.ImagePath)
			delete(repository.exercises, id)
		}
	}

	saved := make([]Exercise, 0, len(items))
	for _, item := range items {
		saved = append(saved, *repository.store(course, week, item))
	}
	return saved, removed, nil
}

func (repository *memoryRepository) Insert(_ context.Context, course string, week int, item Exercise) (*Exercise, error) {
	return repository.store(course, week, item), nil
}

func (repository *memoryRepository) GetByID(_ context.Context, id string) (*Exercise, error) {
	item, ok := repository.exercises[id]
	if !ok {
		return nil, apperr.NotFound("Exercise")
	}
	return item, nil
}

func (repository *memoryRepository) Update(_ context.Context, id string, name string, tags []string) (*Exercise, error) {
	item, ok := repository.exercises[id]
	if !ok {
		return nil, apperr.NotFound("Exercise")
	}
	item.Name = name
	item.Tags = tags
	return item, nil
}

func (repository *memoryRepository) Delete(_ context.Context, id string) (string, error) {
	item, ok := repository.exercises[id]
	if !ok {
		return "", apperr.NotFound("Exercise")
	}
	delete(repository.exercises, id)
	return item.ImagePath, nil
}

func (repository *memoryRepository) SearchByName(_ context.Context, query string, limit, offset int) ([]Exercise, int, error) {
	matches := make([]Exercise, 0)
	for _, item := range repository.exercises {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(query)) {
			matches = append(matches, *item)
		}
	}
	return matches, len(matches), nil
}

func (repository *memoryRepository) FilterByTags(_ context.Context, tags []string, limit, offset int) ([]Exercise, int, error) {
	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[strings.ToLower(tag)] = struct{}{}
	}

	matches := make([]Exercise, 0)
	for _, item := range repository.exercises {
		for _, tag := range item.Tags {
			if _, ok := wanted[strings.ToLower(tag)]; ok {
				matches = append(matches, *item)
				break
			}
		}
	}
	return matches, len(matches), nil
}

// recordingRemover records deleted image paths.
type recordingRemover struct {
	deleted []string
	err     error
}

func (remover *recordingRemover) Delete(path string) error {
	remover.deleted = append(remover.deleted, path)
	return remover.err
}

// # Tests

/*
TestService_ReplaceWeek verifies the replace-then-cleanup contract: prior
exercises of the week vanish, their image files are removed, and other
weeks are untouched.
*/
func TestService_ReplaceWeek(t *testing.T) {
	repository := newMemoryRepository()
	remover := &recordingRemover{}
	service := NewService(repository, remover, slog.Default())
	ctx := t.Context()

	// Seed week 1 and week 2.
	_, err := service.SaveOne(ctx, "Analysis", 1, Exercise{Name: "Old 1", ImagePath: "images/old1.png"})
	require.NoError(t, err)
	_, err = service.SaveOne(ctx, "Analysis", 2, Exercise{Name: "Keep", ImagePath: "images/keep.png"})
	require.NoError(t, err)

	saved, err := service.ReplaceWeek(ctx, "Analysis", 1, []Exercise{
		{Name: "New 1", ImagePath: "images/new1.png"},
		{Name: "New 2", ImagePath: "images/new2.png"},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	// Old image removed, survivor untouched.
	assert.Equal(t, []string{"images/old1.png"}, remover.deleted)

	items, total, err := service.Search(ctx, "keep", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Keep", items[0].Name)
}

/*
TestService_ReplaceWeek_FileCleanupFailureIsNonFatal verifies a failed file
removal never fails the save; the database state is already committed.
*/
func TestService_ReplaceWeek_FileCleanupFailureIsNonFatal(t *testing.T) {
	repository := newMemoryRepository()
	remover := &recordingRemover{err: errors.New("disk unhappy")}
	service := NewService(repository, remover, slog.Default())
	ctx := t.Context()

	_, err := service.SaveOne(ctx, "Analysis", 1, Exercise{Name: "Old", ImagePath: "images/old.png"})
	require.NoError(t, err)

	saved, err := service.ReplaceWeek(ctx, "Analysis", 1, []Exercise{{Name: "New", ImagePath: "images/new.png"}})

	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

/*
TestService_SaveOne_NoDeduplication verifies saving the same capture twice
creates two records; duplicate handling is deliberately left to the user.
*/
func TestService_SaveOne_NoDeduplication(t *testing.T) {
	repository := newMemoryRepository()
	service := NewService(repository, &recordingRemover{}, slog.Default())
	ctx := t.Context()

	first, err := service.SaveOne(ctx, "Analysis", 1, Exercise{Name: "Exercise 1", ImagePath: "images/a.png"})
	require.NoError(t, err)
	second, err := service.SaveOne(ctx, "Analysis", 1, Exercise{Name: "Exercise 1", ImagePath: "images/b.png"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	_, total, err := service.Search(ctx, "Exercise 1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestService_DeleteExercise_RemovesImage(t *testing.T) {
	repository := newMemoryRepository()
	remover := &recordingRemover{}
	service := NewService(repository, remover, slog.Default())
	ctx := t.Context()

	saved, err := service.SaveOne(ctx, "Analysis", 1, Exercise{Name: "Gone", ImagePath: "images/gone.png"})
	require.NoError(t, err)

	require.NoError(t, service.DeleteExercise(ctx, saved.ID))
	assert.Equal(t, []string{"images/gone.png"}, remover.deleted)

	_, err = service.GetExercise(ctx, saved.ID)
	assert.Error(t, err)
}

func TestService_FilterByTags_CaseInsensitive(t *testing.T) {
	repository := newMemoryRepository()
	service := NewService(repository, &recordingRemover{}, slog.Default())
	ctx := t.Context()

	_, err := service.SaveOne(ctx, "Algorithms", 1, Exercise{Name: "Sorting", Tags: []string{"programming", "Sorting"}})
	require.NoError(t, err)
	_, err = service.SaveOne(ctx, "Algorithms", 1, Exercise{Name: "Proof", Tags: []string{"homework", "induction"}})
	require.NoError(t, err)

	items, total, err := service.FilterByTags(ctx, []string{"SORTING", "graphs"}, 10, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Sorting", items[0].Name)
}
