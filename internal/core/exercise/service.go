// Copyright (c) 2026 Exvault. All rights reserved.

package exercise

import (
	"context"
	"log/slog"
)

// ImageRemover deletes stored exercise images by their relative path.
type ImageRemover interface {
	Delete(relativePath string) error
}

type Service struct {
	repo   Repository
	images ImageRemover
	logger *slog.Logger
}

func NewService(repo Repository, images ImageRemover, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

// ReplaceWeek atomically replaces a week's exercises and then removes image
// files orphaned by the replacement. File cleanup happens only after the
// database commit; a failed save never touches existing files.
func (service *Service) ReplaceWeek(context context.Context, course string, week int, exercises []Exercise) ([]Exercise, error) {
	saved, removedPaths, err := service.repo.ReplaceWeek(context, course, week, exercises)
	if err != nil {
		return nil, err
	}

	service.removeFiles(removedPaths)

	service.logger.Info("week saved",
		slog.String("course", course),
		slog.Int("week", week),
		slog.Int("exercise_count", len(saved)),
		slog.Int("replaced_count", len(removedPaths)),
	)
	return saved, nil
}

// SaveOne persists a single exercise alongside whatever the week already
// holds. Repeated saves of the same capture create separate records.
func (service *Service) SaveOne(context context.Context, course string, week int, item Exercise) (*Exercise, error) {
	return service.repo.Insert(context, course, week, item)
}

func (service *Service) GetExercise(context context.Context, id string) (*Exercise, error) {
	return service.repo.GetByID(context, id)
}

func (service *Service) UpdateExercise(context context.Context, id string, name string, tags []string) (*Exercise, error) {
	return service.repo.Update(context, id, name, tags)
}

// DeleteExercise removes the record and, best-effort, its image file.
func (service *Service) DeleteExercise(context context.Context, id string) error {
	imagePath, err := service.repo.Delete(context, id)
	if err != nil {
		return err
	}

	service.removeFiles([]string{imagePath})
	return nil
}

func (service *Service) Search(context context.Context, query string, limit, offset int) ([]Exercise, int, error) {
	return service.repo.SearchByName(context, query, limit, offset)
}

func (service *Service) FilterByTags(context context.Context, tags []string, limit, offset int) ([]Exercise, int, error) {
	return service.repo.FilterByTags(context, tags, limit, offset)
}

// removeFiles deletes image files, logging rather than failing on errors;
// the database rows are already gone and a stray file is recoverable noise.
func (service *Service) removeFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := service.images.Delete(path); err != nil {
			service.logger.Warn("orphaned image not removed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}
}
