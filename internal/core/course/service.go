// Copyright (c) 2026 Exvault. All rights reserved.

package course

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/exvault/exvault/internal/platform/apperr"
)

// ImageStore is the slice of the image store the course service needs:
// reading crops for export and removing them on deletion.
type ImageStore interface {
	Read(relativePath string) ([]byte, error)
	Delete(relativePath string) error
}

type Service struct {
	repo   Repository
	images ImageStore
	logger *slog.Logger
}

func NewService(repo Repository, images ImageStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

func (service *Service) ListCourses(context context.Context) ([]Course, error) {
	return service.repo.ListGrouped(context)
}

func (service *Service) GetCourse(context context.Context, name string) (*Course, error) {
	return service.repo.GetByName(context, name)
}

// DeleteCourse removes a course, every week under it, and all of their
// image files. Files go only after the database commit.
func (service *Service) DeleteCourse(context context.Context, name string) error {
	removedPaths, err := service.repo.DeleteByName(context, name)
	if err != nil {
		return err
	}

	service.removeFiles(removedPaths)

	service.logger.Info("course deleted",
		slog.String("course", name),
		slog.Int("removed_images", len(removedPaths)),
	)
	return nil
}

// DeleteWeek removes one week of a course and its image files.
func (service *Service) DeleteWeek(context context.Context, name string, week int) error {
	removedPaths, err := service.repo.DeleteWeek(context, name, week)
	if err != nil {
		return err
	}

	service.removeFiles(removedPaths)

	service.logger.Info("week deleted",
		slog.String("course", name),
		slog.Int("week", week),
		slog.Int("removed_images", len(removedPaths)),
	)
	return nil
}

// Export builds the self-contained backup document for one course week,
// inlining each exercise image as a data reference.
func (service *Service) Export(context context.Context, name string, week int) (*ExportDocument, error) {
	exercises, err := service.repo.WeekExercises(context, name, week)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return nil, apperr.NotFound("Week")
	}

	document := &ExportDocument{
		CourseName: name,
		Week:       week,
		Exercises:  make([]ExportExercise, 0, len(exercises)),
	}

	for _, item := range exercises {
		entry := ExportExercise{Name: item.Name, Tags: item.Tags}

		if item.ImagePath != "" {
			data, err := service.images.Read(item.ImagePath)
			if err != nil {
				// A backup with a missing image is better than no backup.
				service.logger.Warn("export skipping unreadable image",
					slog.String("path", item.ImagePath),
					slog.String("error", err.Error()),
				)
			} else {
				entry.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
			}
		}

		document.Exercises = append(document.Exercises, entry)
	}

	return document, nil
}

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
