// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package exercise provides the HTTP interface for the exercise library.

It exposes lookup, search, tag filtering, metadata editing, and deletion of
saved exercises. Creation happens through the document workflow, which is
the only place crops and their image files originate.
*/
package exercise

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/exvault/exvault/internal/platform/request"
	"github.com/exvault/exvault/internal/platform/respond"
	"github.com/exvault/exvault/internal/platform/validate"
	"github.com/exvault/exvault/pkg/pagination"
)

const (
	FieldItems = "items"
	FieldTotal = "total"
)

// # Handler Implementation

// Handler implements the HTTP layer for the exercise library.
type Handler struct {
	service *Service
}

// NewHandler constructs a new exercise [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches the exercise endpoints.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/search", handler.SearchExercises)
	router.Get("/filter", handler.FilterExercises)
	router.Get("/{id}", handler.GetExercise)
	router.Patch("/{id}", handler.UpdateExercise)
	router.Delete("/{id}", handler.DeleteExercise)
}

// # Retrieval

/*
GET /api/v1/exercises/{id}.

Description: Returns a single exercise with its course and week context.

Response:
  - 200: Exercise
  - 404: NotFound
*/
func (handler *Handler) GetExercise(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	item, err := handler.service.GetExercise(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

// # Search and Filter

/*
GET /api/v1/exercises/search.

Description: Case-insensitive substring search over exercise names.

Request:
  - q: string (required)
  - limit: int
  - page: int

Response:
  - 200: {items: []Exercise, total: int}
*/
func (handler *Handler) SearchExercises(writer http.ResponseWriter, request *http.Request) {
	query := strings.TrimSpace(request.URL.Query().Get("q"))
	validator := &validate.Validator{}
	if err := validator.Required("q", query).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	items, total, err := handler.service.Search(request.Context(), query, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldItems: items,
		FieldTotal: total,
	})
}

/*
GET /api/v1/exercises/filter.

Description: Returns exercises carrying at least one of the requested tags,
matched case-insensitively.

Request:
  - tags: string (comma-separated, required)
  - limit: int
  - page: int

Response:
  - 200: {items: []Exercise, total: int}
*/
func (handler *Handler) FilterExercises(writer http.ResponseWriter, request *http.Request) {
	tags := splitTags(request.URL.Query().Get("tags"))
	validator := &validate.Validator{}
	if err := validator.Custom("tags", len(tags) == 0, "at least one tag is required").Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	items, total, err := handler.service.FilterByTags(request.Context(), tags, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldItems: items,
		FieldTotal: total,
	})
}

// # Mutation

// updateExerciseRequest defines the inbound JSON schema for metadata edits.
type updateExerciseRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

/*
PATCH /api/v1/exercises/{id}.

Description: Updates the name and tags of a saved exercise. The image and
bounding box are immutable; recapture goes through the document workflow.

Request:
  - name: string (required)
  - tags: []string (required, no duplicates)

Response:
  - 200: Exercise: Updated record
  - 400: ValidationError
  - 404: NotFound
*/
func (handler *Handler) UpdateExercise(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var payload updateExerciseRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("name", payload.Name).
		MaxLen("name", payload.Name, 500).
		Custom("tags", len(payload.Tags) == 0, "at least one tag is required").
		NoDuplicates("tags", payload.Tags).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.UpdateExercise(request.Context(), id, payload.Name, payload.Tags)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

/*
DELETE /api/v1/exercises/{id}.

Description: Deletes a saved exercise and its image file.

Response:
  - 204: Deleted
  - 404: NotFound
*/
func (handler *Handler) DeleteExercise(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.service.DeleteExercise(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// splitTags parses a comma-separated tag list, dropping blanks.
func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
