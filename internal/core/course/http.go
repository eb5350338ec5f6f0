// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package course provides the HTTP interface for the course/week hierarchy.

It exposes the grouped library listing, course and week deletion, and the
per-week backup export.
*/
package course

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/exvault/exvault/internal/platform/request"
	"github.com/exvault/exvault/internal/platform/respond"
	"github.com/exvault/exvault/pkg/slug"
)

// # Handler Implementation

// Handler implements the HTTP layer for course management.
type Handler struct {
	service *Service
}

// NewHandler constructs a new course [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches the course endpoints. Courses are addressed by
// name, matching how they are created from extraction results.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.ListCourses)
	router.Get("/{name}", handler.GetCourse)
	router.Delete("/{name}", handler.DeleteCourse)
	router.Delete("/{name}/weeks/{week}", handler.DeleteWeek)
	router.Get("/{name}/weeks/{week}/export", handler.ExportWeek)
}

// # Listing

/*
GET /api/v1/courses.

Description: Returns every course with its weeks and exercises, grouped and
ordered for direct display.

Response:
  - 200: []Course
*/
func (handler *Handler) ListCourses(writer http.ResponseWriter, request *http.Request) {
	courses, err := handler.service.ListCourses(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, courses)
}

/*
GET /api/v1/courses/{name}.

Description: Returns a single course by name with its full week and
exercise tree.

Response:
  - 200: Course
  - 404: NotFound
*/
func (handler *Handler) GetCourse(writer http.ResponseWriter, request *http.Request) {
	name := requestutil.Param(request, "name")

	item, err := handler.service.GetCourse(request.Context(), name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

// # Deletion

/*
DELETE /api/v1/courses/{name}.

Description: Removes a course, all of its weeks and exercises, and their
image files.

Response:
  - 204: Deleted
  - 404: NotFound
*/
func (handler *Handler) DeleteCourse(writer http.ResponseWriter, request *http.Request) {
	name := requestutil.Param(request, "name")

	if err := handler.service.DeleteCourse(request.Context(), name); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/courses/{name}/weeks/{week}.

Description: Removes one week of a course with its exercises and images.

Response:
  - 204: Deleted
  - 404: NotFound
*/
func (handler *Handler) DeleteWeek(writer http.ResponseWriter, request *http.Request) {
	name := requestutil.Param(request, "name")
	week, err := requestutil.IntParam(request, "week")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteWeek(request.Context(), name, week); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Export

/*
GET /api/v1/courses/{name}/weeks/{week}/export.

Description: Downloads the week's exercises as a self-contained JSON backup
with images inlined as data references.

Response:
  - 200: ExportDocument (attachment)
  - 404: NotFound: Week has no exercises
*/
func (handler *Handler) ExportWeek(writer http.ResponseWriter, request *http.Request) {
	name := requestutil.Param(request, "name")
	week, err := requestutil.IntParam(request, "week")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	document, err := handler.service.Export(request.Context(), name, week)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filename := fmt.Sprintf("%s-week-%d.json", slug.From(name), week)
	respond.Download(writer, filename, document)
}
