// Copyright (c) 2026 Exvault. All rights reserved.

package document

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exvault/exvault/internal/platform/apperr"
	"github.com/exvault/exvault/internal/platform/constants"
	requestutil "github.com/exvault/exvault/internal/platform/request"
	"github.com/exvault/exvault/internal/platform/respond"
	"github.com/exvault/exvault/internal/platform/validate"
)

// # Handler Implementation

// Handler implements the HTTP layer for the capture workflow.
type Handler struct {
	service *Service
}

// NewHandler constructs a new document [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches the capture workflow endpoints.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/", handler.Upload)
	router.Get("/{id}", handler.GetSession)
	router.Delete("/{id}", handler.CloseSession)
	router.Get("/{id}/composite", handler.GetComposite)
	router.Post("/{id}/extract", handler.Extract)
	router.Get("/{id}/exercises", handler.ListExercises)
	router.Post("/{id}/exercises", handler.AddExercise)
	router.Patch("/{id}/exercises/{exerciseID}", handler.UpdateExercise)
	router.Delete("/{id}/exercises/{exerciseID}", handler.RemoveExercise)
	router.Get("/{id}/exercises/{exerciseID}/crop", handler.GetCrop)
	router.Post("/{id}/select", handler.SelectExercise)
	router.Post("/{id}/editor-events", handler.EditorEvent)
	router.Post("/{id}/save", handler.SaveWeek)
	router.Post("/{id}/exercises/{exerciseID}/save", handler.SaveExercise)
}

// # Upload

/*
POST /api/v1/documents.

Description: Uploads a PDF or image (multipart field "file"), rasterizes it,
and opens a capture session around the stitched composite.

Response:
  - 201: View: New session snapshot
  - 422: IMAGE_DECODE_ERROR: Undecodable or empty upload
*/
func (handler *Handler) Upload(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxUploadBytes)

	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("A file upload is required under field 'file'"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Upload could not be read"))
		return
	}

	view, err := handler.service.CreateSession(request.Context(), header.Filename, data)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, view)
}

// # Session State

/*
GET /api/v1/documents/{id}.

Description: Returns the current session snapshot.

Response:
  - 200: View
  - 404: NotFound
*/
func (handler *Handler) GetSession(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.GetSession(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
DELETE /api/v1/documents/{id}.

Description: Discards a session and everything unsaved in it.

Response:
  - 204: Closed
  - 404: NotFound
*/
func (handler *Handler) CloseSession(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.CloseSession(requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
GET /api/v1/documents/{id}/composite.

Description: Returns the stitched composite as PNG.

Response:
  - 200: image/png
  - 404: NotFound
*/
func (handler *Handler) GetComposite(writer http.ResponseWriter, request *http.Request) {
	frame, err := handler.service.Composite(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.PNG(writer, frame.PNG)
}

// # Extraction

/*
POST /api/v1/documents/{id}/extract.

Description: Runs AI analysis over the session's pages and replaces the
draft exercise list with the proposal. Re-entrant calls while one is
outstanding are rejected.

Response:
  - 200: View: Snapshot with the proposed exercises
  - 409: CONFLICT: Extraction or save already in progress
  - 412: AUTH_ERROR: No API key configured
  - 502: PARSE_ERROR | EXTRACTION_ERROR
*/
func (handler *Handler) Extract(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.Extract(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

// # Draft Exercises

/*
GET /api/v1/documents/{id}/exercises.

Description: Returns the session's draft exercises.

Response:
  - 200: []DraftView
  - 404: NotFound
*/
func (handler *Handler) ListExercises(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.GetSession(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view.Exercises)
}

// draftRequest defines the inbound JSON schema for adding or editing a
// draft exercise.
type draftRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

func (payload draftRequest) validate() error {
	validator := &validate.Validator{}
	return validator.
		Required("name", payload.Name).
		MaxLen("name", payload.Name, 500).
		NoDuplicates("tags", payload.Tags).
		Err()
}

/*
POST /api/v1/documents/{id}/exercises.

Description: Adds a user-authored draft for an exercise the AI missed.

Request:
  - name: string (required)
  - tags: []string

Response:
  - 200: View
  - 400: ValidationError
*/
func (handler *Handler) AddExercise(writer http.ResponseWriter, request *http.Request) {
	var payload draftRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.AddDraft(requestutil.ID(request, "id"), payload.Name, payload.Tags)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
PATCH /api/v1/documents/{id}/exercises/{exerciseID}.

Description: Edits a draft's name and tags before saving.

Response:
  - 200: View
  - 404: NotFound
*/
func (handler *Handler) UpdateExercise(writer http.ResponseWriter, request *http.Request) {
	var payload draftRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.UpdateDraft(
		requestutil.ID(request, "id"),
		requestutil.ID(request, "exerciseID"),
		payload.Name, payload.Tags,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
DELETE /api/v1/documents/{id}/exercises/{exerciseID}.

Description: Removes a draft from the session.

Response:
  - 200: View
  - 404: NotFound
*/
func (handler *Handler) RemoveExercise(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.RemoveDraft(
		requestutil.ID(request, "id"),
		requestutil.ID(request, "exerciseID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
GET /api/v1/documents/{id}/exercises/{exerciseID}/crop.

Description: Returns the draft's cropped image as PNG.

Response:
  - 200: image/png
  - 409: SOURCE_NOT_READY: No crop drawn yet
*/
func (handler *Handler) GetCrop(writer http.ResponseWriter, request *http.Request) {
	frame, err := handler.service.Crop(
		requestutil.ID(request, "id"),
		requestutil.ID(request, "exerciseID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.PNG(writer, frame.PNG)
}

// # Selection and Drawing

// selectRequest defines the inbound JSON schema for selecting a draft.
type selectRequest struct {
	ExerciseID string `json:"exercise_id"`
}

/*
POST /api/v1/documents/{id}/select.

Description: Selects the draft the next drawing gesture attaches to.

Request:
  - exercise_id: string (required)

Response:
  - 200: View
  - 404: NotFound
*/
func (handler *Handler) SelectExercise(writer http.ResponseWriter, request *http.Request) {
	var payload selectRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required("exercise_id", payload.ExerciseID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Select(requestutil.ID(request, "id"), payload.ExerciseID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
POST /api/v1/documents/{id}/editor-events.

Description: Feeds one pointer event (down, move, up, leave) into the box
editor. Coordinates are on-screen pixels together with the rendered height,
so the server can recompute the scale per event. Completing a gesture crops
the selected draft; nothing is persisted.

Request:
  - type: string (down, move, up, leave)
  - y: float
  - view_height: float (> 0)

Response:
  - 200: View
  - 400: ValidationError
*/
func (handler *Handler) EditorEvent(writer http.ResponseWriter, request *http.Request) {
	var event PointerEvent
	if err := requestutil.DecodeJSON(request, &event); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		OneOf("type", event.Type, EventDown, EventMove, EventUp, EventLeave).
		Positive("view_height", event.ViewHeight).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.HandlePointer(requestutil.ID(request, "id"), event)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

// # Saving

// saveWeekRequest defines the inbound JSON schema for the batch save.
type saveWeekRequest struct {
	Course string `json:"course"`
	Week   int    `json:"week"`
}

/*
POST /api/v1/documents/{id}/save.

Description: Persists every cropped draft as the given week of the course,
atomically replacing the week's previous contents. The course defaults to
the extracted course name.

Request:
  - course: string (optional, defaults to the extracted name)
  - week: int (required, >= 1)

Response:
  - 200: []Exercise: Saved records
  - 409: CONFLICT: Extraction or save already in progress
  - 422: UNPROCESSABLE: No cropped exercises
  - 500: SAVE_ERROR
*/
func (handler *Handler) SaveWeek(writer http.ResponseWriter, request *http.Request) {
	var payload saveWeekRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Range("week", payload.Week, 1, 1000).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	saved, err := handler.service.SaveWeek(request.Context(), requestutil.ID(request, "id"), payload.Course, payload.Week)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, saved)
}

/*
POST /api/v1/documents/{id}/exercises/{exerciseID}/save.

Description: Persists a single cropped draft without touching the rest of
the week.

Request:
  - course: string (optional)
  - week: int (required, >= 1)

Response:
  - 200: Exercise: Saved record
  - 422: UNPROCESSABLE: Draft has no crop
*/
func (handler *Handler) SaveExercise(writer http.ResponseWriter, request *http.Request) {
	var payload saveWeekRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Range("week", payload.Week, 1, 1000).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	saved, err := handler.service.SaveExercise(
		request.Context(),
		requestutil.ID(request, "id"),
		requestutil.ID(request, "exerciseID"),
		payload.Course, payload.Week,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, saved)
}
