// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package setting manages application-level configuration stored in the
database, most importantly the Gemini API key.

The credential endpoints never echo the stored key back; clients only learn
whether one is configured.
*/
package setting

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/exvault/exvault/internal/platform/request"
	"github.com/exvault/exvault/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for application settings.
type Handler struct {
	service *Service
}

// NewHandler constructs a new settings [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches the settings endpoints.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/api-key", handler.GetAPIKeyStatus)
	router.Put("/api-key", handler.SetAPIKey)
	router.Delete("/api-key", handler.ClearAPIKey)
}

// # API Key Management

/*
GET /api/v1/settings/api-key.

Description: Reports whether an AI credential is configured. The key itself
is never returned.

Response:
  - 200: {configured: bool}
*/
func (handler *Handler) GetAPIKeyStatus(writer http.ResponseWriter, request *http.Request) {
	configured, err := handler.service.IsConfigured(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"configured": configured})
}

// setAPIKeyRequest defines the inbound JSON schema for storing the credential.
type setAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

/*
PUT /api/v1/settings/api-key.

Description: Stores or replaces the AI credential.

Request:
  - api_key: string (required)

Response:
  - 204: Stored
  - 400: ValidationError: Empty key
*/
func (handler *Handler) SetAPIKey(writer http.ResponseWriter, request *http.Request) {
	var payload setAPIKeyRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SetAPIKey(request.Context(), payload.APIKey); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/settings/api-key.

Description: Removes the stored AI credential.

Response:
  - 204: Removed
*/
func (handler *Handler) ClearAPIKey(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.ClearAPIKey(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
