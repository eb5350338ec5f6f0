// Copyright (c) 2026 Exvault. All rights reserved.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exvault/exvault/internal/platform/respond"
)

// ImageReader resolves a stored relative path back to image bytes.
type ImageReader interface {
	Read(relativePath string) ([]byte, error)
}

// NewImageHandler serves exercise images by filename, resolving the same
// relative paths the database stores ("images/<uuid>.png").
func NewImageHandler(images ImageReader) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		file := chi.URLParam(request, "file")

		data, err := images.Read("images/" + file)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.PNG(writer, data)
	}
}
