// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/bandsite/internal/middleware"
	"github.com/olegiv/bandsite/internal/service"
)

const (
	// multipartMemory is how much of a form is buffered before spilling to disk.
	multipartMemory = 8 << 20
	// multipartOverhead leaves room for boundaries and text fields.
	multipartOverhead = 1 << 20

	formFieldImage = "image"
)

// parseMultipart parses a size-limited multipart form. On failure it
// writes the error response and returns false. Callers must defer
// cleanupMultipart.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeValidationField(w, r, http.StatusUnprocessableEntity, middleware.CodeValidation,
				formFieldImage, "error.image_too_large")
			return false
		}
		slog.Debug("invalid multipart form", "path", r.URL.Path, "error", err)
		writeBadRequest(w, r)
		return false
	}
	return true
}

// cleanupMultipart removes temporary files of a parsed form.
func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formUpload returns the uploaded image, or nil when none was sent.
// The returned close function is never nil.
func formUpload(r *http.Request) (*service.Upload, func(), error) {
	file, header, err := r.FormFile(formFieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &service.Upload{Filename: header.Filename, Content: file}, func() { _ = file.Close() }, nil
}
