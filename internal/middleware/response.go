// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/olegiv/bandsite/internal/i18n"
)

// Error codes shared by middleware and handlers.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeValidation   = "validation_error"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
)

// APIError is the error envelope of every JSON response.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// WriteLocalizedError writes a JSON error whose message is the translation
// of key in the request language.
func WriteLocalizedError(w http.ResponseWriter, r *http.Request, statusCode int, code, key string, args ...any) {
	WriteAPIError(w, statusCode, code, i18n.T(GetLang(r), key, args...), nil)
}
