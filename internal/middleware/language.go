// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/olegiv/bandsite/internal/i18n"
)

// ContextKeyLanguage holds the response language code.
const ContextKeyLanguage ContextKey = "language"

// Language picks the response language. An explicit ?lang=xx wins over
// the Accept-Language header; anything unsupported falls back to German.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := strings.ToLower(r.URL.Query().Get("lang"))
		if !slices.Contains(i18n.SupportedLanguages, lang) {
			lang = i18n.MatchLanguage(r.Header.Get("Accept-Language"))
		}
		w.Header().Add("Vary", "Accept-Language")
		ctx := context.WithValue(r.Context(), ContextKeyLanguage, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLang returns the request language, or the default when the
// Language middleware did not run.
func GetLang(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLanguage).(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}
