// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var testCSRFKey = []byte("0123456789abcdefghijklmnopqrstuv")

func TestDefaultCSRFConfig(t *testing.T) {
	dev := DefaultCSRFConfig(testCSRFKey, true, []string{"band.example"})
	if len(dev.TrustedOrigins) != 3 || dev.TrustedOrigins[0] != "band.example" {
		t.Errorf("dev origins = %v", dev.TrustedOrigins)
	}

	prod := DefaultCSRFConfig(testCSRFKey, false, nil)
	if len(prod.TrustedOrigins) != 0 {
		t.Errorf("prod origins = %v, want none", prod.TrustedOrigins)
	}
}

func TestCSRF(t *testing.T) {
	h := Language(CSRF(DefaultCSRFConfig(testCSRFKey, false, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name       string
		method     string
		fetchSite  string
		wantStatus int
	}{
		{"safe method", http.MethodGet, "cross-site", http.StatusOK},
		{"same-origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"non-browser post", http.MethodPost, "", http.StatusOK},
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
		{"cross-site delete", http.MethodDelete, "cross-site", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/admin/tour-dates", nil)
			if tt.fetchSite != "" {
				req.Header.Set("Sec-Fetch-Site", tt.fetchSite)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				body := decodeAPIError(t, rec)
				if body.Error.Message != "Anfrage-Herkunft abgelehnt" {
					t.Errorf("message = %q", body.Error.Message)
				}
			}
		})
	}
}
