// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/store"
	"github.com/olegiv/bandsite/internal/testutil"
)

func TestTourDates_CRUD(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	resp, body := env.do(t, c, http.MethodPost, "/admin/tour-dates", service.TourDateInput{
		Date:       "2026-05-01",
		City:       "Berlin",
		Venue:      "SO36",
		TicketLink: "https://tickets.example/so36",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decodeData[store.TourDate](t, body)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Berlin", created.City)
	assert.False(t, created.SoldOut)

	soldOut := true
	resp, body = env.do(t, c, http.MethodPatch, "/admin/tour-dates/"+created.ID, service.TourDatePatch{SoldOut: &soldOut})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	updated := decodeData[store.TourDate](t, body)
	assert.True(t, updated.SoldOut)
	assert.Equal(t, "SO36", updated.Venue)

	resp, body = env.do(t, c, http.MethodGet, "/admin/tour-dates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeData[[]store.TourDate](t, body)
	require.Len(t, list, 1)
	assert.True(t, list[0].SoldOut)

	resp, _ = env.do(t, c, http.MethodDelete, "/admin/tour-dates/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deleting an unknown id succeeds.
	resp, _ = env.do(t, c, http.MethodDelete, "/admin/tour-dates/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = env.do(t, c, http.MethodPut, "/admin/tour-dates/"+created.ID, service.TourDatePatch{SoldOut: &soldOut})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Eintrag nicht gefunden", decodeError(t, body).Error.Message)

	assert.Equal(t, 1, env.countEvents(t, "Tour date created"))
	assert.Equal(t, 2, env.countEvents(t, "Tour date deleted"))
}

func TestTourDates_Validation(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	resp, body := env.do(t, c, http.MethodPost, "/admin/tour-dates", service.TourDateInput{
		Date:       "01.05.2026",
		Venue:      "SO36",
		TicketLink: "javascript:alert(1)",
	}, "Accept-Language", "en")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	apiErr := decodeError(t, body)
	assert.Equal(t, "validation_error", apiErr.Error.Code)
	assert.Equal(t, "Please check your input", apiErr.Error.Message)
	assert.Equal(t, "Use the format YYYY-MM-DD", apiErr.Error.Details["date"])
	assert.Equal(t, "This field is required", apiErr.Error.Details["city"])
	assert.Equal(t, "Must be an http(s) link", apiErr.Error.Details["ticketLink"])
}

func TestTourDates_BandmemberForbidden(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "andy", testMemberPassword)

	resp, body := env.do(t, c, http.MethodPost, "/admin/tour-dates", service.TourDateInput{
		Date: "2026-05-01", City: "Berlin", Venue: "SO36",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Keine Berechtigung", decodeError(t, body).Error.Message)

	resp, _ = env.do(t, c, http.MethodGet, "/admin/tour-dates", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	items, err := env.tourDates.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 2, env.countEvents(t, "Access denied"))
}

func TestGallery_Create(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "chris", testMemberPassword)

	resp, body := env.upload(t, c, "/admin/gallery",
		map[string]string{"headline": "Live in Köln", "subheadline": "Sommer 2025"},
		"Björn am Schlagzeug.png", testutil.PNG(t, 90, 160))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	photo := decodeData[store.GalleryPhoto](t, body)
	assert.Equal(t, "Live in Köln", photo.Headline)
	assert.True(t, strings.HasPrefix(photo.ImageURL, "https://blobs.test/gallery/"), photo.ImageURL)
	assert.True(t, strings.HasPrefix(photo.StoragePath, "gallery/"), photo.StoragePath)
	assert.Contains(t, photo.StoragePath, "bjorn-am-schlagzeug")
	assert.True(t, env.blobs.Has(photo.StoragePath))

	headline := "Live in Köln (Zugabe)"
	resp, body = env.do(t, c, http.MethodPut, "/admin/gallery/"+photo.ID, service.GalleryPatch{Headline: &headline})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	updated := decodeData[store.GalleryPhoto](t, body)
	assert.Equal(t, headline, updated.Headline)
	assert.Equal(t, photo.ImageURL, updated.ImageURL)

	resp, _ = env.do(t, c, http.MethodDelete, "/admin/gallery/"+photo.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, env.blobs.Has(photo.StoragePath))
}

func TestGallery_CreateRejectsBadUploads(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	tests := []struct {
		name     string
		filename string
		image    []byte
		wantMsg  string
	}{
		{"missing image", "", nil, "Bitte wähle ein Bild aus (9:16 Format empfohlen)"},
		{"not an image", "notes.png", []byte("definitely not a png"), "Nicht unterstütztes Bildformat"},
		{"too large", "huge.png", make([]byte, testMaxUpload+1), "Das Bild ist zu groß"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.upload(t, c, "/admin/gallery", map[string]string{"headline": "x"}, tt.filename, tt.image)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
			assert.Equal(t, tt.wantMsg, decodeError(t, body).Error.Details["image"])
		})
	}

	items, err := env.gallery.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, env.blobs.Keys())
}

func TestGallery_BlobFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)
	env.blobs.FailPut = true

	resp, body := env.upload(t, c, "/admin/gallery", map[string]string{"headline": "x"}, "a.png", testutil.PNG(t, 10, 10))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	apiErr := decodeError(t, body)
	assert.Equal(t, "Fehler beim Speichern", apiErr.Error.Message)
	assert.NotContains(t, string(body), testutil.ErrInjected.Error())
}

func TestTimeline_CreateRequiresImage(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "matze", testMemberPassword)

	resp, body := env.upload(t, c, "/admin/timeline", map[string]string{
		"date":    "2025-08-09",
		"badge":   "live",
		"title":   "Open Air",
		"caption": "Ein **großartiger** Abend",
	}, "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
	assert.Equal(t, "Bitte wähle ein Bild aus (9:16 Format empfohlen)", decodeError(t, body).Error.Details["image"])

	items, err := env.timeline.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTimeline_UpdateEventWithoutImage(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "matze", testMemberPassword)

	// Records without an asset can still exist, e.g. after an import.
	ev, err := env.timeline.Create(context.Background(), service.TimelineInput{
		Date: "2025-08-09", Badge: "live", Title: "Open Air", Caption: "Ein **großartiger** Abend",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "LIVE", ev.Badge)
	assert.Empty(t, ev.ImageURL)
	assert.Empty(t, ev.StoragePath)

	caption := "Neue Bildunterschrift"
	resp, body := env.do(t, c, http.MethodPatch, "/admin/timeline/"+ev.ID, service.TimelinePatch{Caption: &caption})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, caption, decodeData[store.TimelineEvent](t, body).Caption)

	badge := "PARTY"
	resp, body = env.do(t, c, http.MethodPatch, "/admin/timeline/"+ev.ID, service.TimelinePatch{Badge: &badge})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Unbekanntes Badge", decodeError(t, body).Error.Details["badge"])
}

func TestTimeline_CreateWithImage(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	resp, body := env.upload(t, c, "/admin/timeline", map[string]string{
		"date":    "2025-03-01",
		"badge":   "STUDIO",
		"title":   "Aufnahmen",
		"caption": "Tag 1 im Studio",
	}, "studio.png", testutil.PNG(t, 40, 40))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	ev := decodeData[store.TimelineEvent](t, body)
	assert.True(t, strings.HasPrefix(ev.StoragePath, "timeline/"), ev.StoragePath)
	assert.True(t, env.blobs.Has(ev.StoragePath))

	// A failing blob delete does not keep the record alive.
	env.blobs.FailDel = true
	resp, _ = env.do(t, c, http.MethodDelete, "/admin/timeline/"+ev.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err := env.timeline.Get(context.Background(), ev.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPublicListings_Cached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	anon := env.client(t)

	_, err := env.tourDates.Create(ctx, service.TourDateInput{Date: "2026-06-01", City: "Hamburg", Venue: "Knust"})
	require.NoError(t, err)

	resp, body := env.do(t, anon, http.MethodGet, "/api/v1/tour-dates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeData[[]store.TourDate](t, body), 1)

	// A row written behind the services' back is not visible until a
	// write through the service invalidates the cache.
	now := time.Now().UTC()
	require.NoError(t, store.New(env.db).CreateTourDate(ctx, store.TourDate{
		ID: "direct", Date: "2026-07-01", City: "Leipzig", Venue: "Conne Island", CreatedAt: now, UpdatedAt: now,
	}))
	_, body = env.do(t, anon, http.MethodGet, "/api/v1/tour-dates", nil)
	assert.Len(t, decodeData[[]store.TourDate](t, body), 1)

	_, err = env.tourDates.Create(ctx, service.TourDateInput{Date: "2026-05-01", City: "Berlin", Venue: "SO36"})
	require.NoError(t, err)

	_, body = env.do(t, anon, http.MethodGet, "/api/v1/tour-dates", nil)
	list := decodeData[[]store.TourDate](t, body)
	require.Len(t, list, 3)
	assert.Equal(t, "Berlin", list[0].City)
	assert.Equal(t, "Leipzig", list[2].City)
}

func TestPublicTimeline_RendersCaption(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.timeline.Create(ctx, service.TimelineInput{
		Date: "2025-08-09", Badge: "LIVE", Title: "Open Air",
		Caption: "Ein **großartiger** Abend <script>alert(1)</script>",
	}, nil)
	require.NoError(t, err)

	resp, body := env.do(t, env.client(t), http.MethodGet, "/api/v1/timeline", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decodeData[[]PublicTimelineEvent](t, body)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].CaptionHTML, "<strong>großartiger</strong>")
	assert.NotContains(t, items[0].CaptionHTML, "<script>")
	assert.Equal(t, "Open Air", items[0].Title)
}

func TestPublicListings_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/tour-dates", "/api/v1/gallery", "/api/v1/timeline"} {
		resp, body := env.do(t, env.client(t), http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.True(t, containsAll(string(body), `"data":[]`, `"total":0`), "%s: %s", path, body)
	}
}
