// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/store"
)

func TestUsers_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	resp, body := env.do(t, c, http.MethodPost, "/admin/users", service.CreateUserInput{
		Username: "sam", Password: "sam-secret", DisplayName: "Sam Roadie", Role: "bandmember",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	sam := decodeData[store.User](t, body)
	assert.Equal(t, "sam", sam.Username)
	assert.NotContains(t, string(body), "argon2id")

	// Same username again.
	resp, body = env.do(t, c, http.MethodPost, "/admin/users", service.CreateUserInput{
		Username: "sam", Password: "other", DisplayName: "Other Sam", Role: "bandmember",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	apiErr := decodeError(t, body)
	assert.Equal(t, "Benutzername existiert bereits", apiErr.Error.Message)
	assert.Equal(t, "Benutzername existiert bereits", apiErr.Error.Details["username"])

	// The new account can sign in and gets bandmember rights only.
	samClient := env.loginAs(t, "sam", "sam-secret")
	resp, _ = env.do(t, samClient, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	role := "admin"
	resp, body = env.do(t, c, http.MethodPatch, "/admin/users/"+sam.ID, service.UpdateUserInput{Role: &role})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "admin", decodeData[store.User](t, body).Role)

	// Role changes apply to the running session on its next request.
	resp, _ = env.do(t, samClient, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, c, http.MethodDelete, "/admin/users/"+sam.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// A deleted user's session ends.
	resp, _ = env.do(t, samClient, http.MethodGet, "/admin/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, c, http.MethodDelete, "/admin/users/"+sam.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 1, env.countEvents(t, "User created"))
	assert.Equal(t, 1, env.countEvents(t, "User deleted"))
}

func TestUsers_AdminProtected(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)
	ctx := context.Background()

	admin, err := env.users.LookupByUsername(ctx, "admin")
	require.NoError(t, err)

	resp, body := env.do(t, c, http.MethodDelete, "/admin/users/"+admin.ID, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Der Admin-Account kann nicht gelöscht werden", decodeError(t, body).Error.Message)

	_, err = env.users.Get(ctx, admin.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, env.countEvents(t, "Attempt to delete protected user"))

	role := "bandmember"
	resp, _ = env.do(t, c, http.MethodPut, "/admin/users/"+admin.ID, service.UpdateUserInput{Role: &role})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The admin password can still change.
	password := "new-admin-secret"
	resp, body = env.do(t, c, http.MethodPut, "/admin/users/"+admin.ID, service.UpdateUserInput{Password: &password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	env.loginAs(t, "admin", password)
}

func TestUsers_Validation(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	resp, body := env.do(t, c, http.MethodPost, "/admin/users", service.CreateUserInput{
		Username: "two words", Role: "drummer",
	}, "Accept-Language", "en")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	details := decodeError(t, body).Error.Details
	assert.Equal(t, "Usernames cannot contain spaces", details["username"])
	assert.Equal(t, "This field is required", details["password"])
	assert.Equal(t, "This field is required", details["displayName"])
	assert.Equal(t, "Unknown role", details["role"])
}

func TestUsers_UpdateUnknown(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	name := "Nobody"
	resp, _ := env.do(t, c, http.MethodPatch, "/admin/users/does-not-exist", service.UpdateUserInput{DisplayName: &name})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvents_List(t *testing.T) {
	env := newTestEnv(t)
	c := env.loginAs(t, "admin", testAdminPassword)

	resp, body := env.do(t, c, http.MethodGet, "/admin/events", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entries := decodeData[[]service.EventEntry](t, body)
	require.NotEmpty(t, entries)
	assert.Equal(t, "User logged in", entries[0].Message)
	assert.Equal(t, "admin", entries[0].Metadata["username"])

	member := env.loginAs(t, "flo", testMemberPassword)
	resp, _ = env.do(t, member, http.MethodGet, "/admin/events", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
