// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package shell is the admin panel state machine: signing in and out,
// the tabs a role may open and the guard on deleting accounts.
//
// A Shell moves between three states:
//
//	Unauthenticated --SubmitLogin--> Authenticating --ok--> Authenticated
//	                                       |
//	                                       +--fail--> Unauthenticated
//
// Logout returns to Unauthenticated from any state.
package shell

import (
	"context"
	"errors"
	"sync"

	"github.com/olegiv/bandsite/internal/auth"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/service"
	"github.com/olegiv/bandsite/internal/store"
)

// State of the shell.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Errors returned by Shell.
var (
	ErrLoginInProgress      = errors.New("login already in progress")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrPasswordRequired     = errors.New("password is required")
	ErrTabNotAllowed        = errors.New("tab not allowed for this role")
	ErrForbidden            = errors.New("permission denied")
)

// Authenticator verifies credentials. *service.CredentialStore implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (store.User, error)
	LookupByUsername(ctx context.Context, username string) (store.User, error)
}

// UserRemover deletes accounts.
type UserRemover interface {
	Delete(ctx context.Context, id string) error
}

// Shell holds one admin session's state. It is safe for concurrent use.
type Shell struct {
	mu             sync.Mutex
	state          State
	user           store.User
	activeTab      Tab
	legacyPassword string
}

// New returns an unauthenticated shell. A non-empty legacyPassword turns
// on single-password login for the admin account.
func New(legacyPassword string) *Shell {
	return &Shell{legacyPassword: legacyPassword}
}

// Restore rebuilds an authenticated shell from a stored session. An
// active tab the role may not open falls back to the first allowed tab.
func Restore(user store.User, activeTab Tab, legacyPassword string) *Shell {
	s := &Shell{
		state:          Authenticated,
		user:           user,
		legacyPassword: legacyPassword,
	}
	if s.allowedLocked(activeTab) {
		s.activeTab = activeTab
	} else {
		s.activeTab = firstTab(user.Role)
	}
	return s
}

// State returns the current state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user.
func (s *Shell) User() (store.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.state == Authenticated
}

// Capabilities returns the signed-in user's capabilities, all false when
// nobody is signed in.
func (s *Shell) Capabilities() auth.Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated {
		return auth.Capabilities{}
	}
	return auth.CapabilitiesOf(s.user.Role)
}

// SubmitLogin checks the credentials. With an empty username and legacy
// mode on, password is compared to the legacy password and the session
// is bound to the admin account. On success the first allowed tab opens.
func (s *Shell) SubmitLogin(ctx context.Context, a Authenticator, username, password string) (store.User, error) {
	s.mu.Lock()
	switch s.state {
	case Authenticating:
		s.mu.Unlock()
		return store.User{}, ErrLoginInProgress
	case Authenticated:
		s.mu.Unlock()
		return store.User{}, ErrAlreadyAuthenticated
	}
	if password == "" {
		s.mu.Unlock()
		return store.User{}, ErrPasswordRequired
	}
	s.state = Authenticating
	legacy := s.legacyPassword
	s.mu.Unlock()

	user, err := s.check(ctx, a, legacy, username, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Unauthenticated
		s.user = store.User{}
		return store.User{}, err
	}
	s.state = Authenticated
	s.user = user
	s.activeTab = firstTab(user.Role)
	return user, nil
}

func (s *Shell) check(ctx context.Context, a Authenticator, legacy, username, password string) (store.User, error) {
	if username != "" {
		return a.Authenticate(ctx, username, password)
	}
	if legacy == "" || !auth.SecretsEqual(password, legacy) {
		return store.User{}, service.ErrInvalidCredentials
	}
	user, err := a.LookupByUsername(ctx, model.ReservedUsername)
	if errors.Is(err, service.ErrNotFound) {
		return store.User{}, service.ErrInvalidCredentials
	}
	return user, err
}

// Logout returns to Unauthenticated.
func (s *Shell) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Unauthenticated
	s.user = store.User{}
	s.activeTab = ""
}

// Tabs lists the tabs the signed-in role may open, in display order.
func (s *Shell) Tabs() []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated {
		return nil
	}
	return TabsFor(s.user.Role)
}

// ActiveTab returns the open tab, or "" when signed out.
func (s *Shell) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// SelectTab opens tab when the role allows it.
func (s *Shell) SelectTab(tab Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated {
		return ErrNotAuthenticated
	}
	if !s.allowedLocked(tab) {
		return ErrTabNotAllowed
	}
	s.activeTab = tab
	return nil
}

func (s *Shell) allowedLocked(tab Tab) bool {
	capability, ok := tabCapabilities[tab]
	return ok && auth.HasCapability(s.user.Role, capability)
}

// DeleteUser removes the account id after checking the caller may manage
// users. The reserved admin account is refused before the store is asked.
func (s *Shell) DeleteUser(ctx context.Context, r UserRemover, id, username string) error {
	s.mu.Lock()
	state, role := s.state, s.user.Role
	s.mu.Unlock()

	if state != Authenticated {
		return ErrNotAuthenticated
	}
	if !auth.HasCapability(role, auth.CapManageUsers) {
		return ErrForbidden
	}
	if model.IsReservedUsername(username) {
		return service.ErrProtectedUser
	}
	return r.Delete(ctx, id)
}
