// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/olegiv/bandsite/internal/auth"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/store"
)

const maxUsernameLength = 64

// CreateUserInput holds the fields of a new account.
type CreateUserInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// UpdateUserInput is a partial update. Nil fields are left unchanged and
// an empty password keeps the current one.
type UpdateUserInput struct {
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	DisplayName *string `json:"displayName"`
	Role        *string `json:"role"`
}

// CredentialStore manages user accounts and verifies logins.
type CredentialStore struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore creates a CredentialStore.
func NewCredentialStore(db *sql.DB, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LookupByUsername returns the user with exactly this username.
func (s *CredentialStore) LookupByUsername(ctx context.Context, username string) (store.User, error) {
	u, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return store.User{}, lookupErr("looking up user", err)
	}
	return u, nil
}

// Get returns the user with the given id.
func (s *CredentialStore) Get(ctx context.Context, id string) (store.User, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return store.User{}, lookupErr("loading user", err)
	}
	return u, nil
}

// List returns all users, admin first.
func (s *CredentialStore) List(ctx context.Context) ([]store.User, error) {
	users, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, persistErr("listing users", err)
	}
	return users, nil
}

// Authenticate returns the user when password matches the stored hash.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
// Hashes with outdated parameters are upgraded on success.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (store.User, error) {
	u, err := s.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		// Spend the same time as a real check so usernames cannot be probed.
		_, _ = auth.VerifySecret(password, s.timingHash())
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, persistErr("looking up user", err)
	}

	ok, err := auth.VerifySecret(password, u.SecretHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "user_id", u.ID, "error", err)
		return store.User{}, ErrInvalidCredentials
	}
	if !ok {
		return store.User{}, ErrInvalidCredentials
	}

	if auth.NeedsRehash(u.SecretHash) {
		if hash, err := auth.HashSecret(password); err == nil {
			if err := s.queries.UpdateUserSecret(ctx, u.ID, hash, s.now()); err != nil {
				s.logger.Warn("failed to upgrade password hash", "user_id", u.ID, "error", err)
			} else {
				u.SecretHash = hash
			}
		}
	}
	return u, nil
}

func (s *CredentialStore) timingHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashSecret(uuid.NewString())
	})
	return s.dummyHash
}

// Create adds a user. A taken username yields ErrDuplicateUsername, both
// from the pre-check and from the unique index when two creates race.
func (s *CredentialStore) Create(ctx context.Context, in CreateUserInput) (store.User, error) {
	username := strings.TrimSpace(in.Username)
	displayName := clean(in.DisplayName)
	role := strings.TrimSpace(in.Role)

	var v validator
	validateUsername(&v, username)
	v.required("password", in.Password)
	v.required("displayName", displayName)
	v.maxLen("displayName", displayName, maxShortText)
	if !auth.IsValidRole(role) {
		v.fail("role", "validation.role")
	}
	if err := v.err(); err != nil {
		return store.User{}, err
	}

	if _, err := s.queries.GetUserByUsername(ctx, username); err == nil {
		return store.User{}, ErrDuplicateUsername
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, persistErr("checking username", err)
	}

	hash, err := auth.HashSecret(in.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	params := store.CreateUserParams{
		ID:          uuid.NewString(),
		Username:    username,
		SecretHash:  hash,
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.queries.CreateUser(ctx, params); err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, ErrDuplicateUsername
		}
		return store.User{}, persistErr("creating user", err)
	}

	return store.User{
		ID:          params.ID,
		Username:    params.Username,
		SecretHash:  params.SecretHash,
		DisplayName: params.DisplayName,
		Role:        params.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update merges in into the user. The reserved admin account keeps its
// username and role.
func (s *CredentialStore) Update(ctx context.Context, id string, in UpdateUserInput) (store.User, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return store.User{}, lookupErr("loading user", err)
	}

	var v validator
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name != u.Username {
			if model.IsReservedUsername(u.Username) {
				return store.User{}, ErrProtectedUser
			}
			validateUsername(&v, name)
		}
		u.Username = name
	}
	if in.DisplayName != nil {
		u.DisplayName = clean(*in.DisplayName)
		v.required("displayName", u.DisplayName)
		v.maxLen("displayName", u.DisplayName, maxShortText)
	}
	if in.Role != nil {
		role := strings.TrimSpace(*in.Role)
		if !auth.IsValidRole(role) {
			v.fail("role", "validation.role")
		} else if role != u.Role && model.IsReservedUsername(u.Username) {
			return store.User{}, ErrProtectedUser
		}
		u.Role = role
	}
	if err := v.err(); err != nil {
		return store.User{}, err
	}

	if in.Password != nil && *in.Password != "" {
		hash, err := auth.HashSecret(*in.Password)
		if err != nil {
			return store.User{}, fmt.Errorf("hashing password: %w", err)
		}
		u.SecretHash = hash
	}

	if other, err := s.queries.GetUserByUsername(ctx, u.Username); err == nil && other.ID != u.ID {
		return store.User{}, ErrDuplicateUsername
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, persistErr("checking username", err)
	}

	u.UpdatedAt = s.now()
	n, err := s.queries.UpdateUser(ctx, store.UpdateUserParams{
		ID:          u.ID,
		Username:    u.Username,
		SecretHash:  u.SecretHash,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		UpdatedAt:   u.UpdatedAt,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, ErrDuplicateUsername
		}
		return store.User{}, persistErr("updating user", err)
	}
	if n == 0 {
		return store.User{}, ErrNotFound
	}
	return u, nil
}

// Delete removes the user. Unknown ids are ignored; the reserved admin
// account is refused with ErrProtectedUser.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	u, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return persistErr("loading user", err)
	}
	if model.IsReservedUsername(u.Username) {
		return ErrProtectedUser
	}
	if err := s.queries.DeleteUser(ctx, id); err != nil {
		return persistErr("deleting user", err)
	}
	return nil
}

// RecordLogin stamps the last login time.
func (s *CredentialStore) RecordLogin(ctx context.Context, id string) error {
	if err := s.queries.UpdateUserLastLogin(ctx, id, s.now()); err != nil {
		return persistErr("recording login", err)
	}
	return nil
}

// BootstrapDefaults seeds the admin and the band members when the users
// table is empty and reports how many accounts it created. It runs on
// every start and does nothing once any account exists.
func (s *CredentialStore) BootstrapDefaults(ctx context.Context, adminPassword, memberPassword string) (int, error) {
	count, err := s.queries.CountUsers(ctx)
	if err != nil {
		return 0, persistErr("counting users", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistErr("starting bootstrap", err)
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	now := s.now()
	seeds := append([]model.SeedUser{model.DefaultAdmin}, model.DefaultBandmembers...)
	for _, seed := range seeds {
		password := memberPassword
		if seed.Role == auth.RoleAdmin {
			password = adminPassword
		}
		hash, err := auth.HashSecret(password)
		if err != nil {
			return 0, fmt.Errorf("hashing password for %s: %w", seed.Username, err)
		}
		if err := qtx.CreateUser(ctx, store.CreateUserParams{
			ID:          uuid.NewString(),
			Username:    seed.Username,
			SecretHash:  hash,
			DisplayName: seed.DisplayName,
			Role:        seed.Role,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return 0, persistErr("seeding "+seed.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, persistErr("committing bootstrap", err)
	}
	s.logger.Info("seeded default accounts", "count", len(seeds))
	return len(seeds), nil
}

func validateUsername(v *validator, name string) {
	v.required("username", name)
	v.maxLen("username", name, maxUsernameLength)
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		v.fail("username", "validation.username")
	}
}
