// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"errors"
	"sort"
	"strings"
)

// Sentinel errors returned by the services. Handlers map them to HTTP
// status codes with errors.Is.
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProtectedUser      = errors.New("the admin account cannot be deleted or demoted")
	ErrValidation         = errors.New("validation failed")
	ErrPersistence        = errors.New("persistence failure")
)

// ValidationError lists invalid fields. Values are i18n message keys.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError wraps a database or blob storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistence) true.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// lookupErr turns sql.ErrNoRows into ErrNotFound.
func lookupErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return persistErr(op, err)
}
