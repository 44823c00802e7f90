// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"unicode/utf8"

	"github.com/olegiv/bandsite/internal/markup"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/util"
)

// Field length limits, in runes.
const (
	maxShortText = 200
	maxLongText  = 2000
)

// validator collects field errors.
type validator struct {
	fields map[string]string
}

func (v *validator) fail(field, key string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, seen := v.fields[field]; !seen {
		v.fields[field] = key
	}
}

func (v *validator) required(field, value string) {
	if value == "" {
		v.fail(field, "validation.required")
	}
}

func (v *validator) maxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.fail(field, "validation.too_long")
	}
}

func (v *validator) date(field, value string) {
	if value == "" {
		v.fail(field, "validation.required")
		return
	}
	if !model.ValidDate(value) {
		v.fail(field, "validation.date")
	}
}

func (v *validator) link(field, value string) {
	if value != "" && !util.IsHTTPURL(value) {
		v.fail(field, "validation.url")
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// clean strips markup and surrounding whitespace from user text.
func clean(s string) string {
	return markup.StripTags(s)
}

// cleanPtr applies clean to a patch field.
func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := clean(*s)
	return &c
}
