// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for tour and timeline dates.
const DateLayout = "2006-01-02"

// Badge tags a timeline event.
type Badge string

// Timeline badges.
const (
	BadgeLive      Badge = "LIVE"
	BadgeRehearsal Badge = "REHEARSAL"
	BadgeStudio    Badge = "STUDIO"
	BadgeBackstage Badge = "BACKSTAGE"
)

// Badges lists every valid badge.
var Badges = []Badge{BadgeLive, BadgeRehearsal, BadgeStudio, BadgeBackstage}

// Valid reports whether b is one of the defined badges.
func (b Badge) Valid() bool {
	switch b {
	case BadgeLive, BadgeRehearsal, BadgeStudio, BadgeBackstage:
		return true
	}
	return false
}

// ParseBadge normalizes s (trimmed, upper-cased) and validates it.
func ParseBadge(s string) (Badge, bool) {
	b := Badge(strings.ToUpper(strings.TrimSpace(s)))
	return b, b.Valid()
}

// ValidDate reports whether s is a real calendar date in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Asset collections, also used as blob key prefixes.
const (
	CollectionGallery  = "gallery"
	CollectionTimeline = "timeline"
)
