// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"reflect"
	"testing"
)

func TestCapabilitiesOf(t *testing.T) {
	tests := []struct {
		role string
		want Capabilities
	}{
		{RoleAdmin, Capabilities{true, true, true, true}},
		{RoleBandmember, Capabilities{CanManageGallery: true, CanManageTimeline: true}},
		{"Admin", Capabilities{}},
		{"editor", Capabilities{}},
		{"", Capabilities{}},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := CapabilitiesOf(tt.role); got != tt.want {
				t.Errorf("CapabilitiesOf(%q) = %+v, want %+v", tt.role, got, tt.want)
			}
		})
	}
}

func TestCapabilitiesOf_Pure(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleBandmember, "unknown"} {
		first := CapabilitiesOf(role)
		for i := 0; i < 10; i++ {
			if got := CapabilitiesOf(role); got != first {
				t.Fatalf("CapabilitiesOf(%q) changed between calls: %+v vs %+v", role, first, got)
			}
		}
	}
}

func TestHasCapability(t *testing.T) {
	tests := []struct {
		role       string
		capability string
		want       bool
	}{
		{RoleAdmin, CapManageTourDates, true},
		{RoleAdmin, CapManageGallery, true},
		{RoleAdmin, CapManageUsers, true},
		{RoleAdmin, CapManageTimeline, true},
		{RoleBandmember, CapManageTourDates, false},
		{RoleBandmember, CapManageGallery, true},
		{RoleBandmember, CapManageUsers, false},
		{RoleBandmember, CapManageTimeline, true},
		{RoleAdmin, "canManageEverything", false},
		{"guest", CapManageGallery, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.capability, func(t *testing.T) {
			if got := HasCapability(tt.role, tt.capability); got != tt.want {
				t.Errorf("HasCapability(%q, %q) = %v, want %v", tt.role, tt.capability, got, tt.want)
			}
		})
	}
}

func TestCapabilities_Names(t *testing.T) {
	got := CapabilitiesOf(RoleBandmember).Names()
	want := []string{CapManageGallery, CapManageTimeline}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bandmember Names() = %v, want %v", got, want)
	}

	if got := CapabilitiesOf(RoleAdmin).Names(); !reflect.DeepEqual(got, AllCapabilities) {
		t.Errorf("admin Names() = %v, want %v", got, AllCapabilities)
	}

	if got := CapabilitiesOf("nobody").Names(); len(got) != 0 {
		t.Errorf("unknown role Names() = %v, want empty", got)
	}
}

func TestIsValidRole(t *testing.T) {
	for role, want := range map[string]bool{
		"admin":      true,
		"bandmember": true,
		"editor":     false,
		"ADMIN":      false,
		"":           false,
	} {
		if got := IsValidRole(role); got != want {
			t.Errorf("IsValidRole(%q) = %v, want %v", role, got, want)
		}
	}
}
