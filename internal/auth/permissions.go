// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

// Roles.
const (
	RoleAdmin      = "admin"
	RoleBandmember = "bandmember"
)

// Capability names as they appear in API payloads and logs.
const (
	CapManageTourDates = "canManageTourDates"
	CapManageGallery   = "canManageGallery"
	CapManageUsers     = "canManageUsers"
	CapManageTimeline  = "canManageTimeline"
)

// AllCapabilities lists every capability in display order.
var AllCapabilities = []string{
	CapManageTourDates,
	CapManageGallery,
	CapManageTimeline,
	CapManageUsers,
}

// Capabilities is the fixed set of named booleans granted to a role.
type Capabilities struct {
	CanManageTourDates bool `json:"canManageTourDates"`
	CanManageGallery   bool `json:"canManageGallery"`
	CanManageUsers     bool `json:"canManageUsers"`
	CanManageTimeline  bool `json:"canManageTimeline"`
}

// Has reports whether the named capability is granted.
// Unknown names are never granted.
func (c Capabilities) Has(name string) bool {
	switch name {
	case CapManageTourDates:
		return c.CanManageTourDates
	case CapManageGallery:
		return c.CanManageGallery
	case CapManageUsers:
		return c.CanManageUsers
	case CapManageTimeline:
		return c.CanManageTimeline
	default:
		return false
	}
}

// Names returns the granted capability names in AllCapabilities order.
func (c Capabilities) Names() []string {
	names := make([]string, 0, len(AllCapabilities))
	for _, name := range AllCapabilities {
		if c.Has(name) {
			names = append(names, name)
		}
	}
	return names
}

// CapabilitiesOf returns the capabilities of role. Roles are matched
// case-sensitively and unknown roles get nothing.
func CapabilitiesOf(role string) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{
			CanManageTourDates: true,
			CanManageGallery:   true,
			CanManageUsers:     true,
			CanManageTimeline:  true,
		}
	case RoleBandmember:
		return Capabilities{
			CanManageGallery:  true,
			CanManageTimeline: true,
		}
	default:
		return Capabilities{}
	}
}

// HasCapability reports whether role holds the named capability.
func HasCapability(role, capability string) bool {
	return CapabilitiesOf(role).Has(capability)
}

// IsValidRole reports whether role is one of the defined roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleBandmember
}
