// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package shell

import "github.com/olegiv/bandsite/internal/auth"

// Tab is an admin panel section.
type Tab string

const (
	TabTourDates Tab = "tourdates"
	TabGallery   Tab = "gallery"
	TabTimeline  Tab = "timeline"
	TabUsers     Tab = "users"
)

// tabOrder is the display order.
var tabOrder = []Tab{TabTourDates, TabGallery, TabTimeline, TabUsers}

var tabCapabilities = map[Tab]string{
	TabTourDates: auth.CapManageTourDates,
	TabGallery:   auth.CapManageGallery,
	TabTimeline:  auth.CapManageTimeline,
	TabUsers:     auth.CapManageUsers,
}

// TabsFor lists the tabs role may open, in display order.
func TabsFor(role string) []Tab {
	tabs := []Tab{}
	for _, t := range tabOrder {
		if auth.HasCapability(role, tabCapabilities[t]) {
			tabs = append(tabs, t)
		}
	}
	return tabs
}

func firstTab(role string) Tab {
	if tabs := TabsFor(role); len(tabs) > 0 {
		return tabs[0]
	}
	return ""
}
