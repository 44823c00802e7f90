// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and value types shared by the
// store, service and handler layers.
package model

// ReservedUsername is the account that can never be deleted.
const ReservedUsername = "admin"

// IsReservedUsername reports whether name is the protected admin account.
// The match is exact and case-sensitive like every username comparison.
func IsReservedUsername(name string) bool {
	return name == ReservedUsername
}

// SeedUser describes one account created on first start.
type SeedUser struct {
	Username    string
	DisplayName string
	Role        string
}

// DefaultBandmembers are the band accounts created next to the admin.
var DefaultBandmembers = []SeedUser{
	{Username: "andy", DisplayName: `Andy "Bassomator"`, Role: "bandmember"},
	{Username: "chris", DisplayName: `Chris "Gitarrero"`, Role: "bandmember"},
	{Username: "bjoern", DisplayName: `Björn "The Drummachine"`, Role: "bandmember"},
	{Username: "matze", DisplayName: `Matthias "Matze"`, Role: "bandmember"},
	{Username: "flo", DisplayName: `Florian "Flo"`, Role: "bandmember"},
	{Username: "joachim", DisplayName: `Joachim "Joaquín"`, Role: "bandmember"},
}

// DefaultAdmin is the administrator created on first start.
var DefaultAdmin = SeedUser{Username: ReservedUsername, DisplayName: "Administrator", Role: "admin"}
