// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client addresses to ISO country codes for the
// audit log, using a MaxMind GeoLite2-Country database.
package geoip

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// Local is reported for loopback and private addresses.
const Local = "LOCAL"

// privateCIDRs are the private ranges besides what net.IP reports itself.
var privateCIDRs = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fc00::/7",
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		_, cidr, err := net.ParseCIDR(block)
		if err != nil {
			panic(err)
		}
		nets = append(nets, cidr)
	}
	return nets
}

// countryRecord matches the GeoLite2-Country structure.
type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Locator looks up countries. A Locator without a database still
// recognizes local addresses and returns "" for everything else.
type Locator struct {
	path string

	mu      sync.RWMutex
	reader  *maxminddb.Reader
	modTime time.Time
}

// Open loads the database at path. An empty path yields a disabled
// Locator and no error.
func Open(path string) (*Locator, error) {
	l := &Locator{path: path}
	if path == "" {
		return l, nil
	}
	if err := l.load(); err != nil {
		return l, err
	}
	return l, nil
}

// load opens the database unless the file is unchanged since the last
// load. Caller must not hold mu.
func (l *Locator) load() error {
	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("geoip database: %w", err)
	}

	l.mu.RLock()
	unchanged := l.reader != nil && info.ModTime().Equal(l.modTime)
	l.mu.RUnlock()
	if unchanged {
		return nil
	}

	reader, err := maxminddb.Open(l.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}

	l.mu.Lock()
	old := l.reader
	l.reader = reader
	l.modTime = info.ModTime()
	l.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Reload picks up a replaced database file. It fits scheduler.JobFunc.
func (l *Locator) Reload(_ context.Context) error {
	if l.path == "" {
		return nil
	}
	return l.load()
}

// Enabled reports whether a database is loaded.
func (l *Locator) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reader != nil
}

// Country returns the ISO code for ip, Local for private addresses and ""
// when unknown.
func (l *Locator) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if isLocal(parsed) {
		return Local
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.reader == nil {
		return ""
	}

	var rec countryRecord
	if err := l.reader.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Close releases the database.
func (l *Locator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reader == nil {
		return nil
	}
	err := l.reader.Close()
	l.reader = nil
	return err
}

func isLocal(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return true
	}
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
