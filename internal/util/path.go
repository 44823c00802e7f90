// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers for file names, storage keys and
// request metadata.
package util

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)
	repeatedDashes  = regexp.MustCompile(`-{2,}`)
	validKey        = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*(/[a-z0-9][a-z0-9._-]*)*$`)
)

// maxNameLength caps the stem of a sanitized file name.
const maxNameLength = 80

// SanitizeFilename turns an uploaded file name into a storage-safe name.
// Directory components are dropped, non-ASCII is transliterated
// ("Björn Live.JPG" becomes "bjorn-live.jpg") and anything left outside
// [a-z0-9._-] becomes a dash. An empty result falls back to "file".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		name = ""
	}

	ext := strings.ToLower(path.Ext(name))
	stem := strings.TrimSuffix(name, path.Ext(name))

	stem = strings.ToLower(unidecode.Unidecode(stem))
	stem = unsafeNameChars.ReplaceAllString(stem, "-")
	stem = repeatedDashes.ReplaceAllString(stem, "-")
	stem = strings.Trim(stem, "-.")
	if len(stem) > maxNameLength {
		stem = strings.Trim(stem[:maxNameLength], "-.")
	}
	if stem == "" {
		stem = "file"
	}

	ext = unsafeNameChars.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}
	return stem + ext
}

// ValidateKey checks that key is a relative, slash separated storage key
// made of sanitized segments with no traversal.
func ValidateKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("invalid storage key %q", key)
		}
	}
	return nil
}

// SafeJoinPath joins components onto basePath and verifies the result
// stays inside basePath.
func SafeJoinPath(basePath string, components ...string) (string, error) {
	full := filepath.Join(append([]string{basePath}, components...)...)

	absBase, err := filepath.Abs(filepath.Clean(basePath))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("invalid target path: %w", err)
	}

	// Trailing separator so /uploads-evil does not match /uploads.
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: path escapes base directory")
	}
	return full, nil
}
