// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type show struct {
	City string `json:"city"`
	Date string `json:"date"`
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[[]show](mc, 0)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) ([]show, error) {
		calls++
		return []show{{City: "Berlin", Date: "2026-05-01"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := tc.GetOrSet(ctx, KeyTourDates, loader)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if len(got) != 1 || got[0].City != "Berlin" {
			t.Fatalf("GetOrSet = %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	if err := Invalidate(ctx, mc, KeyTourDates); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := tc.GetOrSet(ctx, KeyTourDates, loader); err != nil {
		t.Fatalf("GetOrSet after Invalidate: %v", err)
	}
	if calls != 2 {
		t.Errorf("loader called %d times after invalidation, want 2", calls)
	}
}

func TestTypedCache_InvalidateDuringLoad(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[[]show](mc, 0)
	ctx := context.Background()

	shows := []show{{City: "Berlin"}}
	stale, err := tc.GetOrSet(ctx, KeyTourDates, func(ctx context.Context) ([]show, error) {
		loaded := append([]show(nil), shows...)
		// A write commits and invalidates before this load is stored.
		shows = append(shows, show{City: "Dresden"})
		if err := Invalidate(ctx, mc, KeyTourDates); err != nil {
			t.Fatalf("Invalidate: %v", err)
		}
		return loaded, nil
	})
	if err != nil || len(stale) != 1 {
		t.Fatalf("first GetOrSet = %+v, %v", stale, err)
	}

	got, err := tc.GetOrSet(ctx, KeyTourDates, func(context.Context) ([]show, error) {
		return shows, nil
	})
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("GetOrSet = %+v, want the list written after the load", got)
	}
}

func TestGeneration_StableUntilInvalidated(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	ctx := context.Background()

	first, err := Generation(ctx, mc, KeyGallery)
	if err != nil || first == "" {
		t.Fatalf("Generation = %q, %v", first, err)
	}
	again, _ := Generation(ctx, mc, KeyGallery)
	if again != first {
		t.Errorf("generation changed without a write: %q -> %q", first, again)
	}
	if err := Invalidate(ctx, mc, KeyGallery); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if next, _ := Generation(ctx, mc, KeyGallery); next == first {
		t.Error("Invalidate kept the old generation")
	}
}

func TestTypedCache_LoaderError(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[[]show](mc, 0)

	boom := errors.New("db down")
	_, err := tc.GetOrSet(context.Background(), KeyGallery, func(context.Context) ([]show, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrSet error = %v, want %v", err, boom)
	}
	if _, err := mc.Get(context.Background(), KeyGallery); !errors.Is(err, ErrCacheMiss) {
		t.Error("failed load must not be cached")
	}
}

func TestTypedCache_ClosedBackendStillLoads(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	_ = mc.Close()
	tc := NewTypedCache[show](mc, 0)

	got, err := tc.GetOrSet(context.Background(), "k", func(context.Context) (show, error) {
		return show{City: "Hamburg"}, nil
	})
	if err != nil || got.City != "Hamburg" {
		t.Fatalf("GetOrSet = %+v, %v", got, err)
	}
}
