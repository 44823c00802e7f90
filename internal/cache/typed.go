// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TypedCache stores values of type T as JSON in a Cacher.
type TypedCache[T any] struct {
	cache Cacher
	ttl   time.Duration
}

// NewTypedCache wraps c. A zero ttl uses the backend default.
func NewTypedCache[T any](c Cacher, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: c, ttl: ttl}
}

// Get decodes the value stored under key.
func (t *TypedCache[T]) Get(ctx context.Context, key string) (T, error) {
	var v T
	data, err := t.cache.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Set encodes v and stores it under key.
func (t *TypedCache[T]) Set(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.cache.Set(ctx, key, data, t.ttl)
}

// Delete removes key.
func (t *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return t.cache.Delete(ctx, key)
}

// GetOrSet returns the cached value or loads, stores and returns it.
// Values are stored under the current generation of key, so a load
// that races with Invalidate lands under a generation nobody reads.
// Backend errors other than a miss are ignored so a broken cache never
// hides the data; loader errors are returned as is.
func (t *TypedCache[T]) GetOrSet(ctx context.Context, key string, loader func(context.Context) (T, error)) (T, error) {
	gen, err := Generation(ctx, t.cache, key)
	if err != nil {
		return loader(ctx)
	}
	entry := key + "@" + gen

	v, err := t.Get(ctx, entry)
	if err == nil {
		return v, nil
	}

	v, err = loader(ctx)
	if err != nil {
		return v, err
	}
	_ = t.Set(ctx, entry, v)
	return v, nil
}

// Generation returns the current generation token of key, starting a
// new one when none exists. The token is written before the caller
// loads, so a concurrent Invalidate always wins.
func Generation(ctx context.Context, c Cacher, key string) (string, error) {
	data, err := c.Get(ctx, generationKey(key))
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return "", err
	}
	gen := uuid.NewString()
	if err := c.Set(ctx, generationKey(key), []byte(gen), 0); err != nil {
		return "", err
	}
	return gen, nil
}

// Invalidate starts a new generation of key. Entries stored under older
// generations are never read again and expire with their TTL.
func Invalidate(ctx context.Context, c Cacher, key string) error {
	return c.Set(ctx, generationKey(key), []byte(uuid.NewString()), 0)
}

func generationKey(key string) string {
	return key + ":gen"
}
