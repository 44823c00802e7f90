// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/bandsite/internal/blob"
	"github.com/olegiv/bandsite/internal/model"
	"github.com/olegiv/bandsite/internal/store"
)

// SweepResult summarizes one janitor run.
type SweepResult struct {
	Scanned int
	Deleted int
	Failed  int
}

// AssetJanitor deletes image blobs no content record points at. Such
// blobs are left behind when a record is removed but its blob delete
// failed, or when an upload succeeded and the insert did not.
type AssetJanitor struct {
	blobs   blob.Store
	queries *store.Queries
	grace   time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewAssetJanitor creates a janitor. Blobs younger than grace are kept so
// an upload whose record is still being written is not swept.
func NewAssetJanitor(db *sql.DB, blobs blob.Store, grace time.Duration, logger *slog.Logger) *AssetJanitor {
	return &AssetJanitor{
		blobs:   blobs,
		queries: store.New(db),
		grace:   grace,
		logger:  logger,
		now:     time.Now,
	}
}

// Sweep deletes unreferenced blobs under the gallery and timeline prefixes.
// A failed delete is counted and the sweep continues.
func (j *AssetJanitor) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	paths, err := j.queries.ListStoragePaths(ctx)
	if err != nil {
		return res, fmt.Errorf("listing referenced blobs: %w", err)
	}
	referenced := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		referenced[p] = struct{}{}
	}

	cutoff := j.now().Add(-j.grace)
	for _, collection := range []string{model.CollectionGallery, model.CollectionTimeline} {
		objects, err := j.blobs.List(ctx, collection+"/")
		if err != nil {
			return res, fmt.Errorf("listing %s blobs: %w", collection, err)
		}

		for _, obj := range objects {
			res.Scanned++
			if _, ok := referenced[obj.Key]; ok {
				continue
			}
			if obj.ModTime.After(cutoff) {
				continue
			}
			if err := j.blobs.Delete(ctx, obj.Key); err != nil {
				res.Failed++
				j.logger.Warn("failed to delete orphaned blob", "key", obj.Key, "error", err)
				continue
			}
			res.Deleted++
			j.logger.Info("deleted orphaned blob", "key", obj.Key)
		}
	}

	return res, nil
}

// Run adapts Sweep to a JobFunc.
func (j *AssetJanitor) Run(ctx context.Context) error {
	res, err := j.Sweep(ctx)
	if err != nil {
		return err
	}
	if res.Deleted > 0 || res.Failed > 0 {
		j.logger.Info("asset sweep finished", "scanned", res.Scanned, "deleted", res.Deleted, "failed", res.Failed)
	}
	return nil
}

// EventPruner deletes old audit events.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PruneEventsJob returns a job that removes audit events older than retention.
func PruneEventsJob(events EventPruner, retention time.Duration, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := events.DeleteOldEvents(ctx, retention)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("pruned audit events", "deleted", n, "retention", retention)
		}
		return nil
	}
}
