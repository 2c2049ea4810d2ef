// Package janitor removes uploaded files that no interrogation record
// references anymore, e.g. after a record or its owner was deleted.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dilovar-s/protokol/pkg/files"
	"github.com/dilovar-s/protokol/pkg/observability"
	"github.com/dilovar-s/protokol/pkg/store"
)

// Config holds cleanup configuration
type Config struct {
	// Schedule is a cron expression, e.g. "0 3 * * *"
	Schedule string
	// MinAge spares files younger than this, so an upload in flight is
	// never collected before its record is saved
	MinAge time.Duration
}

// Janitor sweeps the blob store for orphaned objects
type Janitor struct {
	cfg     Config
	blobs   files.BlobStore
	records store.InterrogationStore
	logger  *observability.Logger
	metrics *observability.Metrics
	cron    *cron.Cron
}

// New creates a janitor. metrics may be nil.
func New(cfg Config, blobs files.BlobStore, records store.InterrogationStore, logger *observability.Logger, metrics *observability.Metrics) *Janitor {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 3 * * *"
	}
	if cfg.MinAge <= 0 {
		cfg.MinAge = 24 * time.Hour
	}
	return &Janitor{
		cfg:     cfg,
		blobs:   blobs,
		records: records,
		logger:  logger,
		metrics: metrics,
	}
}

// Start schedules the sweep. The returned stop function blocks until a
// running sweep finishes.
func (j *Janitor) Start() (stop func(), err error) {
	j.cron = cron.New()
	_, err = j.cron.AddFunc(j.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			j.logger.WithError(err).Error("File cleanup sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", j.cfg.Schedule, err)
	}

	j.cron.Start()
	j.logger.Infof("File cleanup scheduled: %s", j.cfg.Schedule)

	return func() {
		<-j.cron.Stop().Done()
	}, nil
}

// sweepPrefixes are the only key spaces the janitor touches. Anything
// else sharing the blob root is not ours to delete.
var sweepPrefixes = []string{"uploads/", "documents/"}

// Sweep deletes unreferenced objects older than MinAge and returns how
// many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	referenced, err := j.records.ReferencedFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("load referenced files: %w", err)
	}

	var objects []files.ObjectInfo
	for _, prefix := range sweepPrefixes {
		batch, err := j.blobs.List(ctx, prefix)
		if err != nil {
			return 0, fmt.Errorf("list stored files under %s: %w", prefix, err)
		}
		objects = append(objects, batch...)
	}

	cutoff := time.Now().Add(-j.cfg.MinAge)
	deleted := 0
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.Modified.After(cutoff) {
			continue
		}

		if err := j.blobs.Delete(ctx, obj.Key); err != nil {
			j.logger.WithError(err).Warnf("Failed to delete orphaned file %s", obj.Key)
			continue
		}
		deleted++
		if j.metrics != nil {
			j.metrics.FilesDeletedTotal.WithLabelValues("orphaned").Inc()
		}
	}

	if deleted > 0 {
		j.logger.Infof("File cleanup removed %d orphaned files", deleted)
	}
	return deleted, nil
}
