package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/tnqbao/gau-marine-service/infra"
	"github.com/tnqbao/gau-marine-service/repository"
)

type ObjectLister interface {
	List(ctx context.Context, prefix string) ([]infra.StoredObject, error)
	Remove(ctx context.Context, key string) error
}

// KeySource returns every object key still referenced by a row.
type KeySource interface {
	ReferencedKeys(ctx context.Context) ([]string, error)
}

// Sweeper periodically deletes objects that no row references and that are
// older than the grace period. The grace period covers uploads whose row is
// still being written.
type Sweeper struct {
	objects  ObjectLister
	sources  []KeySource
	logger   *infra.LoggerClient
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

func NewSweeper(infra *infra.Infra, repo *repository.Repository, interval, grace time.Duration) *Sweeper {
	return &Sweeper{
		objects:  infra.Minio,
		sources:  []KeySource{repo.JobRepo, repo.DocumentRepo, repo.CompanyFileRepo},
		logger:   infra.Logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.InfoWithContextf(ctx, "[Sweeper] Started, interval %s, grace %s", s.interval, s.grace)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.InfoWithContextf(ctx, "[Sweeper] Shutting down...")
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.ErrorWithContextf(ctx, err, "[Sweeper] Sweep failed: %v", err)
				}
			}
		}
	}()
}

// Sweep runs one pass and returns the number of objects deleted.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	referenced := make(map[string]struct{})
	for _, src := range s.sources {
		keys, err := src.ReferencedKeys(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to load referenced keys: %w", err)
		}
		for _, k := range keys {
			referenced[k] = struct{}{}
		}
	}

	objects, err := s.objects.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list objects: %w", err)
	}

	deleted := 0
	for _, key := range unreferenced(objects, referenced, s.now().Add(-s.grace)) {
		if err := s.objects.Remove(ctx, key); err != nil {
			s.logger.WarningWithContextf(ctx, "[Sweeper] Failed to delete %s: %v", key, err)
			continue
		}
		deleted++
	}

	s.logger.InfoWithContextf(ctx, "[Sweeper] Checked %d objects, deleted %d", len(objects), deleted)
	return deleted, nil
}

// unreferenced returns keys of objects last modified before cutoff that are
// not in referenced.
func unreferenced(objects []infra.StoredObject, referenced map[string]struct{}, cutoff time.Time) []string {
	var out []string
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		out = append(out, obj.Key)
	}
	return out
}
