package worker

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/tnqbao/gau-marine-service/infra"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestUnreferenced(t *testing.T) {
	objects := []infra.StoredObject{
		{Key: "jobs/1/kept.pdf", LastModified: now.Add(-48 * time.Hour)},
		{Key: "jobs/1/orphan.pdf", LastModified: now.Add(-48 * time.Hour)},
		{Key: "documents/fresh.pdf", LastModified: now.Add(-time.Minute)},
	}
	referenced := map[string]struct{}{"jobs/1/kept.pdf": {}}

	got := unreferenced(objects, referenced, now.Add(-24*time.Hour))
	if !slices.Equal(got, []string{"jobs/1/orphan.pdf"}) {
		t.Errorf("got %v", got)
	}
}

type keys []string

func (k keys) ReferencedKeys(context.Context) ([]string, error) { return k, nil }

type failingKeys struct{}

func (failingKeys) ReferencedKeys(context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

type memBucket struct {
	objects []infra.StoredObject
	removed []string
}

func (b *memBucket) List(context.Context, string) ([]infra.StoredObject, error) {
	return b.objects, nil
}

func (b *memBucket) Remove(_ context.Context, key string) error {
	b.removed = append(b.removed, key)
	return nil
}

func newTestSweeper(bucket *memBucket, sources ...KeySource) *Sweeper {
	return &Sweeper{
		objects: bucket,
		sources: sources,
		logger:  infra.NewNopLogger(),
		grace:   24 * time.Hour,
		now:     func() time.Time { return now },
	}
}

func TestSweep_RemovesOnlyOldUnreferenced(t *testing.T) {
	old := now.Add(-72 * time.Hour)
	bucket := &memBucket{objects: []infra.StoredObject{
		{Key: "jobs/1/a.pdf", LastModified: old},
		{Key: "documents/b.pdf", LastModified: old},
		{Key: "company-files/c.pdf", LastModified: old},
		{Key: "jobs/2/stray.pdf", LastModified: old},
	}}
	s := newTestSweeper(bucket, keys{"jobs/1/a.pdf"}, keys{"documents/b.pdf"}, keys{"company-files/c.pdf"})

	deleted, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 || !slices.Equal(bucket.removed, []string{"jobs/2/stray.pdf"}) {
		t.Errorf("deleted=%d removed=%v", deleted, bucket.removed)
	}
}

func TestSweep_AbortsWhenReferencesUnavailable(t *testing.T) {
	bucket := &memBucket{objects: []infra.StoredObject{{Key: "jobs/1/a.pdf", LastModified: now.Add(-72 * time.Hour)}}}
	s := newTestSweeper(bucket, keys{}, failingKeys{})

	if _, err := s.Sweep(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(bucket.removed) != 0 {
		t.Errorf("nothing should be removed: %v", bucket.removed)
	}
}
