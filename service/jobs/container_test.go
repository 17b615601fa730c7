package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tnqbao/gau-marine-service/entity"
)

func TestCreate_SequentialSerialsStartAtOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		job, err := f.container.Create(ctx, entity.Job{Consignee: "ACME"})
		if err != nil {
			t.Fatalf("Create #%d: %v", want, err)
		}
		if job.Serial != want {
			t.Fatalf("Create #%d: serial %d", want, job.Serial)
		}
		if job.Status != entity.JobStatusPending || job.RefundStatus != entity.RefundStatusPending {
			t.Errorf("defaults not applied: %+v", job)
		}
	}

	got := f.container.Jobs()
	if len(got) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(got))
	}
	for i, job := range got {
		if job.Serial != i+1 {
			t.Errorf("position %d: serial %d", i, job.Serial)
		}
		if job.CreatedAt.IsZero() {
			t.Errorf("serial %d: placeholder was not replaced by the inserted row", job.Serial)
		}
	}
}

func TestCreate_RetriesOnDuplicateSerial(t *testing.T) {
	f := newFixture()
	// Another replica already inserted serial 1; this container has not seen it.
	f.store.seed(entity.Job{Serial: 1, OwnerID: f.owner, Status: entity.JobStatusPending, RefundStatus: entity.RefundStatusPending})

	job, err := f.container.Create(context.Background(), entity.Job{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Serial != 2 {
		t.Errorf("expected retry to pick serial 2, got %d", job.Serial)
	}
	if f.store.inserts != 2 {
		t.Errorf("expected 2 insert attempts, got %d", f.store.inserts)
	}
}

func TestCreate_DuplicateReloadsUnseenRows(t *testing.T) {
	f := newFixture()
	for serial := 1; serial <= 3; serial++ {
		f.store.seed(entity.Job{Serial: serial, OwnerID: f.owner, Status: entity.JobStatusPending, RefundStatus: entity.RefundStatusPending})
	}

	job, err := f.container.Create(context.Background(), entity.Job{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Serial != 4 {
		t.Errorf("expected serial 4, got %d", job.Serial)
	}
	if n := len(f.container.Jobs()); n != 4 {
		t.Errorf("expected 4 jobs after reload, got %d", n)
	}
}

func TestCreate_FailureRemovesPlaceholder(t *testing.T) {
	f := newFixture()
	f.store.failInsert = errRemote

	if _, err := f.container.Create(context.Background(), entity.Job{}); !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if n := len(f.container.Jobs()); n != 0 {
		t.Errorf("placeholder left behind: %d jobs", n)
	}
	if f.store.inserts != 1 {
		t.Errorf("non-duplicate failures must not retry, got %d inserts", f.store.inserts)
	}
	if len(f.notifier.ofKind("job.create_failed")) != 1 {
		t.Error("expected one failure notification")
	}
}

func TestUpdateField_OptimisticBeforeRemoteCompletes(t *testing.T) {
	f := newFixture()
	f.seedJob(1)
	ctx := context.Background()
	if err := f.container.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}

	f.store.updateEntered = make(chan struct{})
	f.store.updateRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- f.container.UpdateField(ctx, 1, FieldStatus, "done")
	}()

	select {
	case <-f.store.updateEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("remote update was never issued")
	}

	job, _ := f.container.Job(1)
	if job.Status != entity.JobStatusDone {
		t.Errorf("status before remote completion: got %q, want done", job.Status)
	}

	close(f.store.updateRelease)
	if err := <-done; err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if row, _ := f.store.row(f.owner, 1); row.Status != entity.JobStatusDone {
		t.Errorf("remote status: got %q", row.Status)
	}
}

func TestUpdateField_FailureReconciles(t *testing.T) {
	f := newFixture()
	seeded := f.seedJob(1)
	ctx := context.Background()
	if err := f.container.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}
	f.store.failUpdate = true

	err := f.container.UpdateField(ctx, 1, FieldStatus, "done")
	if !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}

	job, _ := f.container.Job(1)
	if job.Status != seeded.Status {
		t.Errorf("status after reconciliation: got %q, want %q", job.Status, seeded.Status)
	}
	if len(f.notifier.ofKind("job.update_failed")) != 1 {
		t.Error("expected one update failure notification")
	}
}

func TestUpdateField_Validation(t *testing.T) {
	f := newFixture()
	f.seedJob(1)
	ctx := context.Background()
	_ = f.container.LoadAll(ctx)

	cases := []struct {
		field Field
		value string
	}{
		{FieldStatus, "shipped"},
		{FieldETA, "next week"},
		{Field("owner_id"), uuid.NewString()},
	}
	for _, tc := range cases {
		if err := f.container.UpdateField(ctx, 1, tc.field, tc.value); !errors.Is(err, ErrInvalidField) {
			t.Errorf("%s=%q: expected ErrInvalidField, got %v", tc.field, tc.value, err)
		}
	}

	if err := f.container.UpdateField(ctx, 42, FieldConsignee, "x"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("unknown serial: got %v", err)
	}
}

func TestUpdateField_ETAAndRefund(t *testing.T) {
	f := newFixture()
	f.seedJob(1)
	ctx := context.Background()
	_ = f.container.LoadAll(ctx)

	if err := f.container.UpdateField(ctx, 1, FieldETA, "2024-03-15"); err != nil {
		t.Fatalf("eta: %v", err)
	}
	if err := f.container.UpdateStatus(ctx, 1, entity.JobStatusDone); err != nil {
		t.Fatal(err)
	}
	if err := f.container.UpdateRefundStatus(ctx, 1, entity.RefundStatusCollected); err != nil {
		t.Fatal(err)
	}
	if err := f.container.UpdateStatus(ctx, 1, entity.JobStatusInProgress); err != nil {
		t.Fatal(err)
	}

	row, _ := f.store.row(f.owner, 1)
	if row.ETA == nil || !row.ETA.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("remote eta: %v", row.ETA)
	}
	if row.RefundStatus != entity.RefundStatusCollected {
		t.Errorf("refund status must survive status changes, got %q", row.RefundStatus)
	}

	if err := f.container.UpdateField(ctx, 1, FieldETA, ""); err != nil {
		t.Fatal(err)
	}
	if job, _ := f.container.Job(1); job.ETA != nil {
		t.Errorf("eta not cleared locally: %v", job.ETA)
	}
}

func TestLoadAll_FailureKeepsList(t *testing.T) {
	f := newFixture()
	f.seedJob(1)
	f.seedJob(2)
	ctx := context.Background()
	if err := f.container.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}

	f.store.failList = true
	if err := f.container.LoadAll(ctx); err == nil {
		t.Fatal("expected error")
	}
	if n := len(f.container.Jobs()); n != 2 {
		t.Errorf("list reset on failure: %d jobs", n)
	}
}

func TestLoadAll_OwnerIsolation(t *testing.T) {
	store := &fakeStore{}
	ownerA, ownerB := uuid.New(), uuid.New()
	store.seed(entity.Job{Serial: 1, OwnerID: ownerA, Consignee: "A"})
	store.seed(entity.Job{Serial: 1, OwnerID: ownerB, Consignee: "B"})

	deps := Deps{Store: store, Objects: newFakeObjects()}
	registry := NewRegistry(deps)
	ctx := context.Background()

	a, err := registry.Get(ctx, ownerA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := registry.Get(ctx, ownerB)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		c     *Container
		owner uuid.UUID
		want  string
	}{{a, ownerA, "A"}, {b, ownerB, "B"}} {
		got := tc.c.Jobs()
		if len(got) != 1 {
			t.Fatalf("owner %s: %d jobs", tc.want, len(got))
		}
		if got[0].OwnerID != tc.owner || got[0].Consignee != tc.want {
			t.Errorf("owner %s sees %+v", tc.want, got[0])
		}
	}
}

func TestNoOwnerIsNoop(t *testing.T) {
	store := &fakeStore{}
	c := NewContainer(uuid.Nil, Deps{Store: store, Objects: newFakeObjects()})
	ctx := context.Background()

	if _, err := c.Create(ctx, entity.Job{}); !errors.Is(err, ErrNoOwner) {
		t.Errorf("Create: %v", err)
	}
	if err := c.LoadAll(ctx); !errors.Is(err, ErrNoOwner) {
		t.Errorf("LoadAll: %v", err)
	}
	if err := c.Delete(ctx, 1); !errors.Is(err, ErrNoOwner) {
		t.Errorf("Delete: %v", err)
	}
	if store.inserts != 0 {
		t.Error("store was called without an owner")
	}
}

func TestDelete_AttemptsEveryObjectAndRemovesRow(t *testing.T) {
	f := newFixture()
	job := f.seedJob(1, "a.pdf", "b.pdf", "c.pdf")
	ctx := context.Background()
	_ = f.container.LoadAll(ctx)

	failing := job.Files[1].StorageName
	f.objects.failRemove[failing] = true

	if err := f.container.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if n := len(f.objects.removeAttempts); n != 3 {
		t.Errorf("expected 3 delete attempts, got %d", n)
	}
	if _, ok := f.store.row(f.owner, 1); ok {
		t.Error("row still present")
	}
	if len(f.container.Jobs()) != 0 {
		t.Error("job still present locally")
	}
	if len(f.orphans.keys) != 1 || !strings.HasSuffix(f.orphans.keys[0], failing) {
		t.Errorf("orphans: %v", f.orphans.keys)
	}
}

func TestDelete_RowFailureReconciles(t *testing.T) {
	f := newFixture()
	seeded := f.seedJob(1, "a.pdf", "b.pdf")
	ctx := context.Background()
	_ = f.container.LoadAll(ctx)
	f.store.failDelete = true

	if err := f.container.Delete(ctx, 1); !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	job, ok := f.container.Job(1)
	if !ok {
		t.Fatal("job should be restored by reconciliation")
	}
	if len(job.Files) != 2 {
		t.Fatalf("files after reconciliation: %d", len(job.Files))
	}
	for _, file := range seeded.Files {
		if _, ok := f.objects.get(entity.JobFileKey(1, file.StorageName)); !ok {
			t.Errorf("object for %s deleted although the row survived", file.Name)
		}
	}
	if len(f.objects.removeAttempts) != 0 {
		t.Errorf("no object delete expected: %v", f.objects.removeAttempts)
	}
}

func TestSummaryAndRefundJobs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i, st := range []entity.JobStatus{entity.JobStatusPending, entity.JobStatusDone, entity.JobStatusDone, entity.JobStatusCancelled, entity.JobStatusPending} {
		f.store.seed(entity.Job{Serial: i + 1, OwnerID: f.owner, Status: st, RefundStatus: entity.RefundStatusPending})
	}
	_ = f.container.LoadAll(ctx)
	if err := f.container.UpdateRefundStatus(ctx, 3, entity.RefundStatusCollected); err != nil {
		t.Fatal(err)
	}

	got := f.container.Summary()
	want := Summary{Total: 5, Active: 2, Completed: 2, PendingRefunds: 1, CollectedRefunds: 1, Consignees: 1}
	if got != want {
		t.Errorf("Summary: got %+v, want %+v", got, want)
	}

	refunds := f.container.RefundJobs()
	if len(refunds) != 2 || refunds[0].Serial != 2 || refunds[1].Serial != 3 {
		t.Errorf("RefundJobs: %+v", refunds)
	}
}

func TestRegistry_LoadsOnce(t *testing.T) {
	f := newFixture()
	f.seedJob(1)
	registry := NewRegistry(f.deps())
	ctx := context.Background()

	c1, err := registry.Get(ctx, f.owner)
	if err != nil {
		t.Fatal(err)
	}
	f.seedJob(2)
	c2, _ := registry.Get(ctx, f.owner)
	if c1 != c2 {
		t.Fatal("expected the same container")
	}
	if n := len(c2.Jobs()); n != 1 {
		t.Errorf("second Get should not reload, got %d jobs", n)
	}

	registry.Drop(f.owner)
	c3, _ := registry.Get(ctx, f.owner)
	if n := len(c3.Jobs()); n != 2 {
		t.Errorf("after Drop expected fresh load, got %d jobs", n)
	}

	if _, err := registry.Get(ctx, uuid.Nil); !errors.Is(err, ErrNoOwner) {
		t.Errorf("nil owner: %v", err)
	}
}
