package jobs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/infra"
)

type Field string

const (
	FieldConsignee     Field = "consignee"
	FieldBLNumber      Field = "bl_number"
	FieldContainerSize Field = "container_size"
	FieldTerminal      Field = "terminal"
	FieldStatus        Field = "status"
	FieldETA           Field = "eta"
)

const maxCreateAttempts = 3

// Deps are the collaborators shared by every container of a Registry.
type Deps struct {
	Store     Store
	Objects   ObjectStore
	Serials   SerialAllocator
	Notifier  Notifier
	Orphans   OrphanReporter
	Logger    *infra.LoggerClient
	URLExpiry time.Duration
	Now       func() time.Time
}

// Container mirrors one owner's job rows in memory. Mutations are applied
// locally first and reconciled with LoadAll when the remote write fails.
// The lock is never held across a remote call.
type Container struct {
	owner uuid.UUID
	deps  Deps

	mu     sync.Mutex
	jobs   []entity.Job
	loaded bool
}

func NewContainer(owner uuid.UUID, deps Deps) *Container {
	if deps.Serials == nil {
		deps.Serials = LocalSerials{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.URLExpiry <= 0 {
		deps.URLExpiry = 7 * 24 * time.Hour
	}
	return &Container{owner: owner, deps: deps}
}

func (c *Container) Owner() uuid.UUID {
	return c.owner
}

// Loaded reports whether LoadAll has succeeded at least once.
func (c *Container) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// LoadAll replaces the local list with the owner's rows. On failure the
// local list is kept as is.
func (c *Container) LoadAll(ctx context.Context) error {
	if c.owner == uuid.Nil {
		return ErrNoOwner
	}
	ctx, span := startSpan(ctx, "load_all")
	defer span.End()

	rows, err := c.deps.Store.ListByOwner(ctx, c.owner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to load jobs for owner %s: %v", c.owner, err)
		c.notifyError(ctx, "jobs.load_failed", "Failed to load jobs", err.Error(), 0, "")
		return fmt.Errorf("load jobs: %w", err)
	}

	slices.SortStableFunc(rows, func(a, b entity.Job) int { return a.Serial - b.Serial })

	c.mu.Lock()
	c.jobs = rows
	c.loaded = true
	c.mu.Unlock()

	span.SetAttributes(attribute.Int("jobs.count", len(rows)))
	return nil
}

// Jobs returns a copy of the current list ordered by serial.
func (c *Container) Jobs() []entity.Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]entity.Job, len(c.jobs))
	for i, job := range c.jobs {
		out[i] = job.Clone()
	}
	return out
}

func (c *Container) Job(serial int) (entity.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexBySerial(serial); i >= 0 {
		return c.jobs[i].Clone(), true
	}
	return entity.Job{}, false
}

// UpdateField parses value for field and applies it optimistically.
// An empty eta clears the date.
func (c *Container) UpdateField(ctx context.Context, serial int, field Field, value string) error {
	switch field {
	case FieldConsignee, FieldBLNumber, FieldContainerSize, FieldTerminal:
		value = strings.TrimSpace(value)
		return c.update(ctx, "update_"+string(field), serial, string(field), value, func(job *entity.Job) {
			switch field {
			case FieldConsignee:
				job.Consignee = value
			case FieldBLNumber:
				job.BLNumber = value
			case FieldContainerSize:
				job.ContainerSize = value
			case FieldTerminal:
				job.Terminal = value
			}
		})
	case FieldStatus:
		return c.UpdateStatus(ctx, serial, entity.JobStatus(value))
	case FieldETA:
		eta, err := ParseETA(value)
		if err != nil {
			return err
		}
		return c.UpdateETA(ctx, serial, eta)
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidField, field)
	}
}

func (c *Container) UpdateStatus(ctx context.Context, serial int, status entity.JobStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidField, status)
	}
	return c.update(ctx, "update_status", serial, "status", status, func(job *entity.Job) {
		job.Status = status
	})
}

func (c *Container) UpdateETA(ctx context.Context, serial int, eta *time.Time) error {
	var value interface{}
	if eta != nil {
		value = *eta
	}
	return c.update(ctx, "update_eta", serial, "eta", value, func(job *entity.Job) {
		if eta == nil {
			job.ETA = nil
			return
		}
		t := *eta
		job.ETA = &t
	})
}

// UpdateRefundStatus is independent of Status; it is kept across status changes.
func (c *Container) UpdateRefundStatus(ctx context.Context, serial int, status entity.RefundStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: refund status %q", ErrInvalidField, status)
	}
	return c.update(ctx, "update_refund_status", serial, "refund_status", status, func(job *entity.Job) {
		job.RefundStatus = status
	})
}

// ParseETA accepts a calendar date or an RFC 3339 timestamp.
func ParseETA(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: eta %q", ErrInvalidField, value)
}

func (c *Container) update(ctx context.Context, op string, serial int, column string, value interface{}, apply func(*entity.Job)) error {
	if c.owner == uuid.Nil {
		return ErrNoOwner
	}
	ctx, span := startSpan(ctx, op, attribute.Int("job.serial", serial))
	defer span.End()

	c.mu.Lock()
	i := c.indexBySerial(serial)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: serial %d", ErrJobNotFound, serial)
	}
	apply(&c.jobs[i])
	c.mu.Unlock()

	if err := c.deps.Store.UpdateFields(ctx, c.owner, serial, map[string]interface{}{column: value}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to update %s of job %d: %v", column, serial, err)
		c.notifyError(ctx, "job.update_failed", "Update failed", fmt.Sprintf("Could not update %s of job %d", column, serial), serial, "")
		c.reconcile(ctx, op)
		return fmt.Errorf("update %s of job %d: %w", column, serial, err)
	}
	return nil
}

// Create assigns the next serial, shows a placeholder at once and inserts the
// row. A serial taken concurrently is re-derived and retried.
func (c *Container) Create(ctx context.Context, partial entity.Job) (entity.Job, error) {
	if c.owner == uuid.Nil {
		return entity.Job{}, ErrNoOwner
	}
	ctx, span := startSpan(ctx, "create")
	defer span.End()

	if partial.Status == "" {
		partial.Status = entity.JobStatusPending
	}
	if partial.RefundStatus == "" {
		partial.RefundStatus = entity.RefundStatusPending
	}
	if !partial.Status.Valid() || !partial.RefundStatus.Valid() {
		return entity.Job{}, fmt.Errorf("%w: status %q refund %q", ErrInvalidField, partial.Status, partial.RefundStatus)
	}

	floor := 0
	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		job, err := c.createOnce(ctx, partial, floor)
		if err == nil {
			span.SetAttributes(attribute.Int("job.serial", job.Serial), attribute.Int("attempts", attempt))
			c.notifyInfo(ctx, "job.created", "Job created", fmt.Sprintf("Job %d created", job.Serial), job.Serial)
			return job, nil
		}
		lastErr = err

		var dup *duplicateSerialError
		if !errors.As(err, &dup) {
			break
		}
		c.deps.Logger.WarningWithContextf(ctx, "[Jobs] Serial %d already taken for owner %s, retrying (attempt %d/%d)", dup.serial, c.owner, attempt, maxCreateAttempts)
		c.reconcile(ctx, "create")
		floor = dup.serial
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "create failed")
	c.deps.Logger.ErrorWithContextf(ctx, lastErr, "[Jobs] Failed to create job for owner %s: %v", c.owner, lastErr)
	c.notifyError(ctx, "job.create_failed", "Failed to create job", lastErr.Error(), 0, "")
	return entity.Job{}, lastErr
}

type duplicateSerialError struct {
	serial int
	err    error
}

func (e *duplicateSerialError) Error() string { return e.err.Error() }
func (e *duplicateSerialError) Unwrap() error { return e.err }

func (c *Container) createOnce(ctx context.Context, partial entity.Job, floor int) (entity.Job, error) {
	placeholder := partial.Clone()
	placeholder.ID = uuid.New()
	placeholder.OwnerID = c.owner
	placeholder.Files = nil
	placeholder.CreatedAt = c.deps.Now().UTC()
	placeholder.UpdatedAt = placeholder.CreatedAt

	c.mu.Lock()
	floor = max(floor, c.maxSerialLocked())
	placeholder.Serial = floor + 1
	c.jobs = append(c.jobs, placeholder)
	c.mu.Unlock()

	serial, err := c.deps.Serials.Next(ctx, c.owner, floor)
	if err != nil {
		c.dropLocal(placeholder.ID)
		rollbacks.Add(ctx, 1, opAttr("create"))
		return entity.Job{}, fmt.Errorf("allocate serial: %w", err)
	}
	if serial != placeholder.Serial {
		c.mu.Lock()
		if c.indexBySerial(serial) >= 0 {
			c.mu.Unlock()
			c.dropLocal(placeholder.ID)
			return entity.Job{}, &duplicateSerialError{serial: serial, err: fmt.Errorf("%w: %d", ErrDuplicateSerial, serial)}
		}
		if i := c.indexByID(placeholder.ID); i >= 0 {
			c.jobs[i].Serial = serial
			c.sortLocked()
		}
		c.mu.Unlock()
		placeholder.Serial = serial
	}

	row := placeholder.Clone()
	if err := c.deps.Store.Insert(ctx, &row); err != nil {
		c.dropLocal(placeholder.ID)
		rollbacks.Add(ctx, 1, opAttr("create"))
		if errors.Is(err, ErrDuplicateSerial) {
			return entity.Job{}, &duplicateSerialError{serial: placeholder.Serial, err: err}
		}
		return entity.Job{}, fmt.Errorf("insert job %d: %w", placeholder.Serial, err)
	}

	c.mu.Lock()
	if i := c.indexByID(row.ID); i >= 0 {
		c.jobs[i] = row.Clone()
	} else {
		c.jobs = append(c.jobs, row.Clone())
	}
	c.sortLocked()
	c.mu.Unlock()

	return row, nil
}

// Delete drops the job locally, deletes the row and then attempts to delete
// every attachment. Attachment failures are queued as orphans.
func (c *Container) Delete(ctx context.Context, serial int) error {
	if c.owner == uuid.Nil {
		return ErrNoOwner
	}
	ctx, span := startSpan(ctx, "delete", attribute.Int("job.serial", serial))
	defer span.End()

	c.mu.Lock()
	i := c.indexBySerial(serial)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: serial %d", ErrJobNotFound, serial)
	}
	files := slices.Clone(c.jobs[i].Files)
	c.jobs = slices.Delete(c.jobs, i, i+1)
	c.mu.Unlock()

	if err := c.deps.Store.Delete(ctx, c.owner, serial); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to delete job %d: %v", serial, err)
		c.notifyError(ctx, "job.delete_failed", "Delete failed", fmt.Sprintf("Could not delete job %d", serial), serial, "")
		c.reconcile(ctx, "delete")
		return fmt.Errorf("delete job %d: %w", serial, err)
	}

	// The row is gone, so every object left behind is an orphan.
	failed := 0
	for _, f := range files {
		key := entity.JobFileKey(serial, f.StorageName)
		if err := c.deps.Objects.Remove(ctx, key); err != nil {
			failed++
			c.deps.Logger.WarningWithContextf(ctx, "[Jobs] Failed to delete object %s of job %d: %v", key, serial, err)
			c.reportOrphan(ctx, key, "job delete: "+err.Error())
		}
	}
	span.SetAttributes(attribute.Int("files.count", len(files)), attribute.Int("files.failed", failed))

	c.notifyInfo(ctx, "job.deleted", "Job deleted", fmt.Sprintf("Job %d deleted", serial), serial)
	return nil
}

// reconcile reloads authoritative state after a failed remote write.
func (c *Container) reconcile(ctx context.Context, op string) {
	reconciliations.Add(ctx, 1, opAttr(op))
	_ = c.LoadAll(ctx)
}

func (c *Container) reportOrphan(ctx context.Context, key, reason string) {
	orphans.Add(ctx, 1)
	if c.deps.Orphans == nil {
		return
	}
	if err := c.deps.Orphans.ReportOrphan(ctx, c.owner, key, reason); err != nil {
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to report orphan %s: %v", key, err)
	}
}

func (c *Container) notifyInfo(ctx context.Context, kind, title, message string, serial int) {
	c.notify(ctx, entity.Notification{Kind: kind, Level: entity.NotificationInfo, Title: title, Message: message, Serial: serial})
}

func (c *Container) notifyError(ctx context.Context, kind, title, message string, serial int, file string) {
	c.notify(ctx, entity.Notification{Kind: kind, Level: entity.NotificationError, Title: title, Message: message, Serial: serial, File: file})
}

func (c *Container) notify(ctx context.Context, n entity.Notification) {
	if c.deps.Notifier == nil {
		return
	}
	n.Timestamp = c.deps.Now().UTC()
	c.deps.Notifier.Notify(ctx, c.owner, n)
}

func (c *Container) dropLocal(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexByID(id); i >= 0 {
		c.jobs = slices.Delete(c.jobs, i, i+1)
	}
}

func (c *Container) indexBySerial(serial int) int {
	return slices.IndexFunc(c.jobs, func(j entity.Job) bool { return j.Serial == serial })
}

func (c *Container) indexByID(id uuid.UUID) int {
	return slices.IndexFunc(c.jobs, func(j entity.Job) bool { return j.ID == id })
}

func (c *Container) maxSerialLocked() int {
	m := 0
	for _, j := range c.jobs {
		m = max(m, j.Serial)
	}
	return m
}

func (c *Container) sortLocked() {
	slices.SortStableFunc(c.jobs, func(a, b entity.Job) int { return a.Serial - b.Serial })
}
