package jobs

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/tnqbao/gau-marine-service/entity"
)

// Store is the relational side of the container. Every call is scoped to owner.
type Store interface {
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]entity.Job, error)
	Insert(ctx context.Context, job *entity.Job) error
	UpdateFields(ctx context.Context, owner uuid.UUID, serial int, fields map[string]interface{}) error
	UpdateFiles(ctx context.Context, owner uuid.UUID, serial int, files []entity.JobFile) error
	Delete(ctx context.Context, owner uuid.UUID, serial int) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	Remove(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// SerialAllocator returns a serial strictly greater than floor.
type SerialAllocator interface {
	Next(ctx context.Context, owner uuid.UUID, floor int) (int, error)
}

type Notifier interface {
	Notify(ctx context.Context, owner uuid.UUID, n entity.Notification)
}

// OrphanReporter queues an object that no row references any more for deletion.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, owner uuid.UUID, key, reason string) error
}
