package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in-progress"
	JobStatusDone       JobStatus = "done"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusETA        JobStatus = "eta"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusInProgress, JobStatusDone, JobStatusCancelled, JobStatusETA:
		return true
	}
	return false
}

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCollected RefundStatus = "collected"
)

func (s RefundStatus) Valid() bool {
	return s == RefundStatusPending || s == RefundStatusCollected
}

// Terminals offered by the jobs table. Terminal stays free text.
var Terminals = []string{
	"Apapa",
	"TICT",
	"Sifax terminal",
	"BESTAF terminal",
	"Fivestar",
	"Grilmaldi",
}

type Job struct {
	ID            uuid.UUID                    `json:"id" gorm:"type:uuid;primaryKey"`
	Serial        int                          `json:"serial" gorm:"not null;uniqueIndex:idx_job_owner_serial"`
	Consignee     string                       `json:"consignee" gorm:"type:varchar(255)"`
	BLNumber      string                       `json:"bl_number" gorm:"column:bl_number;type:varchar(128)"`
	ContainerSize string                       `json:"container_size" gorm:"type:varchar(64)"`
	Terminal      string                       `json:"terminal" gorm:"type:varchar(128)"`
	Status        JobStatus                    `json:"status" gorm:"type:varchar(32);not null;default:'pending';index"`
	ETA           *time.Time                   `json:"eta"`
	RefundStatus  RefundStatus                 `json:"refund_status" gorm:"type:varchar(32);not null;default:'pending'"`
	Files         datatypes.JSONSlice[JobFile] `json:"files" gorm:"type:jsonb"`
	OwnerID       uuid.UUID                    `json:"owner_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_job_owner_serial"`
	CreatedAt     time.Time                    `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt     time.Time                    `json:"updated_at" gorm:"autoUpdateTime"`
}

// JobFile describes one attachment. StorageName identifies the backing object,
// Name is what the user sees and may rename.
type JobFile struct {
	Name        string    `json:"name"`
	StorageName string    `json:"storage_name"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mime_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// JobFileKey is the object key of an attachment inside the shared bucket.
func JobFileKey(serial int, storageName string) string {
	return "jobs/" + strconv.Itoa(serial) + "/" + storageName
}

// Clone returns a copy that shares nothing mutable with j.
func (j Job) Clone() Job {
	out := j
	if j.ETA != nil {
		eta := *j.ETA
		out.ETA = &eta
	}
	if j.Files != nil {
		out.Files = append(datatypes.JSONSlice[JobFile](nil), j.Files...)
	}
	return out
}

func (j Job) FileByName(name string) (int, bool) {
	for i, f := range j.Files {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}
