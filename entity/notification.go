package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationLevel string

const (
	NotificationInfo  NotificationLevel = "info"
	NotificationError NotificationLevel = "error"
)

// Notification is the out-of-band message a user sees for the outcome of an
// operation. Failures of a batch produce one notification per failed item.
type Notification struct {
	Kind      string            `json:"kind"`
	Level     NotificationLevel `json:"level"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	OwnerID   uuid.UUID         `json:"owner_id"`
	Serial    int               `json:"serial,omitempty"`
	File      string            `json:"file,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
