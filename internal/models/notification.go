package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notification categories understood by the preference check.
const (
	CategoryOverdue  = "overdue"
	CategoryDueSoon  = "due_soon"
	CategoryUpcoming = "upcoming"
)

type Notification struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title    string             `bson:"title" json:"title"`
	Body     string             `bson:"body,omitempty" json:"body,omitempty"`
	Type     string             `bson:"type" json:"type"`                             // severity: info, warning, error
	Category string             `bson:"category,omitempty" json:"category,omitempty"` // maps to a preference flag
	// DedupKey identifies the underlying condition (source type, source id,
	// urgency status) so wording changes never regenerate a notification.
	DedupKey   string    `bson:"dedup_key,omitempty" json:"dedup_key,omitempty"`
	SourceType string    `bson:"source_type,omitempty" json:"source_type,omitempty"`
	SourceID   string    `bson:"source_id,omitempty" json:"source_id,omitempty"`
	Read       bool      `bson:"read" json:"read"`
	Deleted    bool      `bson:"deleted" json:"deleted"` // soft-delete flag, records are never hard-deleted
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
