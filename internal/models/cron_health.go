package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueSeverity classifies a health issue.
type IssueSeverity string

const (
	SeverityInfo    IssueSeverity = "INFO"
	SeverityWarning IssueSeverity = "WARNING"
	SeverityError   IssueSeverity = "ERROR"
)

// HealthIssue is one problem detected during a scheduler cycle.
type HealthIssue struct {
	Message  string        `bson:"message" json:"message"`
	Severity IssueSeverity `bson:"severity" json:"severity"`
}

// CronHealthRecord captures the outcome of one scheduler invocation of the
// trigger runner and campaign dispatcher. Retention is bounded; older records
// are pruned.
type CronHealthRecord struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Timestamp          time.Time          `bson:"timestamp" json:"timestamp"`
	Success            bool               `bson:"success" json:"success"`
	TriggersProcessed  int                `bson:"triggersProcessed" json:"triggersProcessed"`
	TriggersTotal      int                `bson:"triggersTotal" json:"triggersTotal"`
	CampaignsProcessed int                `bson:"campaignsProcessed" json:"campaignsProcessed"`
	Issues             []HealthIssue      `bson:"issues,omitempty" json:"issues,omitempty"`
}
