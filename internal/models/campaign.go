package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignScheduled CampaignStatus = "SCHEDULED"
	CampaignSending   CampaignStatus = "SENDING"
	CampaignSent      CampaignStatus = "SENT"
	CampaignCancelled CampaignStatus = "CANCELLED"
	CampaignFailed    CampaignStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignSent || s == CampaignCancelled || s == CampaignFailed
}

// Campaign represents a user-authored, segmented bulk push notification.
type Campaign struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string                 `bson:"name" json:"name"`
	Description  string                 `bson:"description" json:"description"`
	CampaignType string                 `bson:"campaignType" json:"campaignType"` // marketing, reminder, transaction, system, referral, payment
	Title        string                 `bson:"title" json:"title"`
	Body         string                 `bson:"body" json:"body"`
	ImageURL     string                 `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Data         map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	Filters      SegmentFilter          `bson:"filters" json:"filters"`
	ScheduledFor *time.Time             `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	Status       CampaignStatus         `bson:"status" json:"status"`

	// Result counters, monotonically non-decreasing once Status == SENDING.
	TargetUsersCount int `bson:"targetUsersCount" json:"targetUsersCount"`
	SentCount        int `bson:"sentCount" json:"sentCount"`
	DeliveredCount   int `bson:"deliveredCount" json:"deliveredCount"`
	OpenedCount      int `bson:"openedCount" json:"openedCount"`
	ClickedCount     int `bson:"clickedCount" json:"clickedCount"`
	FailedCount      int `bson:"failedCount" json:"failedCount"`

	SentAt    *time.Time `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	CreatedBy string     `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}
