package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStatus represents the latest state of one logical send.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationDelivered NotificationStatus = "DELIVERED"
	NotificationOpened    NotificationStatus = "OPENED"
	NotificationClicked   NotificationStatus = "CLICKED"
	NotificationDismissed NotificationStatus = "DISMISSED"
	NotificationFailed    NotificationStatus = "FAILED"
)

// NotificationLog is the append-only fact record for every send attempt.
// Engagement events arriving after the send update the same row's status and
// stamp the matching event timestamp, so a row carries both its latest status
// and every milestone it ever reached.
type NotificationLog struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RecipientUserID string             `bson:"recipientUserId,omitempty" json:"recipientUserId,omitempty"`
	DeviceToken     string             `bson:"deviceToken,omitempty" json:"deviceToken,omitempty"`
	Type            string             `bson:"type" json:"type"`
	Title           string             `bson:"title" json:"title"`
	Body            string             `bson:"body" json:"body"`
	Status          NotificationStatus `bson:"status" json:"status"`
	DeliveryID      string             `bson:"deliveryId,omitempty" json:"deliveryId,omitempty"`
	ErrorMessage    string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`

	// Back-references to the originating campaign or trigger.
	TriggerKey string              `bson:"triggerKey,omitempty" json:"triggerKey,omitempty"`
	CampaignID *primitive.ObjectID `bson:"campaignId,omitempty" json:"campaignId,omitempty"`

	// Milestone timestamps. SentAt is set when the gateway accepts the send;
	// the rest are stamped as engagement callbacks arrive.
	SentAt      *time.Time `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	OpenedAt    *time.Time `bson:"openedAt,omitempty" json:"openedAt,omitempty"`
	ClickedAt   *time.Time `bson:"clickedAt,omitempty" json:"clickedAt,omitempty"`
	DismissedAt *time.Time `bson:"dismissedAt,omitempty" json:"dismissedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
