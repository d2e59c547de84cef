package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an end user of the application and is the substrate for
// segment resolution.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email            string             `bson:"email" json:"email"`
	Name             string             `bson:"name" json:"name"`
	Plan             string             `bson:"plan" json:"plan"`       // free, basic, pro, enterprise
	Country          string             `bson:"country" json:"country"` // ISO 3166-1 alpha-2
	PushEnabled      bool               `bson:"pushEnabled" json:"pushEnabled"`
	MarketingOptIn   bool               `bson:"marketingOptIn" json:"marketingOptIn"`
	ReminderOptIn    bool               `bson:"reminderOptIn" json:"reminderOptIn"`
	TransactionOptIn bool               `bson:"transactionOptIn" json:"transactionOptIn"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	PlanExpiresAt    *time.Time         `bson:"planExpiresAt,omitempty" json:"planExpiresAt,omitempty"`
	LastSeenAt       *time.Time         `bson:"lastSeenAt,omitempty" json:"lastSeenAt,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
