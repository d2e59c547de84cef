package models

import "time"

// SettingMeta describes one tunable trigger setting for validation and
// dashboard display.
type SettingMeta struct {
	Key     string      `bson:"key" json:"key"`
	Label   string      `bson:"label" json:"label"`
	Type    string      `bson:"type" json:"type"` // number, bool
	Min     *float64    `bson:"min,omitempty" json:"min,omitempty"`
	Max     *float64    `bson:"max,omitempty" json:"max,omitempty"`
	Step    *float64    `bson:"step,omitempty" json:"step,omitempty"`
	Default interface{} `bson:"default,omitempty" json:"default,omitempty"`
}

// TriggerLastRun is a snapshot of the most recent run, overwritten each
// cycle. Consumers needing history read the notification log by triggerKey.
type TriggerLastRun struct {
	SentAt  *time.Time             `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	Summary map[string]interface{} `bson:"summary,omitempty" json:"summary,omitempty"`
}

// Trigger represents a fixed, code-defined automation rule. The catalog of
// triggers lives in the services package; the stored document carries the
// tunable state only.
type Trigger struct {
	Key          string                 `bson:"key" json:"key"`
	Label        string                 `bson:"label" json:"label"`
	Description  string                 `bson:"description" json:"description"`
	IsActive     bool                   `bson:"isActive" json:"isActive"`
	Settings     map[string]interface{} `bson:"settings" json:"settings"`
	SettingsMeta []SettingMeta          `bson:"settingsMeta" json:"settingsMeta"`
	LastRun      *TriggerLastRun        `bson:"lastRun,omitempty" json:"lastRun,omitempty"`
	CreatedAt    time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time              `bson:"updatedAt" json:"updatedAt"`
}
