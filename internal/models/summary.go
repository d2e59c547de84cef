package models

import "time"

// EventCounts tallies notification outcomes for one time window.
//
// Sent, Delivered, Opened, Clicked and Dismissed count rows that ever reached
// the milestone (by milestone timestamp), so one row may appear in several
// buckets. Failed counts rows whose current status is FAILED.
type EventCounts struct {
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Opened    int `json:"opened"`
	Clicked   int `json:"clicked"`
	Dismissed int `json:"dismissed"`
	Failed    int `json:"failed"`
}

// WindowSummary is the derived rolling-window view for one trigger or
// campaign. It is computed on read and never stored.
type WindowSummary struct {
	Scope string `json:"scope"` // trigger, campaign
	ID    string `json:"id"`

	Last24h EventCounts `json:"last24h"`
	Last7d  EventCounts `json:"last7d"`
	Last30d EventCounts `json:"last30d"`
	Total   EventCounts `json:"total"`

	LastSentAt      *time.Time `json:"lastSentAt,omitempty"`
	LastDeliveredAt *time.Time `json:"lastDeliveredAt,omitempty"`
	LastOpenedAt    *time.Time `json:"lastOpenedAt,omitempty"`
	LastClickedAt   *time.Time `json:"lastClickedAt,omitempty"`
}

// GlobalSummary aggregates the same windows across all triggers and campaigns
// combined, plus distributions for operational visibility.
type GlobalSummary struct {
	Last24h EventCounts `json:"last24h"`
	Last7d  EventCounts `json:"last7d"`
	Last30d EventCounts `json:"last30d"`
	Total   EventCounts `json:"total"`

	// StatusDistribution counts rows by their current raw status value.
	StatusDistribution map[string]int `json:"statusDistribution"`
	// FieldPresence counts rows having each optional column populated,
	// showing which metrics are actually being recorded.
	FieldPresence map[string]int `json:"fieldPresence"`
}
