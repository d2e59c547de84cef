package models

// ResolveMode controls how much work segment resolution performs.
type ResolveMode string

const (
	// ResolvePreview computes cardinalities only, for UI estimation.
	ResolvePreview ResolveMode = "preview"
	// ResolveFull additionally fans out to the matching users' device tokens.
	ResolveFull ResolveMode = "full"
)

// SegmentFilter is a declarative audience description embedded in campaigns,
// triggers and ad-hoc send requests. Empty plan/country sets mean "all".
// Opt-in flags are ANDed: a user must satisfy every enabled flag.
type SegmentFilter struct {
	Plans                []string `bson:"plans,omitempty" json:"plans,omitempty"`
	Countries            []string `bson:"countries,omitempty" json:"countries,omitempty"`
	RespectOptOut        bool     `bson:"respectOptOut" json:"respectOptOut"`
	OnlyMarketingOptIn   bool     `bson:"onlyMarketingOptIn" json:"onlyMarketingOptIn"`
	OnlyReminderOptIn    bool     `bson:"onlyReminderOptIn" json:"onlyReminderOptIn"`
	OnlyTransactionOptIn bool     `bson:"onlyTransactionOptIn" json:"onlyTransactionOptIn"`
}

// SegmentCounts holds the cardinalities of a resolution.
type SegmentCounts struct {
	Users  int `json:"users"`
	Tokens int `json:"tokens"`
}

// SegmentResolution is the concrete recipient set produced from a filter.
// In preview mode UserIDs and Tokens are left empty and only Counts.Users is
// populated.
type SegmentResolution struct {
	UserIDs []string      `json:"userIds"`
	Tokens  []DeviceToken `json:"tokens,omitempty"`
	Counts  SegmentCounts `json:"counts"`
}
