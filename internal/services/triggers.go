package services

import (
	"context"
	"fmt"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
)

// TriggerSettings wraps the stored settings map with type-tolerant accessors.
// Numeric values may decode from BSON as int32, int64 or float64.
type TriggerSettings map[string]interface{}

// Float returns a numeric setting or the fallback when absent or mistyped.
func (s TriggerSettings) Float(key string, fallback float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// Bool returns a boolean setting or the fallback when absent or mistyped.
func (s TriggerSettings) Bool(key string, fallback bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return fallback
}

// TriggerDeps is the data surface a trigger condition may consult.
type TriggerDeps struct {
	Users repositories.UserRepository
	Logs  repositories.NotificationLogRepository
}

// TriggerCandidate is one user a trigger decided to notify, with the message
// to send.
type TriggerCandidate struct {
	User  *models.User
	Title string
	Body  string
	Data  map[string]interface{}
}

// TriggerDefinition is one entry of the fixed automation catalog. The stored
// settings and settingsMeta both derive from Meta, so they cannot drift.
type TriggerDefinition struct {
	Key         string
	Label       string
	Description string
	Category    string // notification category, decides the opt-in flag checked
	Meta        []models.SettingMeta

	// Evaluate inspects current data and returns the users to notify now.
	// It must not send anything itself.
	Evaluate func(ctx context.Context, deps TriggerDeps, settings TriggerSettings, now time.Time) ([]TriggerCandidate, error)
}

// DefaultSettings derives the initial settings map from the meta descriptors.
func (d TriggerDefinition) DefaultSettings() map[string]interface{} {
	settings := make(map[string]interface{}, len(d.Meta))
	for _, meta := range d.Meta {
		settings[meta.Key] = meta.Default
	}
	return settings
}

func floatPtr(v float64) *float64 { return &v }

// TriggerCatalog returns the fixed set of automation rules. Triggers are
// code-defined; the database only stores their tunable state.
func TriggerCatalog() []TriggerDefinition {
	return []TriggerDefinition{
		{
			Key:         "subscription_expiry_reminder",
			Label:       "Subscription expiry reminder",
			Description: "Reminds users whose paid plan expires soon, at most once per day.",
			Category:    "reminder",
			Meta: []models.SettingMeta{
				{Key: "daysBefore", Label: "Days before expiry", Type: "number", Min: floatPtr(1), Max: floatPtr(30), Step: floatPtr(1), Default: 3.0},
			},
			Evaluate: evaluateExpiryReminder,
		},
		{
			Key:         "inactivity_winback",
			Label:       "Inactivity win-back",
			Description: "Nudges users who have not opened the app for a while.",
			Category:    "marketing",
			Meta: []models.SettingMeta{
				{Key: "inactiveDays", Label: "Days of inactivity", Type: "number", Min: floatPtr(3), Max: floatPtr(90), Step: floatPtr(1), Default: 14.0},
			},
			Evaluate: evaluateInactivityWinback,
		},
		{
			Key:         "welcome_followup",
			Label:       "Welcome follow-up",
			Description: "Greets new users the day after signup, once per user.",
			Category:    "reminder",
			Meta: []models.SettingMeta{
				{Key: "daysAfterSignup", Label: "Days after signup", Type: "number", Min: floatPtr(1), Max: floatPtr(14), Step: floatPtr(1), Default: 1.0},
			},
			Evaluate: evaluateWelcomeFollowup,
		},
	}
}

// optedIn checks the per-category consent flag for a candidate.
func optedIn(user *models.User, category string) bool {
	if !user.PushEnabled {
		return false
	}
	switch category {
	case "marketing":
		return user.MarketingOptIn
	case "reminder":
		return user.ReminderOptIn
	case "transaction":
		return user.TransactionOptIn
	default:
		return true
	}
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func evaluateExpiryReminder(ctx context.Context, deps TriggerDeps, settings TriggerSettings, now time.Time) ([]TriggerCandidate, error) {
	daysBefore := int(settings.Float("daysBefore", 3))
	horizon := now.AddDate(0, 0, daysBefore)

	users, err := deps.Users.FindByPlanExpiringBetween(ctx, now, horizon)
	if err != nil {
		return nil, &DependencyError{Op: "find expiring users", Err: err}
	}

	candidates := make([]TriggerCandidate, 0, len(users))
	for _, user := range users {
		if !optedIn(user, "reminder") {
			continue
		}
		// At most one reminder per user per day.
		already, err := deps.Logs.ExistsForTriggerSince(ctx, "subscription_expiry_reminder", user.ID.Hex(), startOfDay(now))
		if err != nil {
			return nil, &DependencyError{Op: "check reminder dedupe", Err: err}
		}
		if already {
			continue
		}
		days := int(user.PlanExpiresAt.Sub(now).Hours() / 24)
		if days < 1 {
			days = 1
		}
		candidates = append(candidates, TriggerCandidate{
			User:  user,
			Title: "Your plan is about to expire",
			Body:  fmt.Sprintf("Your %s plan expires in %d day(s). Renew now to keep your benefits.", user.Plan, days),
			Data:  map[string]interface{}{"screen": "billing"},
		})
	}
	return candidates, nil
}

func evaluateInactivityWinback(ctx context.Context, deps TriggerDeps, settings TriggerSettings, now time.Time) ([]TriggerCandidate, error) {
	inactiveDays := int(settings.Float("inactiveDays", 14))
	cutoff := now.AddDate(0, 0, -inactiveDays)

	users, err := deps.Users.FindInactiveSince(ctx, cutoff)
	if err != nil {
		return nil, &DependencyError{Op: "find inactive users", Err: err}
	}

	candidates := make([]TriggerCandidate, 0, len(users))
	for _, user := range users {
		if !optedIn(user, "marketing") {
			continue
		}
		// One nudge per inactivity window, not one per cycle.
		already, err := deps.Logs.ExistsForTriggerSince(ctx, "inactivity_winback", user.ID.Hex(), cutoff)
		if err != nil {
			return nil, &DependencyError{Op: "check winback dedupe", Err: err}
		}
		if already {
			continue
		}
		candidates = append(candidates, TriggerCandidate{
			User:  user,
			Title: "We miss you!",
			Body:  "It has been a while. Come back and see what's new.",
			Data:  map[string]interface{}{"screen": "home"},
		})
	}
	return candidates, nil
}

func evaluateWelcomeFollowup(ctx context.Context, deps TriggerDeps, settings TriggerSettings, now time.Time) ([]TriggerCandidate, error) {
	daysAfter := int(settings.Float("daysAfterSignup", 1))
	end := now.AddDate(0, 0, -daysAfter)
	start := end.AddDate(0, 0, -1)

	users, err := deps.Users.FindCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, &DependencyError{Op: "find recent signups", Err: err}
	}

	candidates := make([]TriggerCandidate, 0, len(users))
	for _, user := range users {
		if !optedIn(user, "reminder") {
			continue
		}
		// Once per user, ever.
		already, err := deps.Logs.ExistsForTriggerSince(ctx, "welcome_followup", user.ID.Hex(), user.CreatedAt)
		if err != nil {
			return nil, &DependencyError{Op: "check welcome dedupe", Err: err}
		}
		if already {
			continue
		}
		candidates = append(candidates, TriggerCandidate{
			User:  user,
			Title: "Getting started",
			Body:  "Here are a few tips to get the most out of the app.",
			Data:  map[string]interface{}{"screen": "onboarding"},
		})
	}
	return candidates, nil
}
