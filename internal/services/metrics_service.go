package services

import (
	"context"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope names accepted by Summarize.
const (
	ScopeTrigger  = "trigger"
	ScopeCampaign = "campaign"
)

// MetricsService computes rolling-window summaries from the notification
// log. It is a pure read path: nothing is stored, and scans may run
// concurrently with writers.
type MetricsService struct {
	logRepo repositories.NotificationLogRepository
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(logRepo repositories.NotificationLogRepository) *MetricsService {
	return &MetricsService{logRepo: logRepo}
}

// Summarize computes the window summary for one trigger or campaign.
func (s *MetricsService) Summarize(ctx context.Context, scope, id string) (*models.WindowSummary, error) {
	var rows []*models.NotificationLog
	var err error

	switch scope {
	case ScopeCampaign:
		oid, parseErr := primitive.ObjectIDFromHex(id)
		if parseErr != nil {
			return nil, NewValidationError("invalid campaign id %q", id)
		}
		rows, err = s.logRepo.FindAllByCampaignID(ctx, oid)
	case ScopeTrigger:
		rows, err = s.logRepo.FindAllByTriggerKey(ctx, id)
	default:
		return nil, NewValidationError("unknown scope %q", scope)
	}
	if err != nil {
		return nil, &DependencyError{Op: "scan notification logs", Err: err}
	}

	now := time.Now()
	summary := &models.WindowSummary{
		Scope:   scope,
		ID:      id,
		Last24h: countEvents(rows, now.Add(-24*time.Hour)),
		Last7d:  countEvents(rows, now.AddDate(0, 0, -7)),
		Last30d: countEvents(rows, now.AddDate(0, 0, -30)),
		Total:   countEventsTotal(rows),
	}
	summary.LastSentAt = latestTimestamp(rows, func(r *models.NotificationLog) *time.Time { return r.SentAt })
	summary.LastDeliveredAt = latestTimestamp(rows, func(r *models.NotificationLog) *time.Time { return r.DeliveredAt })
	summary.LastOpenedAt = latestTimestamp(rows, func(r *models.NotificationLog) *time.Time { return r.OpenedAt })
	summary.LastClickedAt = latestTimestamp(rows, func(r *models.NotificationLog) *time.Time { return r.ClickedAt })

	return summary, nil
}

// GlobalSummary aggregates every trigger and campaign combined, plus the raw
// status distribution and column-presence counts.
func (s *MetricsService) GlobalSummary(ctx context.Context) (*models.GlobalSummary, error) {
	rows, err := s.logRepo.FindAll(ctx)
	if err != nil {
		return nil, &DependencyError{Op: "scan notification logs", Err: err}
	}

	now := time.Now()
	summary := &models.GlobalSummary{
		Last24h:            countEvents(rows, now.Add(-24*time.Hour)),
		Last7d:             countEvents(rows, now.AddDate(0, 0, -7)),
		Last30d:            countEvents(rows, now.AddDate(0, 0, -30)),
		Total:              countEventsTotal(rows),
		StatusDistribution: make(map[string]int),
		FieldPresence:      make(map[string]int),
	}

	for _, row := range rows {
		summary.StatusDistribution[string(row.Status)]++

		presence := map[string]bool{
			"sentAt":          row.SentAt != nil,
			"deliveredAt":     row.DeliveredAt != nil,
			"openedAt":        row.OpenedAt != nil,
			"clickedAt":       row.ClickedAt != nil,
			"dismissedAt":     row.DismissedAt != nil,
			"errorMessage":    row.ErrorMessage != "",
			"triggerKey":      row.TriggerKey != "",
			"campaignId":      row.CampaignID != nil,
			"recipientUserId": row.RecipientUserID != "",
		}
		for field, present := range presence {
			if present {
				summary.FieldPresence[field]++
			}
		}
	}

	return summary, nil
}

// countEvents tallies rows for one window boundary.
//
// The sent/delivered/opened/clicked/dismissed buckets count milestone
// occurrence by milestone timestamp, so one row may land in several buckets.
// The failed bucket reflects the row's current status, by attempt time.
func countEvents(rows []*models.NotificationLog, since time.Time) models.EventCounts {
	var counts models.EventCounts
	for _, row := range rows {
		if within(row.SentAt, since) {
			counts.Sent++
		}
		if within(row.DeliveredAt, since) {
			counts.Delivered++
		}
		if within(row.OpenedAt, since) {
			counts.Opened++
		}
		if within(row.ClickedAt, since) {
			counts.Clicked++
		}
		if within(row.DismissedAt, since) {
			counts.Dismissed++
		}
		if row.Status == models.NotificationFailed && !row.CreatedAt.Before(since) {
			counts.Failed++
		}
	}
	return counts
}

// countEventsTotal tallies the unbounded window.
func countEventsTotal(rows []*models.NotificationLog) models.EventCounts {
	var counts models.EventCounts
	for _, row := range rows {
		if row.SentAt != nil {
			counts.Sent++
		}
		if row.DeliveredAt != nil {
			counts.Delivered++
		}
		if row.OpenedAt != nil {
			counts.Opened++
		}
		if row.ClickedAt != nil {
			counts.Clicked++
		}
		if row.DismissedAt != nil {
			counts.Dismissed++
		}
		if row.Status == models.NotificationFailed {
			counts.Failed++
		}
	}
	return counts
}

func within(ts *time.Time, since time.Time) bool {
	return ts != nil && !ts.Before(since)
}

func latestTimestamp(rows []*models.NotificationLog, extract func(*models.NotificationLog) *time.Time) *time.Time {
	var latest *time.Time
	for _, row := range rows {
		ts := extract(row)
		if ts == nil {
			continue
		}
		if latest == nil || ts.After(*latest) {
			latest = ts
		}
	}
	return latest
}
