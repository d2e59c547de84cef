package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/veloapp/pushops-backend/internal/config"
	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
)

// consecutiveFailureThreshold is the streak length that raises a warning
// issue on top of the individual cycle failures.
const consecutiveFailureThreshold = 3

// CronService wraps one scheduler invocation of the trigger runner and the
// campaign dispatcher, and keeps a bounded rolling health history.
type CronService struct {
	triggerRepo  repositories.TriggerRepository
	campaignRepo repositories.CampaignRepository
	healthRepo   repositories.CronHealthRepository
	triggers     *TriggerService
	campaigns    *CampaignService

	alertWebhookURL string
	historyLimit    int
	httpClient      *http.Client
}

// NewCronService creates a new CronService
func NewCronService(
	triggerRepo repositories.TriggerRepository,
	campaignRepo repositories.CampaignRepository,
	healthRepo repositories.CronHealthRepository,
	triggers *TriggerService,
	campaigns *CampaignService,
	cfg *config.Config,
) *CronService {
	limit := cfg.Cron.HealthHistoryLimit
	if limit <= 0 {
		limit = 50
	}
	return &CronService{
		triggerRepo:     triggerRepo,
		campaignRepo:    campaignRepo,
		healthRepo:      healthRepo,
		triggers:        triggers,
		campaigns:       campaigns,
		alertWebhookURL: cfg.Alert.WebhookURL,
		historyLimit:    limit,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RunCycle performs one full scheduler cycle: every active trigger, then
// every due campaign, sequentially. Each trigger and each campaign is an
// independent failure domain; their errors become issues on the health
// record instead of aborting the cycle.
func (s *CronService) RunCycle(ctx context.Context) (*models.CronHealthRecord, error) {
	now := time.Now()
	success := true
	var issues []models.HealthIssue

	triggers, err := s.triggerRepo.FindAll(ctx)
	if err != nil {
		success = false
		issues = append(issues, models.HealthIssue{
			Message:  fmt.Sprintf("failed to list triggers: %v", err),
			Severity: models.SeverityError,
		})
	}

	triggersProcessed := 0
	for _, trigger := range triggers {
		if !trigger.IsActive {
			continue
		}
		if _, runErr := s.triggers.Run(ctx, trigger, now); runErr != nil {
			success = false
			issues = append(issues, models.HealthIssue{
				Message:  fmt.Sprintf("trigger %s failed: %v", trigger.Key, runErr),
				Severity: models.SeverityError,
			})
			continue
		}
		triggersProcessed++
	}

	campaignsProcessed := 0
	due, err := s.campaignRepo.FindDue(ctx, now)
	if err != nil {
		success = false
		issues = append(issues, models.HealthIssue{
			Message:  fmt.Sprintf("failed to list due campaigns: %v", err),
			Severity: models.SeverityError,
		})
	}
	for _, campaign := range due {
		_, execErr := s.campaigns.Execute(ctx, campaign.ID)
		if execErr != nil {
			// Losing the compare-and-set means another invocation is already
			// sending this campaign; that is a no-op, not a failure.
			if IsConflict(execErr) {
				continue
			}
			success = false
			issues = append(issues, models.HealthIssue{
				Message:  fmt.Sprintf("campaign %s execute failed: %v", campaign.ID.Hex(), execErr),
				Severity: models.SeverityError,
			})
			continue
		}
		campaignsProcessed++
	}

	if !success {
		if streak := s.failureStreak(ctx) + 1; streak >= consecutiveFailureThreshold {
			issues = append(issues, models.HealthIssue{
				Message:  fmt.Sprintf("%d consecutive failed cycles", streak),
				Severity: models.SeverityWarning,
			})
		}
	}

	if s.alertWebhookURL == "" {
		issues = append(issues, models.HealthIssue{
			Message:  "alert webhook not configured; alerting inactive",
			Severity: models.SeverityInfo,
		})
	} else if !success {
		if alertErr := s.sendAlert(ctx, now, issues); alertErr != nil {
			issues = append(issues, models.HealthIssue{
				Message:  fmt.Sprintf("alert webhook delivery failed: %v", alertErr),
				Severity: models.SeverityWarning,
			})
		}
	}

	record := &models.CronHealthRecord{
		Timestamp:          now,
		Success:            success,
		TriggersProcessed:  triggersProcessed,
		TriggersTotal:      len(triggers),
		CampaignsProcessed: campaignsProcessed,
		Issues:             issues,
	}

	if err := s.healthRepo.Create(ctx, record); err != nil {
		return record, &DependencyError{Op: "persist health record", Err: err}
	}
	if err := s.healthRepo.TrimToLimit(ctx, s.historyLimit); err != nil {
		log.Printf("[WARN] failed to trim cron health history: %v", err)
	}

	return record, nil
}

// RecentHealth retrieves the newest health records for the dashboard.
func (s *CronService) RecentHealth(ctx context.Context, limit int) ([]*models.CronHealthRecord, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.healthRepo.FindRecent(ctx, limit)
}

// failureStreak counts how many of the most recent cycles failed in a row.
func (s *CronService) failureStreak(ctx context.Context) int {
	recent, err := s.healthRepo.FindRecent(ctx, consecutiveFailureThreshold-1)
	if err != nil {
		log.Printf("[WARN] failed to read health history for streak detection: %v", err)
		return 0
	}
	streak := 0
	for _, record := range recent {
		if record.Success {
			break
		}
		streak++
	}
	return streak
}

func (s *CronService) sendAlert(ctx context.Context, at time.Time, issues []models.HealthIssue) error {
	payload := map[string]interface{}{
		"source":    "pushops-cron",
		"timestamp": at.Format(time.RFC3339),
		"issues":    issues,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.alertWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
