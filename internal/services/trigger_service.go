package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"github.com/veloapp/pushops-backend/pkg/pushgateway"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RunResult is the uniform outcome of one trigger run.
type RunResult struct {
	SentCount      int                    `json:"sentCount"`
	RecipientCount int                    `json:"recipientCount"`
	Errors         []string               `json:"errors,omitempty"`
	Summary        map[string]interface{} `json:"summary"`
}

// TriggerService evaluates the automation catalog and sends the resulting
// notifications.
type TriggerService struct {
	triggerRepo repositories.TriggerRepository
	userRepo    repositories.UserRepository
	tokenRepo   repositories.DeviceTokenRepository
	logRepo     repositories.NotificationLogRepository
	gateway     pushgateway.Gateway
	catalog     map[string]TriggerDefinition
}

// NewTriggerService creates a new TriggerService
func NewTriggerService(
	triggerRepo repositories.TriggerRepository,
	userRepo repositories.UserRepository,
	tokenRepo repositories.DeviceTokenRepository,
	logRepo repositories.NotificationLogRepository,
	gateway pushgateway.Gateway,
) *TriggerService {
	catalog := make(map[string]TriggerDefinition)
	for _, def := range TriggerCatalog() {
		catalog[def.Key] = def
	}
	return &TriggerService{
		triggerRepo: triggerRepo,
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		logRepo:     logRepo,
		gateway:     gateway,
		catalog:     catalog,
	}
}

// SeedCatalog upserts every catalog definition into the store. Existing
// tunable state is preserved; new triggers start active with defaults.
func (s *TriggerService) SeedCatalog(ctx context.Context) error {
	for _, def := range TriggerCatalog() {
		trigger := &models.Trigger{
			Key:          def.Key,
			Label:        def.Label,
			Description:  def.Description,
			IsActive:     true,
			Settings:     def.DefaultSettings(),
			SettingsMeta: def.Meta,
		}
		if err := s.triggerRepo.Upsert(ctx, trigger); err != nil {
			return fmt.Errorf("failed to seed trigger %s: %w", def.Key, err)
		}
	}
	return nil
}

// List retrieves all triggers with their last-run snapshots
func (s *TriggerService) List(ctx context.Context) ([]*models.Trigger, error) {
	return s.triggerRepo.FindAll(ctx)
}

// GetByKey retrieves one trigger
func (s *TriggerService) GetByKey(ctx context.Context, key string) (*models.Trigger, error) {
	return s.triggerRepo.FindByKey(ctx, key)
}

// SetActive toggles future runs of a trigger. The runner re-checks the flag
// at the start of each cycle; a run already in flight is not interrupted.
func (s *TriggerService) SetActive(ctx context.Context, key string, active bool) error {
	if _, ok := s.catalog[key]; !ok {
		return NewValidationError("unknown trigger %q", key)
	}
	if err := s.triggerRepo.SetActive(ctx, key, active); err != nil {
		return &DependencyError{Op: "set trigger active", Err: err}
	}
	return nil
}

// UpdateSettings validates submitted settings against the trigger's meta and
// persists them. Unknown keys and out-of-bounds numbers are rejected before
// any state change.
func (s *TriggerService) UpdateSettings(ctx context.Context, key string, submitted map[string]interface{}) (*models.Trigger, error) {
	trigger, err := s.triggerRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, &DependencyError{Op: "find trigger", Err: err}
	}

	metaByKey := make(map[string]models.SettingMeta, len(trigger.SettingsMeta))
	for _, meta := range trigger.SettingsMeta {
		metaByKey[meta.Key] = meta
	}

	merged := make(map[string]interface{}, len(trigger.Settings))
	for k, v := range trigger.Settings {
		merged[k] = v
	}

	for k, v := range submitted {
		meta, ok := metaByKey[k]
		if !ok {
			return nil, NewValidationError("unknown setting %q for trigger %s", k, key)
		}
		switch meta.Type {
		case "number":
			num, ok := asFloat(v)
			if !ok {
				return nil, NewValidationError("setting %q must be a number", k)
			}
			if meta.Min != nil && num < *meta.Min {
				return nil, NewValidationError("setting %q must be at least %v", k, *meta.Min)
			}
			if meta.Max != nil && num > *meta.Max {
				return nil, NewValidationError("setting %q must be at most %v", k, *meta.Max)
			}
			merged[k] = num
		case "bool":
			b, ok := v.(bool)
			if !ok {
				return nil, NewValidationError("setting %q must be a boolean", k)
			}
			merged[k] = b
		default:
			return nil, NewValidationError("setting %q has unsupported type %q", k, meta.Type)
		}
	}

	if err := s.triggerRepo.UpdateSettings(ctx, key, merged); err != nil {
		return nil, &DependencyError{Op: "update trigger settings", Err: err}
	}
	trigger.Settings = merged
	return trigger, nil
}

// Run evaluates one trigger's condition, sends to the resulting recipients
// and overwrites the last-run snapshot. Failures, including panics in the
// condition, are contained to this trigger.
func (s *TriggerService) Run(ctx context.Context, trigger *models.Trigger, now time.Time) (result *RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("trigger %s panicked: %v", trigger.Key, r)
		}
	}()

	def, ok := s.catalog[trigger.Key]
	if !ok {
		return nil, fmt.Errorf("trigger %s has no catalog definition", trigger.Key)
	}

	deps := TriggerDeps{Users: s.userRepo, Logs: s.logRepo}
	candidates, err := def.Evaluate(ctx, deps, TriggerSettings(trigger.Settings), now)
	if err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(candidates))
	for _, candidate := range candidates {
		userIDs = append(userIDs, candidate.User.ID)
	}
	tokens, err := s.tokenRepo.FindActiveByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, &DependencyError{Op: "find device tokens", Err: err}
	}
	tokensByUser := make(map[string][]models.DeviceToken)
	for _, token := range tokens {
		uid := token.UserID.Hex()
		tokensByUser[uid] = append(tokensByUser[uid], token)
	}

	result = &RunResult{RecipientCount: len(candidates)}
	for _, candidate := range candidates {
		for _, token := range tokensByUser[candidate.User.ID.Hex()] {
			if s.sendTriggerNotification(ctx, def, candidate, token) {
				result.SentCount++
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("send to user %s failed", candidate.User.ID.Hex()))
			}
		}
	}

	result.Summary = map[string]interface{}{
		"recipients": result.RecipientCount,
		"sent":       result.SentCount,
		"failed":     len(result.Errors),
	}

	lastRun := &models.TriggerLastRun{SentAt: &now, Summary: result.Summary}
	if err := s.triggerRepo.UpdateLastRun(ctx, trigger.Key, lastRun); err != nil {
		log.Printf("[WARN] trigger %s: failed to update lastRun: %v", trigger.Key, err)
	}

	return result, nil
}

// sendTriggerNotification sends one push and writes the log row. Returns
// true on gateway acceptance.
func (s *TriggerService) sendTriggerNotification(ctx context.Context, def TriggerDefinition, candidate TriggerCandidate, token models.DeviceToken) bool {
	entry := &models.NotificationLog{
		RecipientUserID: candidate.User.ID.Hex(),
		DeviceToken:     token.Token,
		Type:            def.Category,
		Title:           candidate.Title,
		Body:            candidate.Body,
		TriggerKey:      def.Key,
	}

	deliveryID, err := s.gateway.Send(ctx, token.Token, candidate.Title, candidate.Body, candidate.Data)
	accepted := err == nil
	if accepted {
		now := time.Now()
		entry.Status = models.NotificationSent
		entry.SentAt = &now
		entry.DeliveryID = deliveryID
	} else {
		entry.Status = models.NotificationFailed
		entry.ErrorMessage = err.Error()
	}

	if logErr := s.logRepo.Create(ctx, entry); logErr != nil {
		log.Printf("[ERROR] trigger %s: failed to write notification log: %v", def.Key, logErr)
	}
	return accepted
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
