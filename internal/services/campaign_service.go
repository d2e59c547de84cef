package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"github.com/veloapp/pushops-backend/pkg/pushgateway"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// sendConcurrency bounds the parallel fan-out to the delivery gateway within
// one campaign execution. Sends are independent and idempotency is scoped
// per token.
const sendConcurrency = 8

var validCampaignTypes = map[string]bool{
	"marketing":   true,
	"reminder":    true,
	"transaction": true,
	"system":      true,
	"referral":    true,
	"payment":     true,
}

// ExecuteResult summarises one campaign execution.
type ExecuteResult struct {
	TargetUsers int `json:"targetUsers"`
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
}

// CampaignService drives campaigns through their lifecycle and performs the
// send fan-out.
type CampaignService struct {
	campaignRepo repositories.CampaignRepository
	logRepo      repositories.NotificationLogRepository
	tokenRepo    repositories.DeviceTokenRepository
	segments     *SegmentService
	gateway      pushgateway.Gateway
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(
	campaignRepo repositories.CampaignRepository,
	logRepo repositories.NotificationLogRepository,
	tokenRepo repositories.DeviceTokenRepository,
	segments *SegmentService,
	gateway pushgateway.Gateway,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		logRepo:      logRepo,
		tokenRepo:    tokenRepo,
		segments:     segments,
		gateway:      gateway,
	}
}

// Create validates and persists a new campaign. The campaign starts in
// SCHEDULED when scheduledFor is set, DRAFT otherwise.
func (s *CampaignService) Create(ctx context.Context, campaign *models.Campaign) error {
	if err := validateCampaignInput(campaign); err != nil {
		return err
	}

	if campaign.ScheduledFor != nil {
		campaign.Status = models.CampaignScheduled
	} else {
		campaign.Status = models.CampaignDraft
	}
	campaign.TargetUsersCount = 0
	campaign.SentCount = 0
	campaign.DeliveredCount = 0
	campaign.OpenedCount = 0
	campaign.ClickedCount = 0
	campaign.FailedCount = 0
	campaign.SentAt = nil

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return &DependencyError{Op: "create campaign", Err: err}
	}
	return nil
}

// Update mutates a campaign while it is still editable. Terminal campaigns
// and campaigns mid-send are immutable.
func (s *CampaignService) Update(ctx context.Context, id primitive.ObjectID, updated *models.Campaign) (*models.Campaign, error) {
	current, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &DependencyError{Op: "find campaign", Err: err}
	}
	if current.Status != models.CampaignDraft && current.Status != models.CampaignScheduled {
		return nil, NewConflictError("campaign %s is %s and can no longer be updated", id.Hex(), current.Status)
	}
	if err := validateCampaignInput(updated); err != nil {
		return nil, err
	}

	current.Name = updated.Name
	current.Description = updated.Description
	current.CampaignType = updated.CampaignType
	current.Title = updated.Title
	current.Body = updated.Body
	current.ImageURL = updated.ImageURL
	current.Data = updated.Data
	current.Filters = updated.Filters
	current.ScheduledFor = updated.ScheduledFor
	if current.ScheduledFor != nil {
		current.Status = models.CampaignScheduled
	} else {
		current.Status = models.CampaignDraft
	}

	if err := s.campaignRepo.Update(ctx, current); err != nil {
		return nil, &DependencyError{Op: "update campaign", Err: err}
	}
	return current, nil
}

// Execute transitions a scheduled campaign to SENDING and performs the send
// fan-out. The transition is an atomic compare-and-set on the status field;
// a concurrent second execute loses the CAS and becomes a no-op conflict.
// Draft campaigns must be scheduled before they can execute.
func (s *CampaignService) Execute(ctx context.Context, id primitive.ObjectID) (*ExecuteResult, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &DependencyError{Op: "find campaign", Err: err}
	}

	switch campaign.Status {
	case models.CampaignScheduled:
		// Eligible.
	case models.CampaignDraft:
		return nil, NewConflictError("campaign %s is a draft; schedule it before executing", id.Hex())
	case models.CampaignSending:
		return nil, NewConflictError("campaign %s is already sending", id.Hex())
	default:
		return nil, NewConflictError("campaign %s is %s and cannot be executed", id.Hex(), campaign.Status)
	}

	won, err := s.campaignRepo.CompareAndSetStatus(ctx, id, models.CampaignScheduled, models.CampaignSending)
	if err != nil {
		return nil, &DependencyError{Op: "transition campaign to sending", Err: err}
	}
	if !won {
		return nil, NewConflictError("campaign %s execute lost to a concurrent attempt", id.Hex())
	}

	return s.sendCampaign(ctx, campaign)
}

// sendCampaign runs the post-CAS send phase. Individual send failures are
// counted and logged but never abort the remaining sends; only a failure to
// attempt anything at all marks the campaign FAILED. Zero resolvable
// recipients is a successful send of zero messages.
func (s *CampaignService) sendCampaign(ctx context.Context, campaign *models.Campaign) (*ExecuteResult, error) {
	resolution, err := s.segments.Resolve(ctx, campaign.Filters, models.ResolveFull)
	if err != nil {
		if updErr := s.campaignRepo.UpdateStatus(ctx, campaign.ID, models.CampaignFailed, nil); updErr != nil {
			log.Printf("[ERROR] campaign %s: failed to mark FAILED: %v", campaign.ID.Hex(), updErr)
		}
		return nil, err
	}

	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sendConcurrency)
	for _, token := range resolution.Tokens {
		token := token
		g.Go(func() error {
			s.sendToToken(gctx, campaign, token, &sent, &failed)
			return nil
		})
	}
	_ = g.Wait()

	// Log rows are written inside the fan-out; counters are persisted after,
	// so readers may see counters lag raw logs but never the reverse.
	if err := s.campaignRepo.IncrementSendCounters(ctx, campaign.ID, resolution.Counts.Users, int(sent.Load()), int(failed.Load())); err != nil {
		log.Printf("[ERROR] campaign %s: failed to persist counters: %v", campaign.ID.Hex(), err)
	}

	now := time.Now()
	if err := s.campaignRepo.UpdateStatus(ctx, campaign.ID, models.CampaignSent, &now); err != nil {
		return nil, &DependencyError{Op: "mark campaign sent", Err: err}
	}

	return &ExecuteResult{
		TargetUsers: resolution.Counts.Users,
		Sent:        int(sent.Load()),
		Failed:      int(failed.Load()),
	}, nil
}

func (s *CampaignService) sendToToken(ctx context.Context, campaign *models.Campaign, token models.DeviceToken, sent, failed *atomic.Int64) {
	entry := &models.NotificationLog{
		RecipientUserID: token.UserID.Hex(),
		DeviceToken:     token.Token,
		Type:            campaign.CampaignType,
		Title:           campaign.Title,
		Body:            campaign.Body,
		CampaignID:      &campaign.ID,
	}

	deliveryID, err := s.gateway.Send(ctx, token.Token, campaign.Title, campaign.Body, campaign.Data)
	if err != nil {
		failed.Add(1)
		entry.Status = models.NotificationFailed
		entry.ErrorMessage = err.Error()

		var sendErr *pushgateway.SendError
		if errors.As(err, &sendErr) && !sendErr.Transient {
			if deactErr := s.tokenRepo.DeactivateByToken(ctx, token.Token); deactErr != nil {
				log.Printf("[WARN] failed to deactivate rejected token: %v", deactErr)
			}
		}
	} else {
		sent.Add(1)
		now := time.Now()
		entry.Status = models.NotificationSent
		entry.SentAt = &now
		entry.DeliveryID = deliveryID
	}

	if err := s.logRepo.Create(ctx, entry); err != nil {
		log.Printf("[ERROR] campaign %s: failed to write notification log: %v", campaign.ID.Hex(), err)
	}
}

// Cancel stops a DRAFT or SCHEDULED campaign. A campaign mid-send runs to
// completion and cannot be cancelled.
func (s *CampaignService) Cancel(ctx context.Context, id primitive.ObjectID) error {
	for _, from := range []models.CampaignStatus{models.CampaignScheduled, models.CampaignDraft} {
		won, err := s.campaignRepo.CompareAndSetStatus(ctx, id, from, models.CampaignCancelled)
		if err != nil {
			return &DependencyError{Op: "cancel campaign", Err: err}
		}
		if won {
			return nil
		}
	}

	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return &DependencyError{Op: "find campaign", Err: err}
	}
	return NewConflictError("campaign %s is %s and cannot be cancelled", id.Hex(), campaign.Status)
}

// GetByID retrieves one campaign
func (s *CampaignService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	return s.campaignRepo.FindByID(ctx, id)
}

// List retrieves campaigns with pagination
func (s *CampaignService) List(ctx context.Context, page, limit int) ([]*models.Campaign, error) {
	return s.campaignRepo.FindAll(ctx, page, limit)
}

// Count counts all campaigns
func (s *CampaignService) Count(ctx context.Context) (int64, error) {
	return s.campaignRepo.Count(ctx)
}

// PreviewAudience estimates the audience size of a filter without fan-out
func (s *CampaignService) PreviewAudience(ctx context.Context, filter models.SegmentFilter) (*models.SegmentResolution, error) {
	return s.segments.Resolve(ctx, filter, models.ResolvePreview)
}

func validateCampaignInput(campaign *models.Campaign) error {
	if len(strings.TrimSpace(campaign.Name)) < 3 {
		return NewValidationError("campaign name must be at least 3 characters")
	}
	if strings.TrimSpace(campaign.Title) == "" {
		return NewValidationError("campaign title is required")
	}
	if strings.TrimSpace(campaign.Body) == "" {
		return NewValidationError("campaign body is required")
	}
	if !validCampaignTypes[campaign.CampaignType] {
		return NewValidationError("invalid campaign type %q", campaign.CampaignType)
	}
	return nil
}
