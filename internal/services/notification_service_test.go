package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloapp/pushops-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGatewayEventUpdatesLogAndCampaign(t *testing.T) {
	logRepo := &memLogRepo{}
	campaignRepo := &memCampaignRepo{}
	svc := NewNotificationService(logRepo, campaignRepo)
	ctx := context.Background()

	campaign := &models.Campaign{Name: "c", Status: models.CampaignSent}
	require.NoError(t, campaignRepo.Create(ctx, campaign))

	sent := time.Now().Add(-time.Minute)
	require.NoError(t, logRepo.Create(ctx, &models.NotificationLog{
		CampaignID: &campaign.ID,
		DeliveryID: "d-1",
		Status:     models.NotificationSent,
		SentAt:     &sent,
	}))

	at := time.Now()
	entry, err := svc.HandleGatewayEvent(ctx, "d-1", "delivered", at)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationDelivered, entry.Status)
	require.NotNil(t, entry.DeliveredAt)

	stored, _ := campaignRepo.FindByID(ctx, campaign.ID)
	assert.Equal(t, 1, stored.DeliveredCount)

	// Opened afterwards keeps the delivered timestamp and bumps opens.
	entry, err = svc.HandleGatewayEvent(ctx, "d-1", "opened", at.Add(time.Minute))
	require.NoError(t, err)
	assert.NotNil(t, entry.DeliveredAt)
	assert.NotNil(t, entry.OpenedAt)

	stored, _ = campaignRepo.FindByID(ctx, campaign.ID)
	assert.Equal(t, 1, stored.OpenedCount)
}

func TestGatewayEventForTriggerRowSkipsCampaignCounters(t *testing.T) {
	logRepo := &memLogRepo{}
	campaignRepo := &memCampaignRepo{}
	svc := NewNotificationService(logRepo, campaignRepo)
	ctx := context.Background()

	sent := time.Now()
	require.NoError(t, logRepo.Create(ctx, &models.NotificationLog{
		TriggerKey: "inactivity_winback",
		DeliveryID: "d-2",
		Status:     models.NotificationSent,
		SentAt:     &sent,
	}))

	entry, err := svc.HandleGatewayEvent(ctx, "d-2", "clicked", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.NotificationClicked, entry.Status)
	assert.NotNil(t, entry.ClickedAt)
}

func TestGatewayEventDismissedNoCounter(t *testing.T) {
	logRepo := &memLogRepo{}
	campaignRepo := &memCampaignRepo{}
	svc := NewNotificationService(logRepo, campaignRepo)
	ctx := context.Background()

	campaign := &models.Campaign{Name: "c", Status: models.CampaignSent}
	require.NoError(t, campaignRepo.Create(ctx, campaign))
	sent := time.Now()
	require.NoError(t, logRepo.Create(ctx, &models.NotificationLog{
		CampaignID: &campaign.ID,
		DeliveryID: "d-3",
		Status:     models.NotificationSent,
		SentAt:     &sent,
	}))

	entry, err := svc.HandleGatewayEvent(ctx, "d-3", "dismissed", time.Now())
	require.NoError(t, err)
	assert.NotNil(t, entry.DismissedAt)

	stored, _ := campaignRepo.FindByID(ctx, campaign.ID)
	assert.Equal(t, 0, stored.DeliveredCount)
	assert.Equal(t, 0, stored.OpenedCount)
	assert.Equal(t, 0, stored.ClickedCount)
}

func TestGatewayEventValidation(t *testing.T) {
	svc := NewNotificationService(&memLogRepo{}, &memCampaignRepo{})

	_, err := svc.HandleGatewayEvent(context.Background(), "d-1", "bounced", time.Now())
	assert.True(t, IsValidation(err))

	_, err = svc.HandleGatewayEvent(context.Background(), "", "delivered", time.Now())
	assert.True(t, IsValidation(err))
}

func TestGatewayEventUnknownDeliveryID(t *testing.T) {
	svc := NewNotificationService(&memLogRepo{}, &memCampaignRepo{})

	_, err := svc.HandleGatewayEvent(context.Background(), primitive.NewObjectID().Hex(), "delivered", time.Now())
	require.Error(t, err)
	assert.False(t, IsValidation(err))
}
