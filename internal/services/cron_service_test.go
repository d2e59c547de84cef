package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloapp/pushops-backend/internal/config"
	"github.com/veloapp/pushops-backend/internal/models"
)

type cronFixture struct {
	triggerRepo  *memTriggerRepo
	campaignRepo *memCampaignRepo
	healthRepo   *memHealthRepo
	userRepo     *memUserRepo
	tokenRepo    *memTokenRepo
	logRepo      *memLogRepo
	gateway      *fakeGateway
	triggers     *TriggerService
	campaigns    *CampaignService
	svc          *CronService
}

func newCronFixture(t *testing.T, cfg *config.Config) *cronFixture {
	if cfg == nil {
		cfg = &config.Config{Cron: config.CronConfig{HealthHistoryLimit: 10}}
	}
	f := &cronFixture{
		triggerRepo:  &memTriggerRepo{},
		campaignRepo: &memCampaignRepo{},
		healthRepo:   &memHealthRepo{},
		userRepo:     &memUserRepo{},
		tokenRepo:    &memTokenRepo{},
		logRepo:      &memLogRepo{},
		gateway:      newFakeGateway(),
	}
	f.triggers = NewTriggerService(f.triggerRepo, f.userRepo, f.tokenRepo, f.logRepo, f.gateway)
	require.NoError(t, f.triggers.SeedCatalog(context.Background()))
	segments := NewSegmentService(f.userRepo, f.tokenRepo)
	f.campaigns = NewCampaignService(f.campaignRepo, f.logRepo, f.tokenRepo, segments, f.gateway)
	f.svc = NewCronService(f.triggerRepo, f.campaignRepo, f.healthRepo, f.triggers, f.campaigns, cfg)
	return f
}

func (f *cronFixture) addDueCampaign(t *testing.T) *models.Campaign {
	campaign := scheduledCampaign()
	require.NoError(t, f.campaigns.Create(context.Background(), campaign))
	return campaign
}

func TestRunCycleHappyPath(t *testing.T) {
	f := newCronFixture(t, nil)
	user := f.userRepo.add(&models.User{Plan: "pro", PushEnabled: true, IsActive: true})
	f.tokenRepo.add(user.ID, "tok-1")
	campaign := f.addDueCampaign(t)

	record, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.True(t, record.Success)
	assert.Equal(t, len(TriggerCatalog()), record.TriggersProcessed)
	assert.Equal(t, len(TriggerCatalog()), record.TriggersTotal)
	assert.Equal(t, 1, record.CampaignsProcessed)

	stored, _ := f.campaignRepo.FindByID(context.Background(), campaign.ID)
	assert.Equal(t, models.CampaignSent, stored.Status)

	// Missing webhook is reported as an informational issue, not a failure.
	require.Len(t, record.Issues, 1)
	assert.Equal(t, models.SeverityInfo, record.Issues[0].Severity)
}

func TestRunCycleSkipsInactiveTriggers(t *testing.T) {
	f := newCronFixture(t, nil)
	require.NoError(t, f.triggers.SetActive(context.Background(), "inactivity_winback", false))

	record, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.True(t, record.Success)
	assert.Equal(t, len(TriggerCatalog())-1, record.TriggersProcessed)
	assert.Equal(t, len(TriggerCatalog()), record.TriggersTotal)
}

func TestRunCycleIsolatesTriggerFailures(t *testing.T) {
	f := newCronFixture(t, nil)
	f.triggers.catalog["boom"] = TriggerDefinition{
		Key: "boom",
		Evaluate: func(ctx context.Context, deps TriggerDeps, settings TriggerSettings, now time.Time) ([]TriggerCandidate, error) {
			panic("condition blew up")
		},
	}
	require.NoError(t, f.triggerRepo.Upsert(context.Background(), &models.Trigger{Key: "boom", IsActive: true}))

	record, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.False(t, record.Success)
	assert.Equal(t, len(TriggerCatalog()), record.TriggersProcessed) // healthy triggers still ran

	var errorIssues int
	for _, issue := range record.Issues {
		if issue.Severity == models.SeverityError {
			errorIssues++
		}
	}
	assert.Equal(t, 1, errorIssues)
}

func TestRunCycleConcurrentExecuteIsNoOp(t *testing.T) {
	f := newCronFixture(t, nil)
	campaign := f.addDueCampaign(t)

	// Another invocation already moved the campaign past SCHEDULED.
	_, err := f.campaigns.Execute(context.Background(), campaign.ID)
	require.NoError(t, err)

	record, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.True(t, record.Success)
	assert.Equal(t, 0, record.CampaignsProcessed)
}

func TestRunCycleRetentionBound(t *testing.T) {
	cfg := &config.Config{Cron: config.CronConfig{HealthHistoryLimit: 3}}
	f := newCronFixture(t, cfg)

	for i := 0; i < 6; i++ {
		_, err := f.svc.RunCycle(context.Background())
		require.NoError(t, err)
	}

	records, err := f.svc.RecentHealth(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRunCycleConsecutiveFailureWarning(t *testing.T) {
	f := newCronFixture(t, nil)

	// Two failed cycles already on record.
	for i := 0; i < 2; i++ {
		require.NoError(t, f.healthRepo.Create(context.Background(), &models.CronHealthRecord{
			Timestamp: time.Now().Add(-time.Duration(i+1) * time.Minute),
			Success:   false,
		}))
	}

	f.triggers.catalog["boom"] = TriggerDefinition{
		Key: "boom",
		Evaluate: func(ctx context.Context, deps TriggerDeps, settings TriggerSettings, now time.Time) ([]TriggerCandidate, error) {
			panic("still broken")
		},
	}
	require.NoError(t, f.triggerRepo.Upsert(context.Background(), &models.Trigger{Key: "boom", IsActive: true}))

	record, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)

	assert.False(t, record.Success)
	var hasStreakWarning bool
	for _, issue := range record.Issues {
		if issue.Severity == models.SeverityWarning {
			hasStreakWarning = true
		}
	}
	assert.True(t, hasStreakWarning, "expected a consecutive-failure warning, got %v", record.Issues)
}

func TestRecentHealthNewestFirst(t *testing.T) {
	f := newCronFixture(t, nil)

	for i := 0; i < 3; i++ {
		_, err := f.svc.RunCycle(context.Background())
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	records, err := f.svc.RecentHealth(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[0].Timestamp.After(records[2].Timestamp))
}
