package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veloapp/pushops-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the query semantics of the mongodb
// package closely enough for service-level tests.

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func matchSegment(u *models.User, f models.SegmentFilter) bool {
	if !u.IsActive {
		return false
	}
	if len(f.Plans) > 0 && !containsString(f.Plans, u.Plan) {
		return false
	}
	if len(f.Countries) > 0 && !containsString(f.Countries, u.Country) {
		return false
	}
	if f.RespectOptOut && !u.PushEnabled {
		return false
	}
	if f.OnlyMarketingOptIn && !u.MarketingOptIn {
		return false
	}
	if f.OnlyReminderOptIn && !u.ReminderOptIn {
		return false
	}
	if f.OnlyTransactionOptIn && !u.TransactionOptIn {
		return false
	}
	return true
}

type memUserRepo struct {
	mu    sync.Mutex
	users []*models.User
	err   error
}

func (r *memUserRepo) add(u *models.User) *models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users = append(r.users, u)
	return u
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(user)
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (r *memUserRepo) FindAll(ctx context.Context, page, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.User{}, r.users...), nil
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error { return nil }

func (r *memUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *memUserRepo) FindBySegment(ctx context.Context, filter models.SegmentFilter) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	matched := []*models.User{}
	for _, u := range r.users {
		if matchSegment(u, filter) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (r *memUserRepo) CountBySegment(ctx context.Context, filter models.SegmentFilter) (int64, error) {
	users, err := r.FindBySegment(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (r *memUserRepo) FindByPlanExpiringBetween(ctx context.Context, start, end time.Time) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	matched := []*models.User{}
	for _, u := range r.users {
		if !u.IsActive || u.PlanExpiresAt == nil {
			continue
		}
		if u.PlanExpiresAt.After(start) && !u.PlanExpiresAt.After(end) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (r *memUserRepo) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	matched := []*models.User{}
	for _, u := range r.users {
		if !u.IsActive || u.LastSeenAt == nil {
			continue
		}
		if u.LastSeenAt.Before(cutoff) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (r *memUserRepo) FindCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	matched := []*models.User{}
	for _, u := range r.users {
		if !u.IsActive {
			continue
		}
		if u.CreatedAt.After(start) && !u.CreatedAt.After(end) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (r *memUserRepo) SetPushEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u.PushEnabled = enabled
			return nil
		}
	}
	return errors.New("user not found")
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens []models.DeviceToken
}

func (r *memTokenRepo) add(userID primitive.ObjectID, token string) {
	r.tokens = append(r.tokens, models.DeviceToken{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Token:    token,
		Platform: "ios",
		IsActive: true,
	})
}

func (r *memTokenRepo) Upsert(ctx context.Context, token *models.DeviceToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tokens {
		if r.tokens[i].Token == token.Token {
			r.tokens[i].UserID = token.UserID
			r.tokens[i].IsActive = true
			return nil
		}
	}
	if token.ID.IsZero() {
		token.ID = primitive.NewObjectID()
	}
	r.tokens = append(r.tokens, *token)
	return nil
}

func (r *memTokenRepo) FindActiveByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.DeviceToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	matched := []models.DeviceToken{}
	for _, t := range r.tokens {
		if t.IsActive && wanted[t.UserID] {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func (r *memTokenRepo) DeactivateByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tokens {
		if r.tokens[i].Token == token {
			r.tokens[i].IsActive = false
		}
	}
	return nil
}

func (r *memTokenRepo) activeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.IsActive {
			n++
		}
	}
	return n
}

type memCampaignRepo struct {
	mu        sync.Mutex
	campaigns []*models.Campaign
}

func (r *memCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if campaign.ID.IsZero() {
		campaign.ID = primitive.NewObjectID()
	}
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = campaign.CreatedAt
	r.campaigns = append(r.campaigns, campaign)
	return nil
}

func (r *memCampaignRepo) find(id primitive.ObjectID) *models.Campaign {
	for _, c := range r.campaigns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *memCampaignRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.find(id); c != nil {
		copied := *c
		return &copied, nil
	}
	return nil, errors.New("campaign not found")
}

func (r *memCampaignRepo) FindAll(ctx context.Context, page, limit int) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Campaign{}, r.campaigns...), nil
}

func (r *memCampaignRepo) FindDue(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	due := []*models.Campaign{}
	for _, c := range r.campaigns {
		if c.Status == models.CampaignScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			copied := *c
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (r *memCampaignRepo) Update(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.find(campaign.ID); c != nil {
		*c = *campaign
		return nil
	}
	return errors.New("campaign not found")
}

func (r *memCampaignRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.campaigns)), nil
}

func (r *memCampaignRepo) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.CampaignStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (r *memCampaignRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.CampaignStatus, sentAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return errors.New("campaign not found")
	}
	c.Status = status
	if sentAt != nil {
		c.SentAt = sentAt
	}
	return nil
}

func (r *memCampaignRepo) IncrementSendCounters(ctx context.Context, id primitive.ObjectID, targetUsers, sent, failed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return errors.New("campaign not found")
	}
	c.TargetUsersCount += targetUsers
	c.SentCount += sent
	c.FailedCount += failed
	return nil
}

func (r *memCampaignRepo) IncrementEngagement(ctx context.Context, id primitive.ObjectID, field string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return errors.New("campaign not found")
	}
	switch field {
	case "deliveredCount":
		c.DeliveredCount++
	case "openedCount":
		c.OpenedCount++
	case "clickedCount":
		c.ClickedCount++
	}
	return nil
}

type memTriggerRepo struct {
	mu       sync.Mutex
	triggers []*models.Trigger
}

func (r *memTriggerRepo) find(key string) *models.Trigger {
	for _, t := range r.triggers {
		if t.Key == key {
			return t
		}
	}
	return nil
}

func (r *memTriggerRepo) Upsert(ctx context.Context, trigger *models.Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.find(trigger.Key); existing != nil {
		existing.Label = trigger.Label
		existing.Description = trigger.Description
		existing.SettingsMeta = trigger.SettingsMeta
		return nil
	}
	copied := *trigger
	copied.CreatedAt = time.Now()
	r.triggers = append(r.triggers, &copied)
	return nil
}

func (r *memTriggerRepo) FindAll(ctx context.Context) ([]*models.Trigger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Trigger{}, r.triggers...), nil
}

func (r *memTriggerRepo) FindByKey(ctx context.Context, key string) (*models.Trigger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.find(key); t != nil {
		return t, nil
	}
	return nil, errors.New("trigger not found")
}

func (r *memTriggerRepo) UpdateSettings(ctx context.Context, key string, settings map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.find(key); t != nil {
		t.Settings = settings
		return nil
	}
	return errors.New("trigger not found")
}

func (r *memTriggerRepo) SetActive(ctx context.Context, key string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.find(key); t != nil {
		t.IsActive = active
		return nil
	}
	return errors.New("trigger not found")
}

func (r *memTriggerRepo) UpdateLastRun(ctx context.Context, key string, lastRun *models.TriggerLastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.find(key); t != nil {
		t.LastRun = lastRun
		return nil
	}
	return errors.New("trigger not found")
}

type memLogRepo struct {
	mu      sync.Mutex
	entries []*models.NotificationLog
}

func (r *memLogRepo) Create(ctx context.Context, entry *models.NotificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.UpdatedAt = entry.CreatedAt
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memLogRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, errors.New("log entry not found")
}

func (r *memLogRepo) FindByCampaignID(ctx context.Context, campaignID primitive.ObjectID, page, limit int) ([]*models.NotificationLog, error) {
	return r.FindAllByCampaignID(ctx, campaignID)
}

func (r *memLogRepo) FindByTriggerKey(ctx context.Context, triggerKey string, page, limit int) ([]*models.NotificationLog, error) {
	return r.FindAllByTriggerKey(ctx, triggerKey)
}

func (r *memLogRepo) FindByStatus(ctx context.Context, status models.NotificationStatus, page, limit int) ([]*models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*models.NotificationLog{}
	for _, e := range r.entries {
		if e.Status == status {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (r *memLogRepo) FindAllByCampaignID(ctx context.Context, campaignID primitive.ObjectID) ([]*models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*models.NotificationLog{}
	for _, e := range r.entries {
		if e.CampaignID != nil && *e.CampaignID == campaignID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (r *memLogRepo) FindAllByTriggerKey(ctx context.Context, triggerKey string) ([]*models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*models.NotificationLog{}
	for _, e := range r.entries {
		if e.TriggerKey == triggerKey {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (r *memLogRepo) FindAll(ctx context.Context) ([]*models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.NotificationLog{}, r.entries...), nil
}

func (r *memLogRepo) ApplyEvent(ctx context.Context, deliveryID string, status models.NotificationStatus, at time.Time) (*models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.DeliveryID != deliveryID {
			continue
		}
		e.Status = status
		e.UpdatedAt = at
		switch status {
		case models.NotificationDelivered:
			e.DeliveredAt = &at
		case models.NotificationOpened:
			e.OpenedAt = &at
		case models.NotificationClicked:
			e.ClickedAt = &at
		case models.NotificationDismissed:
			e.DismissedAt = &at
		}
		copied := *e
		return &copied, nil
	}
	return nil, errors.New("no log entry for delivery id")
}

func (r *memLogRepo) ExistsForTriggerSince(ctx context.Context, triggerKey, recipientUserID string, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.TriggerKey == triggerKey && e.RecipientUserID == recipientUserID && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLogRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}

type memHealthRepo struct {
	mu      sync.Mutex
	records []*models.CronHealthRecord
}

func (r *memHealthRepo) Create(ctx context.Context, record *models.CronHealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	r.records = append(r.records, record)
	return nil
}

func (r *memHealthRepo) FindRecent(ctx context.Context, limit int) ([]*models.CronHealthRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := append([]*models.CronHealthRecord{}, r.records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (r *memHealthRepo) TrimToLimit(ctx context.Context, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) <= limit {
		return nil
	}
	sort.Slice(r.records, func(i, j int) bool { return r.records[i].Timestamp.After(r.records[j].Timestamp) })
	r.records = r.records[:limit]
	return nil
}

type memAdminRepo struct {
	mu     sync.Mutex
	admins []*models.AdminUser
}

func (r *memAdminRepo) Create(ctx context.Context, adminUser *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if adminUser.ID.IsZero() {
		adminUser.ID = primitive.NewObjectID()
	}
	r.admins = append(r.admins, adminUser)
	return nil
}

func (r *memAdminRepo) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, errors.New("admin user not found")
}

// fakeGateway records sends and fails on request.
type fakeGateway struct {
	mu        sync.Mutex
	sends     []string
	failToken map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failToken: make(map[string]error)}
}

func (g *fakeGateway) Send(ctx context.Context, token, title, body string, data map[string]interface{}) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failToken[token]; ok {
		return "", err
	}
	g.sends = append(g.sends, token)
	return "FAKE-" + uuid.NewString(), nil
}

func (g *fakeGateway) sendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sends)
}
