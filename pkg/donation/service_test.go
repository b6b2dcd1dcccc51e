package donation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/lifelink-health/platform/pkg/common/models"
	"github.com/lifelink-health/platform/pkg/donor"
	"github.com/lifelink-health/platform/pkg/geo"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/lifelink-health/platform/pkg/notification"
	"github.com/lifelink-health/platform/pkg/observability/metrics"
	"github.com/lifelink-health/platform/pkg/request"
	"github.com/lifelink-health/platform/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, eventType, _ string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]models.MatchSummary
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]models.MatchSummary)}
}

func (c *mapCache) Put(_ context.Context, summary models.MatchSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[summary.RequestID] = summary
	return nil
}

func (c *mapCache) Get(_ context.Context, id string) (*models.MatchSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	if !ok {
		return nil, storage.ErrCacheMiss
	}
	return &s, nil
}

func (c *mapCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *mapCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

type failingAcceptor struct {
	err error
}

func (a failingAcceptor) Accept(context.Context, string, string, string, *request.AcceptedMatch) error {
	return a.err
}

type fixture struct {
	svc       *Service
	donors    *donor.MemoryStore
	requests  *request.MemoryStore
	notes     *notification.MemoryStore
	publisher *recordingPublisher
	cache     *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger.Discard()

	f := &fixture{
		donors:    donor.NewMemoryStore(),
		requests:  request.NewMemoryStore(),
		notes:     notification.NewMemoryStore(),
		publisher: &recordingPublisher{},
		cache:     newMapCache(),
	}
	engine := matching.NewEngine(geo.DefaultCatalog(), matching.DefaultBloodMaxDistanceKm, matching.DefaultOrganMaxDistanceKm)
	f.svc = NewService(Stores{Donors: f.donors, Requests: f.requests, Notifications: f.notes}, engine, notification.NewNotifier()).
		WithCache(f.cache).
		WithPublisher(f.publisher).
		WithMetrics(metrics.New(prometheus.NewRegistry()))
	return f
}

func (f *fixture) register(t *testing.T, name, city, bloodType string, organs []string, available bool) *donor.Record {
	t.Helper()
	rec, err := f.svc.RegisterDonor(context.Background(), RegisterDonorInput{
		Name:      name,
		City:      city,
		BloodType: bloodType,
		Organs:    organs,
		Available: &available,
	})
	require.NoError(t, err)
	return rec
}

func TestSubmitBloodRequestNotifiesNearbyDonor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	delhi := f.register(t, "Priya", "Delhi", "O-", nil, true)
	f.register(t, "Rohit", "Mumbai", "O+", nil, true)

	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{
		PatientName:   "Asha",
		City:          "Delhi",
		Type:          "blood",
		BloodType:     "O+",
		MaxDistanceKm: 50,
	})
	require.NoError(t, err)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, delhi.ID, result.Candidates[0].DonorID)
	assert.Equal(t, 0.0, result.Candidates[0].DistanceKm)
	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, matching.RequestStatusActive, result.Request.Status)
	assert.Equal(t, 1, result.Request.Quantity)

	inbox, err := f.svc.DonorInbox(ctx, delhi.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, result.Request.ID, inbox[0].RequestID)
	assert.Equal(t, notification.StatusPending, inbox[0].Status)
	assert.Equal(t, "Urgent request for blood donation", inbox[0].Message)

	assert.Equal(t, []string{models.EventRequestMatched}, f.publisher.events)

	cached, err := f.svc.Matches(ctx, result.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Candidates, cached.Candidates)
}

func TestSubmitOrganRequestWithNoMatchesIsNotAnError(t *testing.T) {
	f := newFixture(t)

	f.register(t, "Kavya", "Mumbai", "", []string{"Kidney"}, true)

	result, err := f.svc.SubmitRequest(context.Background(), SubmitRequestInput{
		City:  "Mumbai",
		Type:  "organ",
		Organ: "Heart",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Zero(t, result.Notified)
	assert.Contains(t, result.Message, "No compatible donors")
}

func TestSubmitRejectsMalformedRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Delhi", Type: "blood"})
	require.Error(t, err)
	assert.True(t, matching.IsValidationError(err))
	assert.ErrorIs(t, err, matching.ErrInvalidRequest)

	_, err = f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Delhi", Type: "plasma"})
	assert.ErrorIs(t, err, matching.ErrInvalidRequest)

	list, err := f.svc.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "invalid requests are not persisted")
}

func TestRegisterDonorValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []RegisterDonorInput{
		{City: "Delhi", BloodType: "A+"},
		{Name: "X", BloodType: "A+"},
		{Name: "X", City: "Delhi"},
		{Name: "X", City: "Delhi", BloodType: "Q+"},
		{Name: "X", City: "Delhi", BloodType: "A+", LastDonation: "yesterday"},
		{Name: "X", City: "Delhi", BloodType: "A+", Age: -1},
	}
	for _, in := range cases {
		_, err := f.svc.RegisterDonor(ctx, in)
		assert.True(t, matching.IsValidationError(err), "%+v", in)
	}

	rec, err := f.svc.RegisterDonor(ctx, RegisterDonorInput{
		Name:         "Meera",
		City:         "Pune",
		BloodType:    "b-",
		Organs:       []string{"kidney", "Kidney", " ", "cornea"},
		LastDonation: "2024-11-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "B-", rec.BloodType)
	assert.Equal(t, []string{"Kidney", "Cornea"}, []string(rec.Organs))
	assert.True(t, rec.Available)
	require.NotNil(t, rec.LastDonation)
}

func TestAcceptNotificationClosesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.register(t, "A", "Mumbai", "", []string{"Kidney"}, true)
	second := f.register(t, "B", "Thane", "", []string{"Kidney"}, true)

	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Mumbai", Type: "organ", Organ: "Kidney"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Notified)
	assert.Equal(t, first.ID, result.Candidates[0].DonorID)

	inbox, err := f.svc.DonorInbox(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	require.True(t, f.cache.has(result.Request.ID))
	match, err := f.svc.AcceptNotification(ctx, second.ID, result.Request.ID, inbox[0].ID)
	require.NoError(t, err)
	assert.Equal(t, request.MatchStatusMatched, match.Status)
	assert.False(t, f.cache.has(result.Request.ID), "accepted request keeps no cached summary")

	status, err := f.svc.RequestStatus(ctx, result.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.RequestStatusMatched, status.Request.Status)
	require.NotNil(t, status.MatchedDonor)
	assert.Equal(t, second.ID, status.MatchedDonor.ID)

	inbox, err = f.svc.DonorInbox(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusAccepted, inbox[0].Status)

	firstInbox, err := f.svc.DonorInbox(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptNotification(ctx, first.ID, result.Request.ID, firstInbox[0].ID)
	assert.ErrorIs(t, err, request.ErrRequestClosed)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Donors)
	assert.Equal(t, 1, stats.TotalRequests)
	assert.Equal(t, 0, stats.ActiveRequests)
	assert.Equal(t, 1, stats.Matches)

	assert.Equal(t, []string{models.EventRequestMatched, models.EventRequestAccepted}, f.publisher.events)
}

func TestAcceptRejectsForeignNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.register(t, "A", "Delhi", "O-", nil, true)
	other := f.register(t, "B", "Delhi", "", []string{"Liver"}, true)

	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Delhi", Type: "blood", BloodType: "A+"})
	require.NoError(t, err)
	inbox, err := f.svc.DonorInbox(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	_, err = f.svc.AcceptNotification(ctx, other.ID, result.Request.ID, inbox[0].ID)
	assert.ErrorIs(t, err, notification.ErrNotFound)

	_, err = f.svc.AcceptNotification(ctx, owner.ID, "missing", inbox[0].ID)
	assert.ErrorIs(t, err, request.ErrNotFound)

	_, err = f.svc.AcceptNotification(ctx, owner.ID, result.Request.ID, "missing")
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestRematchOnlyNotifiesNewDonors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "A", "Chennai", "AB-", nil, true)
	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Chennai", Type: "blood", BloodType: "AB+"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Notified)

	f.register(t, "B", "Chennai", "O+", nil, true)
	f.register(t, "C", "Chennai", "O+", nil, false)

	again, err := f.svc.RematchRequest(ctx, result.Request.ID)
	require.NoError(t, err)
	assert.Len(t, again.Candidates, 2)
	assert.Equal(t, 1, again.Notified)

	notes, err := f.notes.ListByRequest(ctx, result.Request.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestMatchesFallsBackToNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.WithCache(nil)

	d := f.register(t, "A", "Jaipur", "A+", nil, true)
	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Jaipur", Type: "blood", BloodType: "A+"})
	require.NoError(t, err)

	summary, err := f.svc.Matches(ctx, result.Request.ID)
	require.NoError(t, err)
	require.Len(t, summary.Candidates, 1)
	assert.Equal(t, d.ID, summary.Candidates[0].DonorID)
	assert.Equal(t, "Jaipur", summary.Candidates[0].City)

	_, err = f.svc.Matches(ctx, "missing")
	assert.ErrorIs(t, err, request.ErrNotFound)
}

func TestPublishFailureDoesNotFailSubmit(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	f.register(t, "A", "Patna", "O-", nil, true)
	result, err := f.svc.SubmitRequest(context.Background(), SubmitRequestInput{City: "Patna", Type: "blood", BloodType: "B+"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notified)
}

func TestDonorInboxUnknownDonor(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.DonorInbox(context.Background(), "missing")
	assert.ErrorIs(t, err, donor.ErrNotFound)
}

func TestAcceptFailureLeavesNoMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := matching.NewEngine(geo.DefaultCatalog(), 0, 0)
	f.svc = NewService(Stores{
		Donors:        f.donors,
		Requests:      f.requests,
		Notifications: f.notes,
		Acceptor:      failingAcceptor{err: errors.New("tx aborted")},
	}, engine, notification.NewNotifier()).WithPublisher(f.publisher)

	d := f.register(t, "A", "Lucknow", "O-", nil, true)
	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Lucknow", Type: "blood", BloodType: "O-"})
	require.NoError(t, err)
	inbox, err := f.svc.DonorInbox(ctx, d.ID)
	require.NoError(t, err)

	_, err = f.svc.AcceptNotification(ctx, d.ID, result.Request.ID, inbox[0].ID)
	require.Error(t, err)

	status, err := f.svc.RequestStatus(ctx, result.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.RequestStatusActive, status.Request.Status)
	assert.Equal(t, notification.StatusPending, status.Notifications[0].Status)
	assert.Equal(t, []string{models.EventRequestMatched}, f.publisher.events)
}

func TestSetDonorAvailabilityExcludesDonorFromMatching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.register(t, "A", "Bangalore", "B+", nil, true)
	rec, err := f.svc.SetDonorAvailability(ctx, d.ID, false)
	require.NoError(t, err)
	assert.False(t, rec.Available)

	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Bangalore", Type: "blood", BloodType: "B+"})
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)

	_, err = f.svc.SetDonorAvailability(ctx, d.ID, true)
	require.NoError(t, err)
	again, err := f.svc.RematchRequest(ctx, result.Request.ID)
	require.NoError(t, err)
	require.Len(t, again.Candidates, 1)
	assert.Equal(t, d.ID, again.Candidates[0].DonorID)

	_, err = f.svc.SetDonorAvailability(ctx, "missing", true)
	assert.ErrorIs(t, err, donor.ErrNotFound)
}

func TestMatchesFallbackIsNearestFirstAfterRematch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.WithCache(nil)

	far := f.register(t, "A", "Thane", "", []string{"Liver"}, true)
	result, err := f.svc.SubmitRequest(ctx, SubmitRequestInput{City: "Mumbai", Type: "organ", Organ: "Liver"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Notified)

	near := f.register(t, "B", "Mumbai", "", []string{"Liver"}, true)
	_, err = f.svc.RematchRequest(ctx, result.Request.ID)
	require.NoError(t, err)

	summary, err := f.svc.Matches(ctx, result.Request.ID)
	require.NoError(t, err)
	require.Len(t, summary.Candidates, 2)
	assert.Equal(t, near.ID, summary.Candidates[0].DonorID)
	assert.Equal(t, far.ID, summary.Candidates[1].DonorID)
}
