package donation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/lifelink-health/platform/pkg/common/models"
	"github.com/lifelink-health/platform/pkg/donor"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/lifelink-health/platform/pkg/notification"
	"github.com/lifelink-health/platform/pkg/observability/metrics"
	"github.com/lifelink-health/platform/pkg/request"
	"github.com/lifelink-health/platform/pkg/storage"
)

const eventSource = "match-service"

type DonorStore interface {
	Create(ctx context.Context, rec *donor.Record) error
	Get(ctx context.Context, id string) (*donor.Record, error)
	List(ctx context.Context) ([]donor.Record, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

type RequestStore interface {
	Create(ctx context.Context, rec *request.Record) error
	Get(ctx context.Context, id string) (*request.Record, error)
	List(ctx context.Context) ([]request.Record, error)
	MarkMatched(ctx context.Context, id, donorID string) error
	CreateMatch(ctx context.Context, m *request.AcceptedMatch) error
	CountMatches(ctx context.Context) (int, error)
}

type NotificationStore interface {
	SaveBatch(ctx context.Context, batch []notification.Notification) error
	Get(ctx context.Context, id string) (*notification.Notification, error)
	ListByDonor(ctx context.Context, donorID string) ([]notification.Notification, error)
	ListByRequest(ctx context.Context, requestID string) ([]notification.Notification, error)
	MarkAccepted(ctx context.Context, id string) error
}

type MatchCache interface {
	Put(ctx context.Context, summary models.MatchSummary) error
	Get(ctx context.Context, requestID string) (*models.MatchSummary, error)
	Invalidate(ctx context.Context, requestID string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Stores bundles the persistence the service needs. Acceptor is optional;
// without it the accept writes run one after another on Requests and
// Notifications.
type Stores struct {
	Donors        DonorStore
	Requests      RequestStore
	Notifications NotificationStore
	Acceptor      Acceptor
}

type Service struct {
	donors        DonorStore
	requests      RequestStore
	notifications NotificationStore
	acceptor      Acceptor
	engine        *matching.Engine
	notifier      *notification.Notifier
	cache         MatchCache
	publisher     EventPublisher
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewService(stores Stores, engine *matching.Engine, notifier *notification.Notifier) *Service {
	acceptor := stores.Acceptor
	if acceptor == nil {
		acceptor = storeAcceptor{requests: stores.Requests, notifications: stores.Notifications}
	}
	return &Service{
		donors:        stores.Donors,
		requests:      stores.Requests,
		notifications: stores.Notifications,
		acceptor:      acceptor,
		engine:        engine,
		notifier:      notifier,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithCache(cache MatchCache) *Service {
	s.cache = cache
	return s
}

func (s *Service) WithPublisher(p EventPublisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

type SubmitResult struct {
	Request    *request.Record        `json:"request"`
	Candidates []models.CandidateView `json:"candidates"`
	Notified   int                    `json:"notified"`
	Message    string                 `json:"message"`
}

type RequestStatusView struct {
	Request       *request.Record             `json:"request"`
	MatchedDonor  *donor.Record               `json:"matched_donor,omitempty"`
	Notifications []notification.Notification `json:"notifications"`
}

func (s *Service) RegisterDonor(ctx context.Context, in RegisterDonorInput) (*donor.Record, error) {
	rec, err := in.toRecord(uuid.New().String(), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.donors.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting donor: %w", err)
	}
	s.metrics.IncDonorsRegistered()

	logger.Log.WithFields(map[string]interface{}{
		"donor_id": rec.ID,
		"city":     rec.City,
	}).Info("donor registered")
	return rec, nil
}

// SubmitRequest stores a new request, matches it against the current donor
// registry and records a pending notification for every candidate.
func (s *Service) SubmitRequest(ctx context.Context, in SubmitRequestInput) (*SubmitResult, error) {
	rec, req, err := in.toRecord(uuid.New().String(), s.now())
	if err != nil {
		s.metrics.ObserveMatch(kindLabel(in.Type), "invalid", 0, time.Now())
		return nil, err
	}
	if err := s.requests.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting request: %w", err)
	}

	candidates, notified, err := s.match(ctx, req)
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		Request:    rec,
		Candidates: candidates,
		Notified:   notified,
		Message:    resultMessage(notified),
	}, nil
}

// RematchRequest runs matching again for an active request. Donors already
// notified for it are not notified twice.
func (s *Service) RematchRequest(ctx context.Context, id string) (*SubmitResult, error) {
	rec, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == matching.RequestStatusMatched {
		return nil, request.ErrRequestClosed
	}
	req, err := rec.ToMatchRequest()
	if err != nil {
		return nil, err
	}

	candidates, notified, err := s.match(ctx, req)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		Request:    rec,
		Candidates: candidates,
		Notified:   notified,
		Message:    resultMessage(notified),
	}, nil
}

func (s *Service) match(ctx context.Context, req matching.Request) ([]models.CandidateView, int, error) {
	start := time.Now()

	records, err := s.donors.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading donors: %w", err)
	}

	candidates, err := s.engine.FindCompatibleDonors(req, donor.MatchDonors(records))
	if err != nil {
		s.metrics.ObserveMatch(string(req.Kind), "invalid", 0, start)
		return nil, 0, err
	}

	existing, err := s.notifications.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("loading notifications: %w", err)
	}
	fresh := withoutNotified(candidates, existing)

	batch := s.notifier.Notify(req, fresh)
	if err := s.notifications.SaveBatch(ctx, batch); err != nil {
		return nil, 0, fmt.Errorf("persisting notifications: %w", err)
	}

	outcome := "matched"
	if len(candidates) == 0 {
		outcome = "empty"
	}
	s.metrics.ObserveMatch(string(req.Kind), outcome, len(candidates), start)
	s.metrics.AddNotifications(len(batch))

	views := candidateViews(candidates)
	summary := models.MatchSummary{
		RequestID:  req.ID,
		Kind:       string(req.Kind),
		Candidates: views,
		MatchedAt:  s.now(),
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, summary); err != nil {
			logger.Log.WithError(err).WithField("request_id", req.ID).Warn("failed to cache match summary")
		}
	}

	s.publish(ctx, models.EventRequestMatched, map[string]interface{}{
		"request_id": req.ID,
		"kind":       string(req.Kind),
		"candidates": views,
		"notified":   len(batch),
	})

	logger.Log.WithFields(map[string]interface{}{
		"request_id": req.ID,
		"kind":       req.Kind,
		"candidates": len(candidates),
		"notified":   len(batch),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("match completed")

	return views, len(batch), nil
}

// AcceptNotification records a donor's acceptance: the request is closed in
// favour of the donor, the notification is marked accepted and a match
// record is written.
func (s *Service) AcceptNotification(ctx context.Context, donorID, requestID, notificationID string) (*request.AcceptedMatch, error) {
	rec, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if rec.Status == matching.RequestStatusMatched {
		return nil, request.ErrRequestClosed
	}

	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.DonorID != donorID || n.RequestID != requestID {
		return nil, notification.ErrNotFound
	}
	if n.Status == notification.StatusAccepted {
		return nil, notification.ErrAlreadyAccepted
	}

	match := &request.AcceptedMatch{
		ID:        uuid.New().String(),
		DonorID:   donorID,
		RequestID: requestID,
		MatchedAt: s.now(),
		Status:    request.MatchStatusMatched,
	}
	if err := s.acceptor.Accept(ctx, requestID, donorID, notificationID, match); err != nil {
		return nil, err
	}
	s.metrics.IncAccepted()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, requestID); err != nil {
			logger.Log.WithError(err).WithField("request_id", requestID).Warn("failed to invalidate match summary")
		}
	}

	s.publish(ctx, models.EventRequestAccepted, map[string]interface{}{
		"request_id":      requestID,
		"donor_id":        donorID,
		"notification_id": notificationID,
		"match_id":        match.ID,
	})
	return match, nil
}

func (s *Service) RequestStatus(ctx context.Context, id string) (*RequestStatusView, error) {
	rec, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &RequestStatusView{Request: rec}
	if rec.MatchedDonorID != "" {
		d, err := s.donors.Get(ctx, rec.MatchedDonorID)
		if err != nil && !errors.Is(err, donor.ErrNotFound) {
			return nil, err
		}
		view.MatchedDonor = d
	}
	view.Notifications, err = s.notifications.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Matches returns the latest candidate list for a request, from the cache
// when possible and otherwise rebuilt from stored notifications.
func (s *Service) Matches(ctx context.Context, id string) (*models.MatchSummary, error) {
	if s.cache != nil {
		summary, err := s.cache.Get(ctx, id)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			logger.Log.WithError(err).WithField("request_id", id).Warn("match cache read failed")
		}
	}

	rec, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := s.notifications.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &models.MatchSummary{
		RequestID:  rec.ID,
		Kind:       rec.Kind,
		Candidates: make([]models.CandidateView, 0, len(notes)),
		MatchedAt:  rec.CreatedAt,
	}
	for _, n := range notes {
		view := models.CandidateView{DonorID: n.DonorID, DistanceKm: n.Distance}
		if d, err := s.donors.Get(ctx, n.DonorID); err == nil {
			view.DonorName = d.Name
			view.City = d.City
			view.BloodType = d.BloodType
		}
		summary.Candidates = append(summary.Candidates, view)
		if n.Timestamp.After(summary.MatchedAt) {
			summary.MatchedAt = n.Timestamp
		}
	}
	sort.SliceStable(summary.Candidates, func(i, j int) bool {
		return summary.Candidates[i].DistanceKm < summary.Candidates[j].DistanceKm
	})
	return summary, nil
}

// SetDonorAvailability toggles whether a donor is offered to new matches.
// Pending notifications already sent are left as they are.
func (s *Service) SetDonorAvailability(ctx context.Context, donorID string, available bool) (*donor.Record, error) {
	if err := s.donors.SetAvailability(ctx, donorID, available); err != nil {
		return nil, err
	}
	rec, err := s.donors.Get(ctx, donorID)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"donor_id":  donorID,
		"available": available,
	}).Info("donor availability updated")
	return rec, nil
}

func (s *Service) DonorInbox(ctx context.Context, donorID string) ([]notification.Notification, error) {
	if _, err := s.donors.Get(ctx, donorID); err != nil {
		return nil, err
	}
	return s.notifications.ListByDonor(ctx, donorID)
}

func (s *Service) ListDonors(ctx context.Context) ([]donor.Record, error) {
	return s.donors.List(ctx)
}

func (s *Service) ListRequests(ctx context.Context) ([]request.Record, error) {
	return s.requests.List(ctx)
}

func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	donors, err := s.donors.List(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.List(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := s.requests.CountMatches(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{
		Donors:        len(donors),
		TotalRequests: len(requests),
		Matches:       matches,
	}
	for _, d := range donors {
		if d.Available {
			stats.AvailableDonors++
		}
	}
	for _, r := range requests {
		if r.Status == matching.RequestStatusActive {
			stats.ActiveRequests++
		}
	}
	return stats, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, eventSource, payload); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Error("failed to publish match event")
	}
}

func withoutNotified(candidates []matching.Candidate, existing []notification.Notification) []matching.Candidate {
	if len(existing) == 0 {
		return candidates
	}
	notified := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		notified[n.DonorID] = struct{}{}
	}
	out := make([]matching.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := notified[c.DonorID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func candidateViews(candidates []matching.Candidate) []models.CandidateView {
	views := make([]models.CandidateView, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, models.CandidateView{
			DonorID:    c.DonorID,
			DonorName:  c.Donor.Name,
			City:       c.Donor.City,
			BloodType:  c.Donor.BloodType.String(),
			DistanceKm: c.RoundedDistance(),
		})
	}
	return views
}

func kindLabel(raw string) string {
	if kind, ok := matching.ParseKind(raw); ok {
		return string(kind)
	}
	return "unknown"
}

func resultMessage(notified int) string {
	if notified == 0 {
		return "No compatible donors found nearby. We will continue looking."
	}
	return fmt.Sprintf("%d compatible donors have been notified.", notified)
}
