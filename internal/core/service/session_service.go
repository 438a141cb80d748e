// Package service holds the session aggregate store and the batch importer.
// Every mutation of a session runs under that session's lock, recomputes the
// analytics block and persists with an optimistic version check.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/fusion/internal/adapter/metrics"
	"github.com/hive-corporation/fusion/internal/core/domain"
	"github.com/hive-corporation/fusion/internal/core/ports"
)

type SessionService struct {
	repo     ports.SessionRepository
	notifier ports.Notifier
	locks    *keyedMutex
	now      func() time.Time
	newID    func() string
	pending  sync.WaitGroup
}

// NewSessionService wires the store. notifier may be nil.
func NewSessionService(repo ports.SessionRepository, notifier ports.Notifier) *SessionService {
	return &SessionService{
		repo:     repo,
		notifier: notifier,
		locks:    newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

type CreateSessionInput struct {
	Title       string
	Description string
	TargetType  domain.TargetType
	Target      string
	Priority    domain.Priority
	Tags        []string
}

// SessionPatch amends session metadata. Nil fields are left unchanged.
type SessionPatch struct {
	Title       *string
	Description *string
	TargetType  *domain.TargetType
	Target      *string
	Priority    *domain.Priority
	Status      *domain.Status
	Tags        []string
}

// DataPointPatch amends the mutable fields of a data point. Type, id and
// source are fixed at creation.
type DataPointPatch struct {
	Key        *string
	Value      any
	SetValue   bool
	Confidence *int
	Tags       []string
	Enrichment *domain.Enrichment
}

func (s *SessionService) CreateSession(ctx context.Context, in CreateSessionInput) (domain.Session, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Session{}, fmt.Errorf("title is required: %w", domain.ErrInvalidSession)
	}
	if in.TargetType == "" {
		in.TargetType = domain.TargetOther
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.TargetType.IsValid() {
		return domain.Session{}, fmt.Errorf("target type %q: %w", in.TargetType, domain.ErrInvalidSession)
	}
	if !in.Priority.IsValid() {
		return domain.Session{}, fmt.Errorf("priority %q: %w", in.Priority, domain.ErrInvalidSession)
	}

	now := s.now()
	session := domain.Recompute(domain.Session{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		TargetType:  in.TargetType,
		Target:      strings.TrimSpace(in.Target),
		Priority:    in.Priority,
		Status:      domain.StatusActive,
		Tags:        domain.MergeTags(in.Tags),
		DataPoints:  []domain.DataPoint{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})

	if err := s.repo.Create(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (domain.Session, error) {
	if err := validateSessionID(id); err != nil {
		return domain.Session{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *SessionService) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	return s.repo.List(ctx, limit)
}

// UpdateSession applies a metadata patch. Data points are untouched.
func (s *SessionService) UpdateSession(ctx context.Context, id string, patch SessionPatch) (domain.Session, error) {
	return s.mutate(ctx, id, func(session *domain.Session) error {
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return fmt.Errorf("title is required: %w", domain.ErrInvalidSession)
			}
			session.Title = title
		}
		if patch.Description != nil {
			session.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Target != nil {
			session.Target = strings.TrimSpace(*patch.Target)
		}
		if patch.TargetType != nil {
			if !patch.TargetType.IsValid() {
				return fmt.Errorf("target type %q: %w", *patch.TargetType, domain.ErrInvalidSession)
			}
			session.TargetType = *patch.TargetType
		}
		if patch.Priority != nil {
			if !patch.Priority.IsValid() {
				return fmt.Errorf("priority %q: %w", *patch.Priority, domain.ErrInvalidSession)
			}
			session.Priority = *patch.Priority
		}
		if patch.Status != nil {
			if !patch.Status.IsValid() {
				return fmt.Errorf("status %q: %w", *patch.Status, domain.ErrInvalidSession)
			}
			session.Status = *patch.Status
		}
		if patch.Tags != nil {
			session.Tags = domain.MergeTags(patch.Tags)
		}
		return nil
	})
}

func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	if err := validateSessionID(id); err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.repo.Delete(ctx, id)
}

// Normalize completes a draft with an id, the current time and defaults.
func (s *SessionService) Normalize(d domain.Draft, defaults domain.Defaults) domain.DataPoint {
	return domain.Normalize(d, defaults, s.now(), s.newID)
}

// AddDataPoint normalizes one draft and appends it.
func (s *SessionService) AddDataPoint(ctx context.Context, id string, d domain.Draft, defaults domain.Defaults) (domain.DataPoint, domain.Session, error) {
	dp := s.Normalize(d, defaults)
	session, err := s.AddDataPoints(ctx, id, []domain.DataPoint{dp})
	if err != nil {
		return domain.DataPoint{}, domain.Session{}, err
	}
	return dp, session, nil
}

// AddDataPoints appends already normalized points as one mutation: either
// all of them are stored or none are.
func (s *SessionService) AddDataPoints(ctx context.Context, id string, points []domain.DataPoint) (domain.Session, error) {
	session, err := s.mutate(ctx, id, func(session *domain.Session) error {
		session.DataPoints = append(session.DataPoints, points...)
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	perTool := make(map[string]int)
	for _, dp := range points {
		perTool[dp.Source.ToolName]++
	}
	for tool, n := range perTool {
		metrics.RecordDataPointsIngested(tool, n)
	}
	return session, nil
}

func (s *SessionService) UpdateDataPoint(ctx context.Context, id, dataPointID string, patch DataPointPatch) (domain.Session, error) {
	if patch.Confidence != nil && (*patch.Confidence < 0 || *patch.Confidence > 100) {
		return domain.Session{}, fmt.Errorf("confidence %d out of range: %w", *patch.Confidence, domain.ErrInvalidPatch)
	}
	if patch.Key != nil && strings.TrimSpace(*patch.Key) == "" {
		return domain.Session{}, fmt.Errorf("key must not be blank: %w", domain.ErrInvalidPatch)
	}

	return s.mutate(ctx, id, func(session *domain.Session) error {
		i := session.IndexOf(dataPointID)
		if i < 0 {
			return domain.ErrDataPointNotFound
		}
		dp := &session.DataPoints[i]

		if patch.Key != nil {
			dp.Key = strings.TrimSpace(*patch.Key)
		}
		if patch.SetValue {
			if v, ok := patch.Value.(string); ok {
				dp.Value = strings.TrimSpace(v)
			} else {
				dp.Value = patch.Value
			}
		}
		if patch.Confidence != nil {
			dp.Confidence = *patch.Confidence
		}
		if patch.Tags != nil {
			dp.Tags = domain.MergeTags(patch.Tags)
		}
		if patch.Enrichment != nil {
			e := *patch.Enrichment
			if e.LastUpdated.IsZero() {
				e.LastUpdated = s.now()
			}
			dp.Enrichment = &e
		}
		return nil
	})
}

func (s *SessionService) RemoveDataPoint(ctx context.Context, id, dataPointID string) (domain.Session, error) {
	return s.mutate(ctx, id, func(session *domain.Session) error {
		i := session.IndexOf(dataPointID)
		if i < 0 {
			return domain.ErrDataPointNotFound
		}
		session.DataPoints = append(session.DataPoints[:i], session.DataPoints[i+1:]...)
		return nil
	})
}

// FindDataPoints returns the points whose key or value contains query,
// ignoring case. An empty query returns every point.
func (s *SessionService) FindDataPoints(ctx context.Context, id, query string) ([]domain.DataPoint, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	matches := []domain.DataPoint{}
	for _, dp := range session.DataPoints {
		if dp.Matches(query) {
			matches = append(matches, dp)
		}
	}
	return matches, nil
}

// Recompute rebuilds and persists the analytics block without changing data.
func (s *SessionService) Recompute(ctx context.Context, id string) (domain.Session, error) {
	return s.mutate(ctx, id, func(*domain.Session) error { return nil })
}

// mutate is the single write path: lock, load, apply fn, recompute, save.
// A critical-risk notification is sent after the lock is released.
func (s *SessionService) mutate(ctx context.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	if err := validateSessionID(id); err != nil {
		return domain.Session{}, err
	}

	session, becameCritical, err := s.apply(ctx, id, fn)
	if err != nil {
		return domain.Session{}, err
	}

	if becameCritical {
		s.notifyCritical(session)
	}
	return session, nil
}

func (s *SessionService) apply(ctx context.Context, id string, fn func(*domain.Session) error) (domain.Session, bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.Session{}, false, err
	}

	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Session{}, false, err
	}
	previous := session.Analytics.RiskAssessment.Level
	expected := session.Version

	if err := fn(&session); err != nil {
		return domain.Session{}, false, err
	}

	start := time.Now()
	session = domain.Recompute(session)
	metrics.RecordRecompute(time.Since(start), session.Analytics.RiskAssessment.Score)
	session.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, session, expected); err != nil {
		if errors.Is(err, domain.ErrConcurrentMutation) {
			metrics.RecordConcurrentMutation()
		}
		return domain.Session{}, false, err
	}
	session.Version = expected + 1

	becameCritical := previous != domain.RiskCritical && session.Analytics.RiskAssessment.Level == domain.RiskCritical
	return session, becameCritical, nil
}

// notifyCritical delivers the alert in the background so a slow or failing
// notifier never delays writers. Wait blocks until pending alerts are done.
func (s *SessionService) notifyCritical(session domain.Session) {
	if s.notifier == nil {
		return
	}

	risk := session.Analytics.RiskAssessment
	alert := ports.RiskAlert{
		SessionID:       session.ID,
		Title:           session.Title,
		Target:          session.Target,
		Score:           risk.Score,
		Level:           string(risk.Level),
		Factors:         append([]string(nil), risk.Factors...),
		TotalDataPoints: session.Analytics.TotalDataPoints,
		ToolsUsed:       session.Analytics.ToolsUsed,
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.notifier.NotifyCriticalRisk(alert); err != nil {
			log.Printf("⚠️  Failed to send critical risk notification for session %s: %v", alert.SessionID, err)
			return
		}
		log.Printf("🔴 Session %s reached critical risk (%d/100), notification sent", alert.SessionID, alert.Score)
	}()
}

// Wait blocks until every pending critical-risk notification has been sent.
func (s *SessionService) Wait() {
	s.pending.Wait()
}

func validateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%q: %w", id, domain.ErrInvalidSessionID)
	}
	return nil
}
