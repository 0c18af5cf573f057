package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/query"
	"g2-yoyodex/pkg/uid"
)

const (
	// SessionPrefix is the prefix for all view session IDs
	SessionPrefix = "yvs_"

	// SessionTTL is the default session lifetime
	SessionTTL = 24 * time.Hour
)

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrInvalidSession  = errors.New("invalid session format")
)

// Session is the stored query state of one viewer.
type Session struct {
	ID        string      `json:"id"`
	State     query.State `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// SessionService keeps per-viewer query state in the store.
type SessionService struct {
	store     cache.Store
	keyPrefix string
	ttl       time.Duration
	pageSize  int
	now       func() time.Time
	log       *logger.Logger
}

// NewSessionService creates a session service for app.
func NewSessionService(store cache.Store, app string, ttl time.Duration, pageSize int, log *logger.Logger) *SessionService {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &SessionService{
		store:     store,
		keyPrefix: app + ":session:",
		ttl:       ttl,
		pageSize:  pageSize,
		now:       time.Now,
		log:       logger.OrNop(log).Component("sessions"),
	}
}

// Create starts a session at the initial query state.
func (s *SessionService) Create(ctx context.Context, pageSize int) (*Session, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	sess := &Session{
		ID:        uid.Token(SessionPrefix),
		State:     query.NewState(pageSize),
		CreatedAt: s.now(),
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	s.log.Debug("session created", "id", sess.ID, "expires", sess.ExpiresAt)
	return sess, nil
}

// Load returns a live session.
func (s *SessionService) Load(ctx context.Context, id string) (*Session, error) {
	if !uid.IsToken(id, SessionPrefix) {
		return nil, ErrInvalidSession
	}

	data, err := s.store.Get(ctx, s.keyPrefix+id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		_ = s.store.Delete(ctx, s.keyPrefix+id)
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	if s.now().After(sess.ExpiresAt) {
		_ = s.store.Delete(ctx, s.keyPrefix+id)
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Apply runs a user action against the session's state and extends its lifetime.
func (s *SessionService) Apply(ctx context.Context, id string, a query.Action) (*Session, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := sess.State.Apply(a)
	if err != nil {
		return nil, err
	}
	sess.State = next

	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if !uid.IsToken(id, SessionPrefix) {
		return ErrInvalidSession
	}
	return s.store.Delete(ctx, s.keyPrefix+id)
}

func (s *SessionService) save(ctx context.Context, sess *Session) error {
	sess.ExpiresAt = s.now().Add(s.ttl)

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := s.store.Set(ctx, s.keyPrefix+sess.ID, data, s.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
