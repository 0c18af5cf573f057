package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/query"
)

func newSessions(t *testing.T) *SessionService {
	t.Helper()
	mem := cache.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })
	return NewSessionService(mem, "yoyodex", time.Hour, 12, nil)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)

	sess, err := s.Create(ctx, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.ID, SessionPrefix))
	assert.Len(t, sess.ID, len(SessionPrefix)+32)
	assert.Equal(t, query.NewState(12), sess.State)

	sess, err = s.Apply(ctx, sess.ID, query.Action{Type: query.ActionSearch, Value: "brass"})
	require.NoError(t, err)
	assert.Equal(t, "brass", sess.State.SearchText)

	loaded, err := s.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "brass", loaded.State.SearchText)

	require.NoError(t, s.Delete(ctx, sess.ID))
	_, err = s.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	sess, err := s.Create(ctx, 8)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = s.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRejectsBadIDAndAction(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)

	_, err := s.Load(ctx, "vht_abc")
	assert.ErrorIs(t, err, ErrInvalidSession)

	sess, err := s.Create(ctx, 0)
	require.NoError(t, err)
	_, err = s.Apply(ctx, sess.ID, query.Action{Type: "jump"})
	assert.ErrorIs(t, err, query.ErrUnknownAction)
}
