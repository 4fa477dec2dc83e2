package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/userauth/auth-service/internal/core/domain"
)

type mockAuditRepo struct {
	mock.Mock
	mu     sync.Mutex
	stored []domain.AuditEvent
}

func (m *mockAuditRepo) Insert(ctx context.Context, event *domain.AuditEvent) error {
	args := m.Called(ctx, event)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.stored = append(m.stored, *event)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *mockAuditRepo) events() []domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEvent(nil), m.stored...)
}

func TestAuditDispatcher_PersistsInOrderPerAccount(t *testing.T) {
	repo := &mockAuditRepo{}
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	d := NewAuditDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	actions := []domain.AuditAction{
		domain.AuditLoginFailure,
		domain.AuditLoginFailure,
		domain.AuditAccountLocked,
		domain.AuditLoginSuccess,
	}
	for _, a := range actions {
		d.Record(domain.AuditEvent{Action: a, UserID: "user-1"})
	}

	require.Eventually(t, func() bool { return len(repo.events()) == len(actions) }, 2*time.Second, 10*time.Millisecond)
	cancel()
	d.Wait()

	got := repo.events()
	for i, a := range actions {
		assert.Equal(t, a, got[i].Action, "event %d out of order", i)
		assert.False(t, got[i].Timestamp.IsZero(), "timestamp must be filled")
	}
}

func TestAuditDispatcher_InsertErrorDoesNotStopWorker(t *testing.T) {
	repo := &mockAuditRepo{}
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(e *domain.AuditEvent) bool {
		return e.Action == domain.AuditLogout
	})).Return(errors.New("mongo down")).Once()
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	d := NewAuditDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Record(domain.AuditEvent{Action: domain.AuditLogout, UserID: "u"})
	d.Record(domain.AuditEvent{Action: domain.AuditLoginSuccess, UserID: "u"})

	require.Eventually(t, func() bool { return len(repo.events()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.AuditLoginSuccess, repo.events()[0].Action)
}

func TestAuditDispatcher_DropsWhenFull(t *testing.T) {
	repo := &mockAuditRepo{}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())

	// Workers are not started, so the channel fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Record(domain.AuditEvent{Action: domain.AuditLoginFailure, Email: "x@example.com"})
	}
	assert.Len(t, d.workers[0], channelBuffer)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAuditDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &mockAuditRepo{}
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	d := NewAuditDispatcher(2, repo, zerolog.Nop())
	for i := 0; i < 20; i++ {
		d.Record(domain.AuditEvent{Action: domain.AuditRegister, Email: "a@example.com"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	assert.Len(t, repo.events(), 20)
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewAuditDispatcher(8, nil, zerolog.Nop())
	a := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a, d.shardIndex("user-42"))
	}
	assert.Equal(t, "user-1", shardKey(domain.AuditEvent{UserID: "user-1", Email: "e"}))
	assert.Equal(t, "e", shardKey(domain.AuditEvent{Email: "e"}))
}
