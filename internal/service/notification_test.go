package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository"
)

type fakeNotifications struct {
	mu     sync.Mutex
	nextID uint
	rows   []domain.Notification
	err    error
}

func (f *fakeNotifications) Create(_ context.Context, ns ...domain.Notification) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := range ns {
		f.nextID++
		ns[i].ID = f.nextID
		f.rows = append(f.rows, ns[i])
	}
	return ns, nil
}

func (f *fakeNotifications) FindByUser(_ context.Context, userID uint, limit int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeNotifications) update(id, userID uint, fn func(*domain.Notification)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			fn(&f.rows[i])
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, userID uint) error {
	return f.update(id, userID, func(n *domain.Notification) { n.Read = true })
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			f.rows[i].Read = true
		}
	}
	return nil
}

func (f *fakeNotifications) Delete(_ context.Context, id, userID uint) error {
	if err := f.update(id, userID, func(*domain.Notification) {}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			break
		}
	}
	return nil
}

type recordingPublisher struct {
	published []domain.Notification
}

func (p *recordingPublisher) Publish(n domain.Notification) {
	p.published = append(p.published, n)
}

func TestNotificationService_Notify(t *testing.T) {
	ctx := context.Background()
	repo, pub := &fakeNotifications{}, &recordingPublisher{}
	svc := NewNotificationService(repo, pub)

	svc.Notify(ctx, "hello", domain.NotificationInfo, 1, 2)
	svc.Notify(ctx, "nobody", domain.NotificationInfo)

	require.Len(t, repo.rows, 2)
	require.Len(t, pub.published, 2)
	assert.Equal(t, uint(2), pub.published[1].UserID)
	assert.NotZero(t, pub.published[1].ID)

	repo.err = errBoom
	assert.NotPanics(t, func() { svc.Notify(ctx, "lost", domain.NotificationInfo, 1) })
	assert.Len(t, pub.published, 2)
}

func TestNotificationService_Inbox(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotifications{}
	svc := NewNotificationService(repo, nil)

	for i := 0; i < notificationListLimit+5; i++ {
		svc.Notify(ctx, "n", domain.NotificationInfo, 1)
	}
	svc.Notify(ctx, "other", domain.NotificationInfo, 2)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, notificationListLimit)

	assert.ErrorIs(t, svc.MarkRead(ctx, list[0].ID, 2), ErrNotificationNotFound)
	require.NoError(t, svc.MarkRead(ctx, list[0].ID, 1))

	require.NoError(t, svc.MarkAllRead(ctx, 1))
	list, err = svc.List(ctx, 1)
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Read)
	}

	other, err := svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.False(t, other[0].Read)

	assert.ErrorIs(t, svc.Delete(ctx, other[0].ID, 1), ErrNotificationNotFound)
	require.NoError(t, svc.Delete(ctx, other[0].ID, 2))
	other, err = svc.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}
