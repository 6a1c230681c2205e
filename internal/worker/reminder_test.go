package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminder struct {
	calls []time.Time
	err   error
}

func (f *fakeReminder) SendReminders(_ context.Context, now time.Time) (int, error) {
	f.calls = append(f.calls, now)
	return len(f.calls), f.err
}

func TestNewReminderJob(t *testing.T) {
	_, err := NewReminderJob(&fakeReminder{}, "not a schedule", time.UTC)
	assert.Error(t, err)

	j, err := NewReminderJob(&fakeReminder{}, "", nil)
	require.NoError(t, err)
	assert.Len(t, j.cron.Entries(), 1)
}

func TestReminderJob_RunOnce(t *testing.T) {
	f := &fakeReminder{}
	j, err := NewReminderJob(f, DefaultReminderSchedule, time.UTC)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	j.RunOnce(context.Background(), now)

	f.err = errors.New("db down")
	j.RunOnce(context.Background(), now)

	assert.Equal(t, []time.Time{now, now}, f.calls)
}

func TestReminderJob_StartStops(t *testing.T) {
	j, err := NewReminderJob(&fakeReminder{}, DefaultReminderSchedule, time.UTC)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
