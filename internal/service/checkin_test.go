package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInService_CheckIn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	event := env.event(10, 0)

	_, err := env.checkins.CheckIn(ctx, event.ID, env.student.ID)
	assert.ErrorIs(t, err, ErrQRNotFound)
	assert.Equal(t, "Invalid QR code", Message(err))

	_, err = env.registrations.Register(ctx, event.ID, env.student)
	require.NoError(t, err)

	reg, err := env.checkins.CheckIn(ctx, event.ID, env.student.ID)
	require.NoError(t, err)
	assert.True(t, reg.Verified)
	assert.NotNil(t, reg.VerifiedAt)

	_, err = env.checkins.CheckIn(ctx, event.ID, env.student.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCheckInService_ConcurrentScans(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	event := env.event(10, 0)

	_, err := env.registrations.Register(ctx, event.ID, env.student)
	require.NoError(t, err)

	const scans = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		good int
	)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.checkins.CheckIn(ctx, event.ID, env.student.ID); err == nil {
				mu.Lock()
				good++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, good)
}

func TestCheckInService_PendingPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	event := env.event(10, 100)

	_, err := env.payments.CreateOrder(ctx, event.ID, env.student)
	require.NoError(t, err)

	_, err = env.checkins.CheckIn(ctx, event.ID, env.student.ID)
	assert.ErrorIs(t, err, ErrPaymentNotCaptured)
}

func TestCheckInService_CheckInToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid ticket", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)

		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)

		reg, err := env.checkins.CheckInToken(ctx, ticket.Token, event.ID, env.student.ID)
		require.NoError(t, err)
		assert.True(t, reg.Verified)
	})

	t.Run("ids are optional", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)

		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)

		_, err = env.checkins.CheckInToken(ctx, ticket.Token, 0, 0)
		assert.NoError(t, err)
	})

	t.Run("tampered ticket", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)

		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)

		_, err = env.checkins.CheckInToken(ctx, ticket.Token+"x", event.ID, env.student.ID)
		assert.ErrorIs(t, err, ErrInvalidTicket)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		reg, _ := env.store.registration(event.ID, env.student.ID)
		assert.False(t, reg.Verified)
	})

	t.Run("ticket of another attendee", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)
		other := env.newStudent("Ben")

		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)
		_, err = env.registrations.Register(ctx, event.ID, other)
		require.NoError(t, err)

		_, err = env.checkins.CheckInToken(ctx, ticket.Token, event.ID, other.ID)
		assert.ErrorIs(t, err, ErrTicketMismatch)
	})

	t.Run("ticket outlived its registration", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)

		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)
		require.NoError(t, env.registrations.Unregister(ctx, event.ID, env.student.ID))
		_, err = env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)

		_, err = env.checkins.CheckInToken(ctx, ticket.Token, event.ID, env.student.ID)
		assert.ErrorIs(t, err, ErrTicketMismatch)
	})
}
