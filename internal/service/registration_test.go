package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/qr"
)

const gatewaySecret = "rzp_secret"

type testEnv struct {
	store    *store
	notifier *recordingNotifier
	mail     *recordingMail
	gateway  *fakeGateway
	issuer   *qr.Issuer

	registrations *RegistrationService
	payments      *PaymentService
	checkins      *CheckInService

	organizer domain.User
	student   domain.User
}

func newTestEnv() *testEnv {
	st := newStore()
	env := &testEnv{
		store:    st,
		notifier: &recordingNotifier{},
		mail:     &recordingMail{},
		gateway:  &fakeGateway{secret: gatewaySecret},
		issuer:   qr.NewIssuer("qr-secret", 24*time.Hour, 0),
	}

	events, regs := fakeEvents{st}, fakeRegistrations{st}
	env.registrations = NewRegistrationService(events, regs, env.issuer, env.notifier, env.mail)
	env.payments = NewPaymentService(events, regs, env.gateway, env.issuer, env.notifier, env.mail, "INR")
	env.checkins = NewCheckInService(regs, env.issuer)

	env.organizer = st.addUser(domain.User{Name: "Olga", Email: "olga@college.edu", Role: domain.RoleOrganizer, Status: domain.UserStatusApproved})
	env.student = st.addUser(domain.User{Name: "Asha", Email: "asha@college.edu", Role: domain.RoleStudent, Status: domain.UserStatusApproved})

	return env
}

func (e *testEnv) event(capacity int, price float64) domain.Event {
	return e.store.addEvent(domain.Event{
		Title:       "Hackathon",
		Venue:       "Hall A",
		Category:    domain.CategoryTechnical,
		Capacity:    capacity,
		OrganizerID: e.organizer.ID,
		Status:      domain.EventStatusApproved,
		IsPaid:      price > 0,
		Price:       price,
	})
}

func (e *testEnv) newStudent(name string) domain.User {
	return e.store.addUser(domain.User{Name: name, Email: strings.ToLower(name) + "@college.edu", Role: domain.RoleStudent, Status: domain.UserStatusApproved})
}

func TestRegistrationService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("free event", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)

		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ticket.DataURL, "data:image/png;base64,"))

		reg, ok := env.store.registration(event.ID, env.student.ID)
		require.True(t, ok)
		assert.Equal(t, domain.PaymentCompleted, reg.PaymentStatus)
		assert.Zero(t, reg.Amount)
		assert.False(t, reg.Verified)
		assert.Equal(t, ticket.Token, reg.QRToken)
		assert.Equal(t, ticket.DataURL, reg.QRCode)
		assert.Equal(t, []uint{env.student.ID}, env.store.participants(event.ID))

		claims, err := env.issuer.Parse(ticket.Token)
		require.NoError(t, err)
		assert.Equal(t, event.ID, claims.EventID)
		assert.Equal(t, env.student.ID, claims.UserID)
		assert.Equal(t, reg.ID, claims.RegistrationID)

		require.Len(t, env.notifier.to(env.student.ID), 1)
		assert.Equal(t, domain.NotificationSuccess, env.notifier.to(env.student.ID)[0].typ)
		require.Len(t, env.notifier.to(env.organizer.ID), 1)
		assert.Equal(t, domain.NotificationInfo, env.notifier.to(env.organizer.ID)[0].typ)
		assert.Equal(t, []domain.MailKind{domain.MailRegistrationConfirmed}, env.mail.kinds())
	})

	t.Run("duplicate", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)

		_, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)

		_, err = env.registrations.Register(ctx, event.ID, env.student)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Len(t, env.store.participants(event.ID), 1)
	})

	t.Run("full", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(1, 0)

		_, err := env.registrations.Register(ctx, event.ID, env.newStudent("Ben"))
		require.NoError(t, err)

		_, err = env.registrations.Register(ctx, event.ID, env.student)
		assert.ErrorIs(t, err, ErrEventFull)
		assert.ErrorIs(t, err, ErrInvalidState)
		_, ok := env.store.registration(event.ID, env.student.ID)
		assert.False(t, ok)
	})

	t.Run("paid event through the free path", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 199)

		_, err := env.registrations.Register(ctx, event.ID, env.student)

		var paymentRequired *PaymentRequiredError
		require.True(t, errors.As(err, &paymentRequired))
		assert.Equal(t, 199.0, paymentRequired.Price)
		assert.ErrorIs(t, err, ErrInvalidState)

		_, ok := env.store.registration(event.ID, env.student.ID)
		assert.False(t, ok)
		assert.Empty(t, env.store.participants(event.ID))
		assert.Empty(t, env.mail.kinds())
	})

	t.Run("ticket write fails", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 0)
		env.store.failTickets(errBoom)

		_, err := env.registrations.Register(ctx, event.ID, env.student)
		assert.ErrorIs(t, err, errBoom)

		_, ok := env.store.registration(event.ID, env.student.ID)
		assert.False(t, ok)
		assert.Empty(t, env.store.participants(event.ID))
		assert.Empty(t, env.mail.kinds())

		env.store.failTickets(nil)
		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)
		assert.NotEmpty(t, ticket.Token)

		reg, ok := env.store.registration(event.ID, env.student.ID)
		require.True(t, ok)
		assert.Equal(t, ticket.DataURL, reg.QRCode)
		assert.Equal(t, []uint{env.student.ID}, env.store.participants(event.ID))
	})

	t.Run("abandoned checkout after the event became free", func(t *testing.T) {
		env := newTestEnv()
		event := env.event(10, 150)

		order, err := env.payments.CreateOrder(ctx, event.ID, env.student)
		require.NoError(t, err)

		env.store.updateEvent(event.ID, func(e *domain.Event) { e.IsPaid, e.Price = false, 0 })

		ticket, err := env.registrations.Register(ctx, event.ID, env.student)
		require.NoError(t, err)

		reg, ok := env.store.registration(event.ID, env.student.ID)
		require.True(t, ok)
		assert.Equal(t, order.RegistrationID, reg.ID)
		assert.Equal(t, domain.PaymentCompleted, reg.PaymentStatus)
		assert.Zero(t, reg.Amount)
		assert.Empty(t, reg.OrderID)
		assert.Equal(t, ticket.Token, reg.QRToken)
		assert.Equal(t, []uint{env.student.ID}, env.store.participants(event.ID))

		_, err = env.registrations.Register(ctx, event.ID, env.student)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("not approved", func(t *testing.T) {
		env := newTestEnv()
		event := env.store.addEvent(domain.Event{Title: "Draft", Capacity: 5, OrganizerID: env.organizer.ID, Status: domain.EventStatusPending})

		_, err := env.registrations.Register(ctx, event.ID, env.student)
		assert.ErrorIs(t, err, ErrEventNotApproved)
	})

	t.Run("unknown event", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.registrations.Register(ctx, 999, env.student)
		assert.ErrorIs(t, err, ErrEventNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "Event not found", Message(err))
	})
}

func TestRegistrationService_RegisterLastSeat(t *testing.T) {
	env := newTestEnv()
	event := env.event(1, 0)

	students := []domain.User{env.student, env.newStudent("Ben")}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(students))
	)
	for i, s := range students {
		wg.Add(1)
		go func(i int, s domain.User) {
			defer wg.Done()
			_, errs[i] = env.registrations.Register(context.Background(), event.ID, s)
		}(i, s)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrEventFull)
	}

	assert.Equal(t, 1, succeeded)
	assert.Len(t, env.store.participants(event.ID), 1)
}

func TestRegistrationService_Unregister(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	event := env.event(1, 0)

	err := env.registrations.Unregister(ctx, event.ID, env.student.ID)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)

	_, err = env.registrations.Register(ctx, event.ID, env.student)
	require.NoError(t, err)

	require.NoError(t, env.registrations.Unregister(ctx, event.ID, env.student.ID))
	assert.Empty(t, env.store.participants(event.ID))

	_, err = env.registrations.Register(ctx, event.ID, env.newStudent("Ben"))
	assert.NoError(t, err)
}

func TestRegistrationService_MyRegistrations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	kept, dropped := env.event(10, 0), env.event(10, 0)

	for _, e := range []domain.Event{kept, dropped} {
		_, err := env.registrations.Register(ctx, e.ID, env.student)
		require.NoError(t, err)
	}
	require.NoError(t, fakeEvents{env.store}.Delete(ctx, dropped.ID))

	regs, err := env.registrations.MyRegistrations(ctx, env.student.ID)
	require.NoError(t, err)

	require.Len(t, regs, 1)
	assert.Equal(t, kept.ID, regs[0].Event.ID)
}

func TestRegistrationService_Participants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	event := env.event(10, 0)

	_, err := env.registrations.Participants(ctx, 999)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = env.registrations.Register(ctx, event.ID, env.student)
	require.NoError(t, err)

	regs, err := env.registrations.Participants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Asha", regs[0].User.Name)
	assert.Equal(t, "asha@college.edu", regs[0].User.Email)
}
