package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenamerahulkr/cems/internal/domain"
)

func newAuthService() (*AuthService, *store, *recordingNotifier, *recordingMail) {
	st := newStore()
	notifier, mail := &recordingNotifier{}, &recordingMail{}
	return NewAuthService(fakeUsers{st}, notifier, mail), st, notifier, mail
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("student is approved", func(t *testing.T) {
		svc, _, _, mail := newAuthService()

		user, err := svc.Signup(ctx, domain.User{Name: "Asha", Email: "  Asha@College.edu ", Password: "secret1", Role: domain.RoleStudent})
		require.NoError(t, err)

		assert.Equal(t, "asha@college.edu", user.Email)
		assert.Equal(t, domain.UserStatusApproved, user.Status)
		assert.NotEqual(t, "secret1", user.Password)
		assert.Equal(t, []domain.MailKind{domain.MailWelcome}, mail.kinds())
	})

	t.Run("organizer waits for approval", func(t *testing.T) {
		svc, st, notifier, _ := newAuthService()
		admin := st.addUser(domain.User{Name: "Root", Email: "root@college.edu", Role: domain.RoleAdmin, Status: domain.UserStatusApproved})

		user, err := svc.Signup(ctx, domain.User{Name: "Olga", Email: "olga@college.edu", Password: "secret1", Role: domain.RoleOrganizer})
		require.NoError(t, err)

		assert.Equal(t, domain.UserStatusPending, user.Status)
		require.Len(t, notifier.to(admin.ID), 1)
		assert.Contains(t, notifier.to(admin.ID)[0].message, "olga@college.edu")
	})

	t.Run("admin accounts are refused", func(t *testing.T) {
		svc, st, _, _ := newAuthService()

		_, err := svc.Signup(ctx, domain.User{Name: "Eve", Email: "eve@college.edu", Password: "secret1", Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, ErrAdminSignup)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Empty(t, st.users)
	})

	t.Run("email taken", func(t *testing.T) {
		svc, _, _, _ := newAuthService()

		_, err := svc.Signup(ctx, domain.User{Name: "Asha", Email: "asha@college.edu", Password: "secret1", Role: domain.RoleStudent})
		require.NoError(t, err)

		_, err = svc.Signup(ctx, domain.User{Name: "Asha", Email: "ASHA@college.edu", Password: "secret1", Role: domain.RoleStudent})
		assert.ErrorIs(t, err, ErrUserEmailExists)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc, st, _, _ := newAuthService()

	_, err := svc.Signup(ctx, domain.User{Name: "Asha", Email: "asha@college.edu", Password: "secret1", Role: domain.RoleStudent})
	require.NoError(t, err)
	organizer, err := svc.Signup(ctx, domain.User{Name: "Olga", Email: "olga@college.edu", Password: "secret1", Role: domain.RoleOrganizer})
	require.NoError(t, err)

	user, err := svc.Login(ctx, "Asha@college.edu", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)

	_, err = svc.Login(ctx, "asha@college.edu", "wrong1")
	assert.ErrorIs(t, err, ErrWrongCredentials)

	_, err = svc.Login(ctx, "nobody@college.edu", "secret1")
	assert.ErrorIs(t, err, ErrWrongCredentials)

	_, err = svc.Login(ctx, "olga@college.edu", "secret1")
	assert.ErrorIs(t, err, ErrOrganizerPending)

	_, err = fakeUsers{st}.UpdateStatus(ctx, organizer.ID, domain.RoleOrganizer, domain.UserStatusRejected)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "olga@college.edu", "secret1")
	assert.ErrorIs(t, err, ErrOrganizerRejected)

	_, err = fakeUsers{st}.UpdateStatus(ctx, organizer.ID, domain.RoleOrganizer, domain.UserStatusApproved)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "olga@college.edu", "secret1")
	assert.NoError(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc, st, _, _ := newAuthService()

	require.NoError(t, svc.EnsureAdmin(ctx, "Root", "", ""))
	assert.Empty(t, st.users)

	require.NoError(t, svc.EnsureAdmin(ctx, "Root", "Root@College.edu", "changeme1"))
	require.NoError(t, svc.EnsureAdmin(ctx, "Root", "other@college.edu", "changeme1"))

	admins, err := fakeUsers{st}.FindByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@college.edu", admins[0].Email)

	user, err := svc.Login(ctx, "root@college.edu", "changeme1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}
