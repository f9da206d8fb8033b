package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"milsabores/pkg/storage"
)

// zero delays keep the simulated round trips out of the test run.
func newTestAccountService(t *testing.T) (*Service, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return NewService(store, nil, Delays{}), store
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidCredentialsAreAccepted", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		user, err := svc.Login(ctx, LoginForm{Email: "ana@example.com", Password: "secret1"})
		require.NoError(t, err)
		require.True(t, user.Authenticated)
		require.Equal(t, "ana@example.com", user.Email)
		require.NotEmpty(t, user.ID)
	})

	t.Run("InvalidFormReturnsFieldErrors", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		_, err := svc.Login(ctx, LoginForm{Email: "bad", Password: ""})
		require.True(t, IsValidation(err))
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		require.Contains(t, validation.Fields, "email")
		require.Contains(t, validation.Fields, "password")
	})

	t.Run("LoginPersistsTheSession", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		logged, err := svc.Login(ctx, LoginForm{Email: "ana@example.com", Password: "secret1"})
		require.NoError(t, err)

		current, err := svc.CurrentUser(ctx)
		require.NoError(t, err)
		require.Equal(t, logged.ID, current.ID)
		require.Equal(t, logged.Email, current.Email)
	})

	t.Run("DelayRespectsContextCancellation", func(t *testing.T) {
		store := storage.NewMemory()
		svc := NewService(store, nil, Delays{Login: time.Minute})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := svc.Login(ctx, LoginForm{Email: "ana@example.com", Password: "secret1"})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidFormReturnsUnauthenticatedUser", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		user, err := svc.Register(ctx, validRegisterForm())
		require.NoError(t, err)
		require.False(t, user.Authenticated)
		require.Equal(t, "María", user.FirstName)
		require.NotEmpty(t, user.ID)
		require.Empty(t, user.Benefits)
	})

	t.Run("RegistrationDoesNotCreateASession", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		_, err := svc.Register(ctx, validRegisterForm())
		require.NoError(t, err)

		_, err = svc.CurrentUser(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("BenefitsAreAttached", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		form := validRegisterForm()
		form.Email = "alumna@duoc.cl"
		form.PromoCode = PromoCode
		user, err := svc.Register(ctx, form)
		require.NoError(t, err)
		require.True(t, user.HasBenefit(BenefitBirthdayCake))
		require.True(t, user.HasBenefit(BenefitLifetimePromo))
		require.False(t, user.HasBenefit(BenefitAgeDiscount))
	})

	t.Run("InvalidFormReturnsFieldErrors", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		form := validRegisterForm()
		form.ConfirmPassword = "Otra123456"
		_, err := svc.Register(ctx, form)
		require.True(t, IsValidation(err))
	})
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("NoSessionByDefault", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		_, err := svc.CurrentUser(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("MalformedStoredUserIsDiscarded", func(t *testing.T) {
		svc, store := newTestAccountService(t)
		require.NoError(t, store.Save(ctx, UserStorageKey, []byte("{broken")))

		_, err := svc.CurrentUser(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("LogoutDropsTheSession", func(t *testing.T) {
		svc, _ := newTestAccountService(t)

		_, err := svc.Login(ctx, LoginForm{Email: "ana@example.com", Password: "secret1"})
		require.NoError(t, err)
		require.NoError(t, svc.Logout(ctx))

		_, err = svc.CurrentUser(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})
}
