package service

import (
	"context"
	"testing"
	"time"

	"github.com/growtools/backend/internal/cookie"
	"github.com/growtools/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

type accessFixture struct {
	*subFixture
	access *AccessService
	vault  *CookieVault
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	sf := newSubFixture(t)
	vault := NewCookieVault(sf.tools, sf.audit, sf.enc)
	return &accessFixture{
		subFixture: sf,
		vault:      vault,
		access:     NewAccessService(sf.users, sf.tools, sf.svc, vault),
	}
}

func (f *accessFixture) seedCookies(t *testing.T, toolID string) cookie.Set {
	t.Helper()
	set := cookie.Set{
		{Name: "sid", Value: "abc", Domain: ".example.com", Path: "/", Secure: true, SameSite: cookie.SameSiteLax},
	}
	require.NoError(t, f.vault.Save(context.Background(), toolID, set, nil, "admin-1"))
	return set
}

func TestGetCookiesForUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("active subscriber gets transport-encoded cookies", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedUser(t, "u1", domain.RoleUser)
		f.seedTool(t, "t1")
		set := f.seedCookies(t, "t1")
		_, err := f.svc.HandlePaymentSuccess(ctx, "u1", "t1", domain.PlanShared, "order-1")
		require.NoError(t, err)

		access, err := f.access.GetCookiesForUser(ctx, "u1", "t1")
		require.NoError(t, err)
		require.Equal(t, "https://t1.example.com", access.URL)

		decoded, err := cookie.DecodeTransport(access.Cookies)
		require.NoError(t, err)
		require.Equal(t, set, decoded)
	})

	t.Run("no subscription is denied with its reason", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedUser(t, "u1", domain.RoleUser)
		f.seedTool(t, "t1")
		f.seedCookies(t, "t1")

		_, err := f.access.GetCookiesForUser(ctx, "u1", "t1")
		require.ErrorIs(t, err, domain.ErrNoSubscription)
	})

	t.Run("pending private never reaches the vault", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedUser(t, "u1", domain.RoleUser)
		f.seedTool(t, "t1")
		f.seedCookies(t, "t1")
		_, err := f.svc.HandlePaymentSuccess(ctx, "u1", "t1", domain.PlanPrivate, "order-1")
		require.NoError(t, err)

		_, err = f.access.GetCookiesForUser(ctx, "u1", "t1")
		require.ErrorIs(t, err, domain.ErrActivationPending)
	})

	t.Run("admin and operator bypass the subscription check", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedUser(t, "admin-1", domain.RoleAdmin)
		f.seedUser(t, "op-1", domain.RoleOperator)
		f.seedTool(t, "t1")
		f.seedCookies(t, "t1")

		_, err := f.access.GetCookiesForUser(ctx, "admin-1", "t1")
		require.NoError(t, err)
		_, err = f.access.GetCookiesForUser(ctx, "op-1", "t1")
		require.NoError(t, err)
	})

	t.Run("missing blob is a distinct not-configured error", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedUser(t, "admin-1", domain.RoleAdmin)
		f.seedTool(t, "t1")

		_, err := f.access.GetCookiesForUser(ctx, "admin-1", "t1")
		require.ErrorIs(t, err, domain.ErrCookiesNotConfigured)
	})

	t.Run("stale blob expiry does not gate access", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedUser(t, "u1", domain.RoleUser)
		f.seedTool(t, "t1")
		_, err := f.svc.HandlePaymentSuccess(ctx, "u1", "t1", domain.PlanShared, "order-1")
		require.NoError(t, err)

		// Expiry a week in the past: the reminder is stale, access is not.
		past := time.Now().Add(-7 * 24 * time.Hour)
		set := cookie.Set{{Name: "sid", Value: "abc", Domain: "t1.example.com", Path: "/", SameSite: cookie.SameSiteLax}}
		require.NoError(t, f.vault.Save(ctx, "t1", set, &past, "admin-1"))

		_, err = f.access.GetCookiesForUser(ctx, "u1", "t1")
		require.NoError(t, err)
	})

	t.Run("unknown tool", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedUser(t, "u1", domain.RoleUser)

		_, err := f.access.GetCookiesForUser(ctx, "u1", "nope")
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, 404, appErr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAccessFixture(t)
		f.seedTool(t, "t1")

		_, err := f.access.GetCookiesForUser(ctx, "ghost", "t1")
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, 401, appErr.Code)
	})
}
