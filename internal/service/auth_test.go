package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
	"github.com/iliyamo/ecocharge-reservation/internal/database/dbtest"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
	"github.com/iliyamo/ecocharge-reservation/internal/utils"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) *service.AuthService {
	t.Helper()
	cfg := config.Config{
		JWTSecret:      testSecret,
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
		Rewards:        config.DefaultRewards(),
	}
	return service.NewAuthService(cfg, dbtest.New(t))
}

func TestRegister_InfersRole(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	op, err := auth.Register(ctx, service.RegisterInput{Name: "Mert", Email: "Mert@Zorlu.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOperator, op.User.Role)
	assert.Equal(t, "mert@zorlu.com", op.User.Email)
	assert.Zero(t, op.User.Coins)

	drv, err := auth.Register(ctx, service.RegisterInput{Name: "Ayse", Email: "ayse@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleDriver, drv.User.Role)

	explicit, err := auth.Register(ctx, service.RegisterInput{Name: "Can", Email: "can@example.com", Password: "secret1", Role: "operator"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOperator, explicit.User.Role)

	claims, err := utils.ParseAccessToken(testSecret, drv.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, drv.User.ID, claims.UserID)
	assert.Equal(t, "DRIVER", claims.Role)
	assert.NotEmpty(t, drv.Refresh.Raw)
}

func TestRegister_Validation(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	cases := map[string]service.RegisterInput{
		"missing name":   {Email: "a@example.com", Password: "secret1"},
		"bad email":      {Name: "A", Email: "not-an-email", Password: "secret1"},
		"short password": {Name: "A", Email: "a@example.com", Password: "12345"},
		"unknown role":   {Name: "A", Email: "a@example.com", Password: "secret1", Role: "ADMIN"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Register(ctx, in)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	_, err := auth.Register(ctx, service.RegisterInput{Name: "A", Email: "dup@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = auth.Register(ctx, service.RegisterInput{Name: "B", Email: "DUP@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestLogin(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()
	_, err := auth.Register(ctx, service.RegisterInput{Name: "Mert", Email: "mert@zorlu.com", Password: "secret1"})
	require.NoError(t, err)

	res, err := auth.Login(ctx, " MERT@zorlu.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOperator, res.User.Role)
	assert.NotNil(t, res.Badges)
	assert.NotNil(t, res.Stations)

	_, err = auth.Login(ctx, "mert@zorlu.com", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = auth.Login(ctx, "nobody@zorlu.com", "secret1")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRefresh_RotatesToken(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()
	reg, err := auth.Register(ctx, service.RegisterInput{Name: "Ayse", Email: "ayse@example.com", Password: "secret1"})
	require.NoError(t, err)

	next, err := auth.Refresh(ctx, reg.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Refresh.Raw, next.Refresh.Raw)
	assert.Equal(t, reg.User.ID, next.User.ID)

	_, err = auth.Refresh(ctx, reg.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = auth.Refresh(ctx, "  ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRefresh_SingleUseUnderConcurrency(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()
	reg, err := auth.Register(ctx, service.RegisterInput{Name: "Ayse", Email: "ayse@example.com", Password: "secret1"})
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		issued  int
		refused int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Refresh(ctx, reg.Refresh.Raw)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				issued++
			case assert.ErrorIs(t, err, service.ErrUnauthorized):
				refused++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, issued)
	assert.Equal(t, workers-1, refused)
}

func TestLogout(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()
	a, err := auth.Register(ctx, service.RegisterInput{Name: "Ayse", Email: "ayse@example.com", Password: "secret1"})
	require.NoError(t, err)
	b, err := auth.Register(ctx, service.RegisterInput{Name: "Bora", Email: "bora@example.com", Password: "secret1"})
	require.NoError(t, err)
	sessA := session.Session{UserID: a.User.ID, Role: a.User.Role}

	err = auth.Logout(ctx, sessA, b.Refresh.Raw)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, auth.Logout(ctx, sessA, "unknown-token"))

	require.NoError(t, auth.Logout(ctx, sessA, a.Refresh.Raw))
	_, err = auth.Refresh(ctx, a.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	// empty token revokes every session of the caller
	again, err := auth.Login(ctx, "ayse@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, auth.Logout(ctx, sessA, ""))
	_, err = auth.Refresh(ctx, again.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = auth.Refresh(ctx, b.Refresh.Raw)
	assert.NoError(t, err)
}
