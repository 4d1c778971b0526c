package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

func TestProfile_Me(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profiles := service.NewProfileService(f.db)

	res := f.book(t, true)
	_, err := f.svc.Settle(ctx, res.ID, nil, nil)
	require.NoError(t, err)

	badges := repository.NewBadgeRepo(f.db)
	b := model.Badge{Name: "Green Driver", Icon: "🌱"}
	require.NoError(t, badges.Create(ctx, &b))
	require.NoError(t, badges.Grant(ctx, f.driver.ID, b.ID))

	me, err := profiles.Me(ctx, f.driverSession())
	require.NoError(t, err)
	assert.EqualValues(t, 50, me.User.Coins)
	assert.EqualValues(t, 50, me.User.XP)
	assert.Len(t, me.Reservations, 1)
	assert.Len(t, me.Badges, 1)
	assert.Empty(t, me.Stations)

	opMe, err := profiles.Me(ctx, session.Session{UserID: f.operator.ID, Role: model.RoleOperator})
	require.NoError(t, err)
	assert.Len(t, opMe.Stations, 1)
}

func TestProfile_LeaderboardClamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profiles := service.NewProfileService(f.db)
	users := repository.NewUserRepo(f.db)
	for i := 0; i < 12; i++ {
		_, err := users.Create(ctx, fmt.Sprintf("User %d", i), fmt.Sprintf("u%d@example.com", i), "secret1", model.RoleDriver, 4)
		require.NoError(t, err)
	}
	res := f.book(t, false)
	_, err := f.svc.Settle(ctx, res.ID, ptr(int64(5)), ptr(int64(300)))
	require.NoError(t, err)

	top, err := profiles.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, top, service.DefaultLeaderboardLimit)
	assert.Equal(t, f.driver.ID, top[0].ID)

	one, err := profiles.Leaderboard(ctx, -4)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	all, err := profiles.Leaderboard(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, all, 14)
}

func TestProfile_UpdateMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profiles := service.NewProfileService(f.db)
	sess := f.driverSession()

	u, err := profiles.UpdateMe(ctx, sess, service.ProfileInput{Name: ptr("  Ayse Kaya "), Email: ptr(" AYSE.KAYA@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, "Ayse Kaya", u.Name)
	assert.Equal(t, "ayse.kaya@example.com", u.Email)

	u, err = profiles.UpdateMe(ctx, sess, service.ProfileInput{Name: ptr("Ayse")})
	require.NoError(t, err)
	assert.Equal(t, "Ayse", u.Name)
	assert.Equal(t, "ayse.kaya@example.com", u.Email, "email is left alone")

	_, err = profiles.UpdateMe(ctx, sess, service.ProfileInput{Email: ptr("mert@zorlu.com")})
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	invalid := map[string]service.ProfileInput{
		"nothing":     {},
		"blank name":  {Name: ptr("   ")},
		"bad email":   {Email: ptr("nope")},
		"empty email": {Email: ptr("")},
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := profiles.UpdateMe(ctx, sess, in)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	_, err = profiles.UpdateMe(ctx, session.Session{UserID: 9999, Role: model.RoleDriver}, service.ProfileInput{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
