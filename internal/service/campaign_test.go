package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

func TestParseEndDate(t *testing.T) {
	got, err := service.ParseEndDate("2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 20, 23, 59, 59, 0, time.UTC), *got)

	got, err = service.ParseEndDate("2026-10-20T10:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 20, 7, 0, 0, 0, time.UTC), *got)

	got, err = service.ParseEndDate("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = service.ParseEndDate("next week")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCampaignService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := service.NewCampaignService(f.db)
	op := session.Session{UserID: f.operator.ID, Role: model.RoleOperator}

	badge := &model.Badge{Name: "Early Bird", Icon: "sun"}
	require.NoError(t, repository.NewBadgeRepo(f.db).Create(ctx, badge))

	c, err := svc.Create(ctx, op, service.CampaignInput{
		Title: " Weekend boost ", StationID: &f.station.ID, CoinReward: ptr(int64(25)),
		EndDate: "2026-12-31", TargetBadgeIDs: []uint64{badge.ID, badge.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekend boost", c.Title)
	assert.Equal(t, model.CampaignDraft, c.Status)
	assert.Equal(t, []uint64{badge.ID}, c.TargetBadgeIDs)

	updated, err := svc.Update(ctx, op, c.ID, service.CampaignInput{Title: "Weekend boost", Status: "active", CoinReward: ptr(int64(30))})
	require.NoError(t, err)
	assert.Equal(t, model.CampaignActive, updated.Status)
	assert.Equal(t, int64(30), updated.CoinReward)
	assert.Nil(t, updated.StationID)
	assert.Empty(t, updated.TargetBadgeIDs)

	list, err := svc.List(ctx, op)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, op, c.ID))
	_, err = svc.Get(ctx, op, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCampaignService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := service.NewCampaignService(f.db)
	op := session.Session{UserID: f.operator.ID, Role: model.RoleOperator}

	invalid := map[string]service.CampaignInput{
		"MissingTitle":   {},
		"BadStatus":      {Title: "x", Status: "LIVE"},
		"NegativeReward": {Title: "x", CoinReward: ptr(int64(-5))},
		"BadEndDate":     {Title: "x", EndDate: "31/12/2026"},
		"UnknownBadge":   {Title: "x", TargetBadgeIDs: []uint64{77}},
		"UnknownStation": {Title: "x", StationID: ptr(uint64(999))},
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, op, in)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	t.Run("DriverForbidden", func(t *testing.T) {
		_, err := svc.Create(ctx, f.driverSession(), service.CampaignInput{Title: "x"})
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})

	t.Run("ForeignStation", func(t *testing.T) {
		other := session.Session{UserID: f.driver.ID + 100, Role: model.RoleOperator}
		_, err := svc.Create(ctx, other, service.CampaignInput{Title: "x", StationID: &f.station.ID})
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})

	t.Run("ForeignCampaign", func(t *testing.T) {
		c, err := svc.Create(ctx, op, service.CampaignInput{Title: "mine"})
		require.NoError(t, err)
		other := session.Session{UserID: f.operator.ID + 100, Role: model.RoleOperator}
		_, err = svc.Update(ctx, other, c.ID, service.CampaignInput{Title: "stolen"})
		assert.ErrorIs(t, err, repository.ErrForbidden)
		assert.ErrorIs(t, svc.Delete(ctx, other, c.ID), repository.ErrForbidden)
	})
}

func TestCampaignService_ExpireCampaigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := service.NewCampaignService(f.db)

	stale := f.campaign(t, model.Campaign{Status: model.CampaignActive, EndDate: ptr(fixedNow.Add(-time.Hour))})
	fresh := f.campaign(t, model.Campaign{Status: model.CampaignActive, EndDate: ptr(fixedNow.Add(time.Hour))})

	n, err := svc.ExpireCampaigns(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	repo := repository.NewCampaignRepo(f.db)
	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignEnded, got.Status)
	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignActive, got.Status)
}
