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

func TestStationService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := service.NewStationService(f.db)
	svc.Now = func() time.Time { return fixedNow }
	op := session.Session{UserID: f.operator.ID, Role: model.RoleOperator}

	st, err := svc.Create(ctx, op, service.StationInput{
		Name: "  Kadıköy  ", Price: ptr(6.899), Lat: ptr(40.99), Lng: ptr(29.02), Address: ptr("Rıhtım Cd."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kadıköy", st.Name)
	assert.Equal(t, "6.9", st.Price.String())
	require.NotNil(t, st.OwnerID)
	assert.Equal(t, f.operator.ID, *st.OwnerID)

	owned, err := svc.ListOwned(ctx, op)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	updated, err := svc.Update(ctx, op, st.ID, service.StationInput{Name: "Kadıköy Pier", Price: ptr(7.0), Lat: ptr(40.99), Lng: ptr(29.02)})
	require.NoError(t, err)
	assert.Equal(t, "Kadıköy Pier", updated.Name)
	assert.Nil(t, updated.Address)

	got, slots, err := svc.Slots(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kadıköy Pier", got.Name)
	assert.Len(t, slots, 24)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStationService_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := service.NewStationService(f.db)
	op := session.Session{UserID: f.operator.ID, Role: model.RoleOperator}

	_, err := svc.Create(ctx, f.driverSession(), service.StationInput{Name: "X", Price: ptr(1.0), Lat: ptr(0.0), Lng: ptr(0.0)})
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = svc.ListOwned(ctx, f.driverSession())
	assert.ErrorIs(t, err, repository.ErrForbidden)

	invalid := map[string]service.StationInput{
		"no name":    {Price: ptr(1.0), Lat: ptr(0.0), Lng: ptr(0.0)},
		"zero price": {Name: "X", Price: ptr(0.0), Lat: ptr(0.0), Lng: ptr(0.0)},
		"no price":   {Name: "X", Lat: ptr(0.0), Lng: ptr(0.0)},
		"lat range":  {Name: "X", Price: ptr(1.0), Lat: ptr(91.0), Lng: ptr(0.0)},
		"lng range":  {Name: "X", Price: ptr(1.0), Lat: ptr(0.0), Lng: ptr(-181.0)},
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, op, in)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	other, err := repository.NewUserRepo(f.db).Create(ctx, "Deniz", "deniz@enerji.com", "secret1", model.RoleOperator, 4)
	require.NoError(t, err)
	foreign := session.Session{UserID: other, Role: model.RoleOperator}
	_, err = svc.Update(ctx, foreign, f.station.ID, service.StationInput{Name: "Mine", Price: ptr(1.0), Lat: ptr(0.0), Lng: ptr(0.0)})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = svc.Update(ctx, op, 9999, service.StationInput{Name: "Gone", Price: ptr(1.0), Lat: ptr(0.0), Lng: ptr(0.0)})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, _, err = svc.Slots(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
