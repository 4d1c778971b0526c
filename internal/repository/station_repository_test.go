package repository_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecocharge-reservation/internal/database/dbtest"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
)

func TestStationRepo_CRUD(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := repository.NewStationRepo(db)

	owner := uint64(5)
	s := &model.Station{OwnerID: &owner, Name: "Zorlu Center", Price: decimal.RequireFromString("9.25"),
		Lat: 41.067, Lng: 29.017, Address: ptr("Levazim")}
	require.NoError(t, repo.Create(ctx, s))
	demo := &model.Station{Name: "Demo", Price: decimal.NewFromInt(6), Lat: 1, Lng: 2}
	require.NoError(t, repo.Create(ctx, demo))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.25")))
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner, *got.OwnerID)
	assert.Equal(t, "Levazim", *got.Address)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Nil(t, all[1].OwnerID)

	mine, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	byID, err := repo.GetByIDs(ctx, []uint64{s.ID, 999})
	require.NoError(t, err)
	assert.Len(t, byID, 1)

	s.Name = "Zorlu Center P2"
	assert.ErrorIs(t, repo.Update(ctx, s, 6), repository.ErrForbidden)
	assert.ErrorIs(t, repo.Update(ctx, demo, owner), repository.ErrForbidden)
	require.NoError(t, repo.Update(ctx, s, owner))
	got, err = repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zorlu Center P2", got.Name)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBadgeRepo_GrantAndList(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := repository.NewBadgeRepo(db)

	a := &model.Badge{Name: "Eco Hero", Icon: "leaf"}
	b := &model.Badge{Name: "Night Owl", Icon: "moon"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	assert.ErrorIs(t, repo.Create(ctx, &model.Badge{Name: "Eco Hero"}), repository.ErrConflict)

	require.NoError(t, repo.Grant(ctx, 1, b.ID))
	require.NoError(t, repo.Grant(ctx, 1, b.ID))

	held, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "Night Owl", held[0].Name)

	n, err := repo.CountExisting(ctx, []uint64{a.ID, b.ID, 77})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
