package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecocharge-reservation/internal/database/dbtest"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/queue"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

type publisherMock struct{ mock.Mock }

func (m *publisherMock) Publish(ctx context.Context, ev queue.Event) error {
	return m.Called(ctx, ev).Error(0)
}

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	db       *sql.DB
	svc      *service.ReservationService
	events   *publisherMock
	driver   model.User
	operator model.User
	station  *model.Station
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	ctx := context.Background()
	users := repository.NewUserRepo(db)

	driverID, err := users.Create(ctx, "Ayse", "ayse@example.com", "secret1", model.RoleDriver, 4)
	require.NoError(t, err)
	opID, err := users.Create(ctx, "Mert", "mert@zorlu.com", "secret1", model.RoleOperator, 4)
	require.NoError(t, err)
	driver, err := users.GetByID(ctx, driverID)
	require.NoError(t, err)
	operator, err := users.GetByID(ctx, opID)
	require.NoError(t, err)

	st := &model.Station{OwnerID: &opID, Name: "Zorlu Center", Price: decimal.RequireFromString("7.50"), Lat: 41.06, Lng: 29.01}
	require.NoError(t, repository.NewStationRepo(db).Create(ctx, st))

	events := &publisherMock{}
	events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := service.NewReservationService(db, events)
	svc.Now = func() time.Time { return fixedNow }

	return &fixture{db: db, svc: svc, events: events, driver: driver, operator: operator, station: st}
}

func (f *fixture) driverSession() session.Session {
	return session.Session{UserID: f.driver.ID, Role: model.RoleDriver}
}

func (f *fixture) book(t *testing.T, green bool) *model.Reservation {
	t.Helper()
	res, err := f.svc.CreateReservation(context.Background(), f.driverSession(), service.CreateReservationInput{
		UserID: f.driver.ID, StationID: f.station.ID, Date: "2026-10-19", Hour: "14:00", IsGreen: ptr(green),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) campaign(t *testing.T, c model.Campaign) *model.Campaign {
	t.Helper()
	c.OwnerID = f.operator.ID
	if c.Title == "" {
		c.Title = "Campaign"
	}
	require.NoError(t, repository.NewCampaignRepo(f.db).Create(context.Background(), &c))
	return &c
}

func (f *fixture) balances(t *testing.T) model.User {
	t.Helper()
	u, err := repository.NewUserRepo(f.db).GetByID(context.Background(), f.driver.ID)
	require.NoError(t, err)
	return u
}

func TestQuoteReward(t *testing.T) {
	q := service.QuoteReward(true, nil)
	assert.Equal(t, int64(50), q.Total())
	assert.Nil(t, q.CampaignID)
	assert.Equal(t, 2.5, q.CO2Earmarked)

	q = service.QuoteReward(false, []model.Campaign{{ID: 9, CoinReward: 20}, {ID: 3, CoinReward: 100}})
	assert.Equal(t, int64(30), q.Total())
	require.NotNil(t, q.CampaignID)
	assert.Equal(t, uint64(9), *q.CampaignID)
	assert.Equal(t, 0.5, q.CO2Earmarked)
}

func TestCreateReservation_GreenNoCampaign(t *testing.T) {
	f := newFixture(t)
	res := f.book(t, true)

	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, int64(50), res.EarnedCoins)
	assert.Equal(t, "14:00", res.Hour)
	assert.Equal(t, "2026-10-19", res.Date.Format("2006-01-02"))

	u := f.balances(t)
	assert.Zero(t, u.Coins)
	assert.Zero(t, u.XP)
	assert.Zero(t, u.CO2Saved)
	f.events.AssertCalled(t, "Publish", mock.Anything, mock.AnythingOfType("queue.ReservationCreated"))
}

func TestCreateReservation_StandardSlot(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, int64(10), f.book(t, false).EarnedCoins)
}

func TestCreateReservation_CampaignBonus(t *testing.T) {
	f := newFixture(t)
	f.campaign(t, model.Campaign{StationID: &f.station.ID, Status: model.CampaignActive,
		EndDate: ptr(fixedNow.Add(48 * time.Hour)), CoinReward: 20})

	assert.Equal(t, int64(70), f.book(t, true).EarnedCoins)
}

func TestCreateReservation_NewestCampaignWins(t *testing.T) {
	f := newFixture(t)
	f.campaign(t, model.Campaign{Status: model.CampaignActive, CoinReward: 100})
	f.campaign(t, model.Campaign{StationID: &f.station.ID, Status: model.CampaignActive, CoinReward: 5})

	assert.Equal(t, int64(15), f.book(t, false).EarnedCoins)
}

func TestCreateReservation_IgnoresInapplicableCampaigns(t *testing.T) {
	f := newFixture(t)
	other := &model.Station{Name: "Other", Price: decimal.NewFromInt(5), Lat: 1, Lng: 1}
	require.NoError(t, repository.NewStationRepo(f.db).Create(context.Background(), other))

	f.campaign(t, model.Campaign{StationID: &f.station.ID, Status: model.CampaignActive,
		EndDate: ptr(fixedNow.Add(-time.Hour)), CoinReward: 20})
	f.campaign(t, model.Campaign{StationID: &f.station.ID, Status: model.CampaignDraft, CoinReward: 30})
	f.campaign(t, model.Campaign{StationID: &f.station.ID, Status: model.CampaignEnded, CoinReward: 40})
	f.campaign(t, model.Campaign{StationID: &other.ID, Status: model.CampaignActive, CoinReward: 60})

	assert.Equal(t, int64(50), f.book(t, true).EarnedCoins)
}

func TestCreateReservation_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	valid := service.CreateReservationInput{UserID: f.driver.ID, StationID: f.station.ID, Date: "2026-10-19", Hour: "14:00", IsGreen: ptr(true)}

	cases := map[string]func(in *service.CreateReservationInput){
		"MissingUser":    func(in *service.CreateReservationInput) { in.UserID = 0 },
		"MissingStation": func(in *service.CreateReservationInput) { in.StationID = 0 },
		"MissingDate":    func(in *service.CreateReservationInput) { in.Date = "" },
		"BadDate":        func(in *service.CreateReservationInput) { in.Date = "2026-13-45" },
		"MissingHour":    func(in *service.CreateReservationInput) { in.Hour = " " },
		"MissingIsGreen": func(in *service.CreateReservationInput) { in.IsGreen = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := f.svc.CreateReservation(ctx, f.driverSession(), in)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	t.Run("DateTimeAccepted", func(t *testing.T) {
		in := valid
		in.Date = "2026-10-19T14:00:00.000Z"
		res, err := f.svc.CreateReservation(ctx, f.driverSession(), in)
		require.NoError(t, err)
		assert.Equal(t, "2026-10-19", res.Date.Format("2006-01-02"))
	})
}

func TestCreateReservation_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := service.CreateReservationInput{UserID: f.operator.ID, StationID: f.station.ID, Date: "2026-10-19", Hour: "14:00", IsGreen: ptr(true)}

	_, err := f.svc.CreateReservation(ctx, f.driverSession(), in)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	in.UserID = f.driver.ID
	res, err := f.svc.CreateReservation(ctx, session.Session{UserID: f.operator.ID, Role: model.RoleOperator}, in)
	require.NoError(t, err)
	assert.Equal(t, f.driver.ID, res.UserID)
}

func TestCreateReservation_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opSess := session.Session{UserID: f.operator.ID, Role: model.RoleOperator}

	_, err := f.svc.CreateReservation(ctx, opSess, service.CreateReservationInput{
		UserID: 999, StationID: f.station.ID, Date: "2026-10-19", Hour: "14:00", IsGreen: ptr(true)})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.CreateReservation(ctx, opSess, service.CreateReservationInput{
		UserID: f.driver.ID, StationID: 999, Date: "2026-10-19", Hour: "14:00", IsGreen: ptr(true)})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateReservation_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	failing := &publisherMock{}
	failing.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)
	f.svc.Events = failing

	res := f.book(t, true)
	assert.NotZero(t, res.ID)
	failing.AssertNumberOfCalls(t, "Publish", 1)
}

func TestSettle_DefaultsIgnoreStoredAmount(t *testing.T) {
	f := newFixture(t)
	f.campaign(t, model.Campaign{StationID: &f.station.ID, Status: model.CampaignActive,
		EndDate: ptr(fixedNow.Add(48 * time.Hour)), CoinReward: 20})
	res := f.book(t, true)
	require.Equal(t, int64(70), res.EarnedCoins)

	out, err := f.svc.CompleteReservation(context.Background(), f.driverSession(), res.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.ReservationCompleted, out.Reservation.Status)
	assert.Equal(t, int64(50), out.Reservation.EarnedCoins)
	assert.Equal(t, model.Balances{UserID: f.driver.ID, Coins: 50, CO2Saved: 2.5, XP: 50}, out.Balances)

	u := f.balances(t)
	assert.Equal(t, int64(50), u.Coins)
	assert.Equal(t, int64(50), u.XP)
	assert.InDelta(t, 2.5, u.CO2Saved, 1e-9)

	stored, err := repository.NewReservationRepo(f.db).GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), stored.EarnedCoins)
	assert.Equal(t, model.ReservationCompleted, stored.Status)
	f.events.AssertCalled(t, "Publish", mock.Anything, mock.AnythingOfType("queue.ReservationCompleted"))
}

func TestSettle_Overrides(t *testing.T) {
	f := newFixture(t)
	res := f.book(t, false)

	out, err := f.svc.Settle(context.Background(), res.ID, ptr(int64(120)), ptr(int64(7)))
	require.NoError(t, err)
	assert.Equal(t, int64(120), out.Reservation.EarnedCoins)
	assert.Equal(t, int64(120), out.Balances.Coins)
	assert.Equal(t, int64(7), out.Balances.XP)
	assert.InDelta(t, 0.5, out.Balances.CO2Saved, 1e-9)

	_, err = f.svc.Settle(context.Background(), res.ID, ptr(int64(-1)), nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSettle_Twice(t *testing.T) {
	f := newFixture(t)
	res := f.book(t, true)
	ctx := context.Background()

	_, err := f.svc.Settle(ctx, res.ID, nil, nil)
	require.NoError(t, err)
	after := f.balances(t)

	_, err = f.svc.Settle(ctx, res.ID, nil, nil)
	assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
	assert.Equal(t, after, f.balances(t))
}

func TestSettle_Concurrent(t *testing.T) {
	f := newFixture(t)
	res := f.book(t, true)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		replays   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Settle(context.Background(), res.ID, nil, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, repository.ErrAlreadyCompleted):
				replays++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, replays)
	u := f.balances(t)
	assert.Equal(t, int64(50), u.Coins)
	assert.Equal(t, int64(50), u.XP)
}

func TestSettle_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Settle(context.Background(), 4242, nil, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.CompleteReservation(context.Background(), f.driverSession(), 4242, nil, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSettle_RollsBackWhenCreditFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orphan := &model.Reservation{UserID: 999, StationID: f.station.ID, Date: fixedNow, Hour: "09:00", IsGreen: true, EarnedCoins: 50}
	require.NoError(t, repository.NewReservationRepo(f.db).Create(ctx, orphan))

	_, err := f.svc.Settle(ctx, orphan.ID, nil, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := repository.NewReservationRepo(f.db).GetByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, stored.Status)
	assert.Equal(t, int64(50), stored.EarnedCoins)
	assert.Nil(t, stored.CompletedAt)
}

func TestCompleteReservation_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t, true)

	users := repository.NewUserRepo(f.db)
	otherID, err := users.Create(ctx, "Can", "can@example.com", "secret1", model.RoleDriver, 4)
	require.NoError(t, err)

	_, err = f.svc.CompleteReservation(ctx, session.Session{UserID: otherID, Role: model.RoleDriver}, res.ID, nil, nil)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = f.svc.CompleteReservation(ctx, session.Session{UserID: f.operator.ID, Role: model.RoleOperator}, res.ID, nil, nil)
	assert.NoError(t, err)
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, true)
	second := f.book(t, false)

	list, err := f.svc.ListForUser(context.Background(), f.driverSession())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []uint64{first.ID, second.ID}, []uint64{list[0].ID, list[1].ID})
}
