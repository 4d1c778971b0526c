package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type expirerMock struct{ mock.Mock }

func (m *expirerMock) ExpireCampaigns(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New("every five minutes", &expirerMock{})
	assert.Error(t, err)

	_, err = New("*/5 * * * *", &expirerMock{})
	assert.Error(t, err, "five-field specs need seconds")
}

func TestExpireCampaigns_PassesUTCNow(t *testing.T) {
	m := &expirerMock{}
	s, err := New("0 */5 * * * *", m)
	require.NoError(t, err)

	ist := time.FixedZone("IST", 3*60*60)
	s.now = func() time.Time { return time.Date(2026, 10, 18, 15, 0, 0, 0, ist) }
	want := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	m.On("ExpireCampaigns", mock.Anything, want).Return(int64(2), nil).Once()
	m.On("ExpireCampaigns", mock.Anything, want).Return(int64(0), errors.New("db down")).Once()

	s.ExpireCampaigns()
	s.ExpireCampaigns()
	m.AssertExpectations(t)
}

func TestStartStop(t *testing.T) {
	s, err := New("0 0 0 1 1 *", &expirerMock{})
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
