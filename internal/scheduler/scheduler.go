// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/ecocharge-reservation/internal/logger"
)

// CampaignExpirer ends campaigns whose end date has passed.
type CampaignExpirer interface {
	ExpireCampaigns(ctx context.Context, now time.Time) (int64, error)
}

// jobTimeout bounds a single run so a stuck database cannot pile up runs.
const jobTimeout = 30 * time.Second

// Scheduler manages cron job scheduling.
type Scheduler struct {
	cron     *cron.Cron
	campaign CampaignExpirer
	now      func() time.Time
}

// New creates a scheduler in UTC with seconds precision and registers the
// campaign expiry job on spec (six fields, e.g. "0 */5 * * * *").
func New(spec string, campaigns CampaignExpirer) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	s := &Scheduler{cron: c, campaign: campaigns, now: time.Now}
	if _, err := c.AddFunc(spec, s.ExpireCampaigns); err != nil {
		return nil, err
	}
	logger.Info("cron jobs registered", "campaign_expiry", spec)
	return s, nil
}

// ExpireCampaigns is the campaign expiry job.
func (s *Scheduler) ExpireCampaigns() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.campaign.ExpireCampaigns(ctx, s.now().UTC())
	if err != nil {
		logger.Error("campaign expiry failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("campaigns expired", "count", n)
	}
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("cron scheduler started")
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("cron scheduler stopped")
}
