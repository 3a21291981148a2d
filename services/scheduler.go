package services

import (
	"context"
	"time"

	"greened-backend/logger"

	"github.com/go-co-op/gocron/v2"
)

// Jobs groups the periodic maintenance tasks run by the scheduler.
type Jobs struct {
	Badges        *BadgeService
	Content       *ContentService
	Opportunities *OpportunityService
	Log           *logger.Logger
	Now           func() time.Time

	BadgeSweepInterval time.Duration
}

// StartScheduler registers every job and starts the scheduler. Each job runs
// in singleton mode so a slow run is never overlapped by the next tick.
func (j *Jobs) StartScheduler(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if j.Now == nil {
		j.Now = time.Now
	}
	interval := j.BadgeSweepInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	jobs := []struct {
		name  string
		every time.Duration
		run   func(context.Context)
	}{
		{"badge-reconcile", interval, j.ReconcileBadges},
		{"challenge-expiry", time.Minute, j.ExpireChallenges},
		{"opportunity-expiry", time.Hour, j.ExpireOpportunities},
	}
	for _, job := range jobs {
		run := job.run
		if _, err := sched.NewJob(
			gocron.DurationJob(job.every),
			gocron.NewTask(func() { run(ctx) }),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, err
		}
	}

	sched.Start()
	j.Log.Info("scheduler started", "badge_sweep_interval", interval.String())
	return sched, nil
}

func (j *Jobs) ReconcileBadges(ctx context.Context) {
	granted, err := j.Badges.ReconcileAll(ctx)
	if err != nil {
		j.Log.Error("badge reconciliation failed", "error", err)
		return
	}
	if granted > 0 {
		j.Log.Info("badge reconciliation granted missing badges", "count", granted)
	}
}

func (j *Jobs) ExpireChallenges(ctx context.Context) {
	n, err := j.Content.ExpireChallenges(ctx, j.Now().UTC().Format(dateLayout))
	if err != nil {
		j.Log.Error("challenge expiry failed", "error", err)
		return
	}
	if n > 0 {
		j.Log.Info("challenges deactivated", "count", n)
	}
}

func (j *Jobs) ExpireOpportunities(ctx context.Context) {
	n, err := j.Opportunities.ExpireOpportunities(ctx, j.Now().UTC().Format(dateLayout))
	if err != nil {
		j.Log.Error("opportunity expiry failed", "error", err)
		return
	}
	if n > 0 {
		j.Log.Info("opportunities deactivated", "count", n)
	}
}
