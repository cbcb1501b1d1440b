package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"peerprep/interview/internal/metrics"
)

// BacklogCounter counts completed interviews still holding an unused mentor review
type BacklogCounter interface {
	CountAwaitingMentorReview(ctx context.Context) (int64, error)
}

// MentorBacklogJob periodically refreshes the awaiting-mentor-review gauge
type MentorBacklogJob struct {
	counter  BacklogCounter
	schedule string
	timeout  time.Duration
	report   func(int64)
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewMentorBacklogJob creates the job. schedule uses cron syntax or descriptors such as "@every 5m".
func NewMentorBacklogJob(counter BacklogCounter, schedule string, logger *zap.Logger) *MentorBacklogJob {
	return &MentorBacklogJob{
		counter:  counter,
		schedule: schedule,
		timeout:  10 * time.Second,
		report:   metrics.SetAwaitingMentorReview,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the refresh and runs it once immediately
func (j *MentorBacklogJob) Start() error {
	if j.schedule == "" {
		j.logger.Info("mentor backlog job disabled, no schedule configured")
		return nil
	}

	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.RunOnce(context.Background()); err != nil {
			j.logger.Warn("mentor backlog refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule mentor backlog job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("mentor backlog job started", zap.String("schedule", j.schedule))

	go func() {
		if err := j.RunOnce(context.Background()); err != nil {
			j.logger.Warn("initial mentor backlog refresh failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish
func (j *MentorBacklogJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("mentor backlog job stopped")
	}
}

// RunOnce performs a single refresh
func (j *MentorBacklogJob) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	count, err := j.counter.CountAwaitingMentorReview(ctx)
	if err != nil {
		return fmt.Errorf("failed to count awaiting interviews: %w", err)
	}
	j.report(count)
	j.logger.Debug("mentor backlog refreshed", zap.Int64("awaiting", count))
	return nil
}
