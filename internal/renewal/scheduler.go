package renewal

import (
	"context"
	"log"
	"time"
)

// Scheduler triggers the renewal runner once a day.
type Scheduler struct {
	runner  *Runner
	dailyAt string
	logger  *log.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(runner *Runner, dailyAt string, logger *log.Logger) *Scheduler {
	return &Scheduler{runner: runner, dailyAt: dailyAt, logger: logger}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			created, err := s.runner.Run(ctx, now.UTC())
			if err != nil && s.logger != nil {
				s.logger.Printf("renewal schedule error: %v", err)
			}
			if created > 0 && s.logger != nil {
				s.logger.Printf("renewal: created %d orders", created)
			}
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
