package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultReminderSchedule = "0 9 * * *"

type Reminder interface {
	SendReminders(ctx context.Context, now time.Time) (int, error)
}

// ReminderJob runs the daily event reminder on a cron schedule.
type ReminderJob struct {
	cron     *cron.Cron
	reminder Reminder
	timeout  time.Duration
}

func NewReminderJob(reminder Reminder, schedule string, loc *time.Location) (*ReminderJob, error) {
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}
	if loc == nil {
		loc = time.Local
	}

	j := &ReminderJob{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{}), cron.Recover(cronLogger{})),
		),
		reminder: reminder,
		timeout:  10 * time.Minute,
	}

	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("cron.AddFunc %q -> %w", schedule, err)
	}

	return j, nil
}

// Start runs the scheduler until ctx is cancelled.
func (j *ReminderJob) Start(ctx context.Context) {
	j.cron.Start()
	zap.L().Info("reminder scheduler started")

	<-ctx.Done()

	<-j.cron.Stop().Done()
	zap.L().Info("reminder scheduler stopped")
}

func (j *ReminderJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.RunOnce(ctx, time.Now())
}

// RunOnce sends the reminders due at now.
func (j *ReminderJob) RunOnce(ctx context.Context, now time.Time) {
	n, err := j.reminder.SendReminders(ctx, now)
	if err != nil {
		zap.L().Error("reminder job failed", zap.Error(err))
		return
	}

	zap.L().Info("reminder job finished", zap.Int("queued", n))
}

// cronLogger routes the scheduler's own logs to zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.S().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.S().Errorw(msg, append(keysAndValues, "error", err)...)
}
