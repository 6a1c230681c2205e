package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/outbox"
)

type UpcomingEvents interface {
	FindApprovedBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error)
}

type ReminderQueue interface {
	EnqueueOnce(ctx context.Context, key string, kind domain.MailKind, to domain.User, subject string, payload map[string]interface{}) (bool, error)
}

type ReminderService struct {
	events UpcomingEvents
	users  UserRepository
	queue  ReminderQueue
	loc    *time.Location
}

func NewReminderService(events UpcomingEvents, users UserRepository, queue ReminderQueue, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.Local
	}

	return &ReminderService{
		events: events,
		users:  users,
		queue:  queue,
		loc:    loc,
	}
}

// SendReminders queues one reminder per participant of every approved event
// taking place the day after now. It returns how many new reminders were
// queued; reminders queued by an earlier run of the same day are skipped.
func (s *ReminderService) SendReminders(ctx context.Context, now time.Time) (int, error) {
	now = now.In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	events, err := s.events.FindApprovedBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("s.events.FindApprovedBetween -> %w", err)
	}

	queued := 0
	for _, event := range events {
		for _, userID := range event.Participants {
			if ctx.Err() != nil {
				return queued, ctx.Err()
			}

			ok, err := s.remind(ctx, event, userID, from)
			if err != nil {
				zap.L().Warn("failed to queue reminder",
					zap.Uint("event_id", event.ID),
					zap.Uint("user_id", userID),
					zap.Error(err),
				)
				continue
			}
			if ok {
				queued++
			}
		}
	}

	zap.L().Info("event reminders queued", zap.Int("events", len(events)), zap.Int("reminders", queued))

	return queued, nil
}

func (s *ReminderService) remind(ctx context.Context, event domain.Event, userID uint, day time.Time) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	return s.queue.EnqueueOnce(ctx,
		outbox.ReminderKey(event.ID, userID, day),
		domain.MailEventReminder,
		user,
		"Reminder: "+event.Title+" is tomorrow",
		eventMailPayload(event),
	)
}
