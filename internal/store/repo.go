package store

import (
	"context"
	"errors"
	"time"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
)

// ErrNotFound is returned when a reminder does not exist in the given server.
var ErrNotFound = errors.New("store: reminder not found")

// ErrCorrupt marks rows that could not be decoded. Queries returning it
// still return every row that could.
var ErrCorrupt = errors.New("store: corrupt reminder row")

// Repo defines storage operations for reminders. Every user-facing lookup is
// scoped by server ID: a reminder from another server behaves as missing.
type Repo interface {
	Create(ctx context.Context, r *domain.Reminder) (int64, error)
	Get(ctx context.Context, serverID string, id int64) (*domain.Reminder, error)
	ListByServer(ctx context.Context, serverID string) ([]domain.Reminder, error)
	Update(ctx context.Context, serverID string, id int64, text string, s domain.Schedule) error
	Delete(ctx context.Context, serverID string, id int64) (bool, error)

	// DueOneTime returns one-time reminders firing exactly at the given minute.
	DueOneTime(ctx context.Context, minute time.Time) ([]domain.Reminder, error)
	// DueWeekly returns weekly reminders at hour:minute that include day.
	DueWeekly(ctx context.Context, hour, minute int, day domain.Weekday) ([]domain.Reminder, error)
	// ClaimOneTime deletes a one-time reminder only if it still fires at the
	// given minute. It reports whether the caller now owns the delivery.
	ClaimOneTime(ctx context.Context, id int64, minute time.Time) (bool, error)

	ListAll(ctx context.Context) ([]domain.Reminder, error)
	Close() error
}

// prepare minute-truncates a one-time instant and validates the record.
func prepare(r *domain.Reminder) error {
	if r == nil {
		return errors.New("nil reminder")
	}
	if r.ServerID == "" {
		return errors.New("reminder without server")
	}
	r.Schedule = normalize(r.Schedule)
	return r.Schedule.Validate()
}

func normalize(s domain.Schedule) domain.Schedule {
	if s.Kind == domain.KindOnce {
		s.At = domain.TruncateMinute(s.At)
	}
	return s
}
