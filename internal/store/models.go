package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
)

// row mirrors the reminders table.
type row struct {
	ID        int64
	ServerID  string
	ChannelID string
	AuthorID  string
	Message   string
	Kind      int
	FireAt    sql.NullInt64
	Hour      sql.NullInt64
	Minute    sql.NullInt64
	Weekdays  sql.NullString
	CreatedAt int64
}

type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `id, server_id, channel_id, author_id, message, kind,
	fire_at, hour, minute, weekdays, created_at`

func scanRow(s scanner) (row, error) {
	var r row
	err := s.Scan(&r.ID, &r.ServerID, &r.ChannelID, &r.AuthorID, &r.Message, &r.Kind,
		&r.FireAt, &r.Hour, &r.Minute, &r.Weekdays, &r.CreatedAt)
	return r, err
}

// scheduleColumns flattens a schedule into kind, fire_at, hour, minute, weekdays.
func scheduleColumns(s domain.Schedule) (kind int, fireAt, hour, minute sql.NullInt64, weekdays sql.NullString, err error) {
	kind = int(s.Kind)
	switch s.Kind {
	case domain.KindOnce:
		fireAt = toNullInt64(&s.At)
	case domain.KindWeekly:
		hour = sql.NullInt64{Int64: int64(s.Hour), Valid: true}
		minute = sql.NullInt64{Int64: int64(s.Minute), Valid: true}
		b, mErr := json.Marshal(s.Days)
		if mErr != nil {
			return 0, fireAt, hour, minute, weekdays, mErr
		}
		weekdays = sql.NullString{String: string(b), Valid: true}
	}
	return kind, fireAt, hour, minute, weekdays, nil
}

func (r row) toDomain(loc *time.Location) (domain.Reminder, error) {
	rem := domain.Reminder{
		ID:        r.ID,
		ServerID:  r.ServerID,
		ChannelID: r.ChannelID,
		AuthorID:  r.AuthorID,
		Text:      r.Message,
		CreatedAt: time.Unix(r.CreatedAt, 0).In(loc),
	}
	switch domain.Kind(r.Kind) {
	case domain.KindOnce:
		t := fromNullInt64(r.FireAt)
		if t == nil {
			return rem, fmt.Errorf("reminder %d: one-time without fire_at", r.ID)
		}
		rem.Schedule = domain.Once(t.In(loc))
	case domain.KindWeekly:
		var days []domain.Weekday
		if err := json.Unmarshal([]byte(r.Weekdays.String), &days); err != nil {
			return rem, fmt.Errorf("reminder %d: weekdays: %w", r.ID, err)
		}
		rem.Schedule = domain.Weekly(int(r.Hour.Int64), int(r.Minute.Int64), days)
	default:
		return rem, fmt.Errorf("reminder %d: unknown kind %d", r.ID, r.Kind)
	}
	return rem, nil
}

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}
