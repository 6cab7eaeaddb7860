package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
// Times read back are expressed in loc.
func OpenSQLite(ctx context.Context, path string, loc *time.Location) (*SQLiteRepo, error) {
	if loc == nil {
		loc = time.UTC
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, loc: loc, now: time.Now}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Create inserts a reminder and returns its new ID. CreatedAt is filled in
// when zero.
func (r *SQLiteRepo) Create(ctx context.Context, rem *domain.Reminder) (int64, error) {
	if err := prepare(rem); err != nil {
		return 0, err
	}
	if rem.CreatedAt.IsZero() {
		rem.CreatedAt = r.now().In(r.loc)
	}
	kind, fireAt, hour, minute, weekdays, err := scheduleColumns(rem.Schedule)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (
			server_id, channel_id, author_id, message, kind,
			fire_at, hour, minute, weekdays, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ServerID, rem.ChannelID, rem.AuthorID, rem.Text, kind,
		fireAt, hour, minute, weekdays, rem.CreatedAt.UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	rem.ID = id
	return id, nil
}

// Get returns a reminder by server and ID or ErrNotFound.
func (r *SQLiteRepo) Get(ctx context.Context, serverID string, id int64) (*domain.Reminder, error) {
	rw, err := scanRow(r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM reminders WHERE id = ? AND server_id = ?`,
		id, serverID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rem, err := rw.toDomain(r.loc)
	if err != nil {
		return nil, err
	}
	return &rem, nil
}

// ListByServer returns the server's reminders in creation order.
func (r *SQLiteRepo) ListByServer(ctx context.Context, serverID string) ([]domain.Reminder, error) {
	return r.query(ctx,
		`SELECT `+selectColumns+` FROM reminders WHERE server_id = ? ORDER BY id ASC`,
		serverID,
	)
}

// ListAll returns every reminder ordered by ID.
func (r *SQLiteRepo) ListAll(ctx context.Context) ([]domain.Reminder, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM reminders ORDER BY id ASC`)
}

// Update replaces text and schedule of a reminder in one statement.
func (r *SQLiteRepo) Update(ctx context.Context, serverID string, id int64, text string, s domain.Schedule) error {
	s = normalize(s)
	if err := s.Validate(); err != nil {
		return err
	}
	kind, fireAt, hour, minute, weekdays, err := scheduleColumns(s)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders
		SET message = ?, kind = ?, fire_at = ?, hour = ?, minute = ?, weekdays = ?
		WHERE id = ? AND server_id = ?`,
		text, kind, fireAt, hour, minute, weekdays, id, serverID,
	)
	if err != nil {
		return fmt.Errorf("update reminder %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a reminder of the given server and reports whether it existed.
func (r *SQLiteRepo) Delete(ctx context.Context, serverID string, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND server_id = ?`, id, serverID)
	if err != nil {
		return false, fmt.Errorf("delete reminder %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DueOneTime returns one-time reminders whose fire_at equals the minute.
func (r *SQLiteRepo) DueOneTime(ctx context.Context, minute time.Time) ([]domain.Reminder, error) {
	m := domain.TruncateMinute(minute)
	return r.query(ctx,
		`SELECT `+selectColumns+` FROM reminders WHERE kind = ? AND fire_at = ? ORDER BY id ASC`,
		int(domain.KindOnce), m.UTC().Unix(),
	)
}

// DueWeekly returns weekly reminders at hour:minute that include day.
func (r *SQLiteRepo) DueWeekly(ctx context.Context, hour, minute int, day domain.Weekday) ([]domain.Reminder, error) {
	candidates, err := r.query(ctx,
		`SELECT `+selectColumns+` FROM reminders WHERE kind = ? AND hour = ? AND minute = ? ORDER BY id ASC`,
		int(domain.KindWeekly), hour, minute,
	)
	if err != nil {
		return nil, err
	}
	res := candidates[:0]
	for _, rem := range candidates {
		if rem.Schedule.HasDay(day) {
			res = append(res, rem)
		}
	}
	return res, nil
}

// ClaimOneTime deletes the reminder only while it is still one-time at minute.
func (r *SQLiteRepo) ClaimOneTime(ctx context.Context, id int64, minute time.Time) (bool, error) {
	m := domain.TruncateMinute(minute)
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND kind = ? AND fire_at = ?`,
		id, int(domain.KindOnce), m.UTC().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("claim reminder %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) query(ctx context.Context, q string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		res     []domain.Reminder
		corrupt []error
	)
	for rows.Next() {
		rw, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		rem, err := rw.toDomain(r.loc)
		if err != nil {
			corrupt = append(corrupt, err)
			continue
		}
		res = append(res, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(corrupt) > 0 {
		// healthy rows are still returned so one broken record cannot hide the rest
		return res, fmt.Errorf("%w: %w", ErrCorrupt, errors.Join(corrupt...))
	}
	return res, nil
}
