package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/dispatch"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/store"
)

// Deliverer sends one reminder notification.
// dispatch.Dispatcher implements this.
type Deliverer interface {
	Deliver(ctx context.Context, serverID, channelID, userID, text string) (dispatch.Outcome, error)
}

const (
	defaultInterval        = time.Minute
	defaultDeliveryTimeout = 10 * time.Second
	// wake a little after the boundary so the clock reads the new minute
	tickSlack = 200 * time.Millisecond
	// how far back a late sweep still fires missed minutes
	maxCatchUp = 10 * time.Minute
)

// Scheduler sweeps the store once per wall-clock minute and dispatches due reminders.
type Scheduler struct {
	repo            store.Repo
	log             *zap.Logger
	deliverer       Deliverer
	loc             *time.Location
	now             func() time.Time
	interval        time.Duration
	deliveryTimeout time.Duration

	mu        sync.Mutex
	lastSwept time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithInterval sets the sweep period, capped at one minute. Values under a
// minute still only sweep each minute once.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		switch {
		case d > time.Minute:
			s.interval = time.Minute
		case d > 0:
			s.interval = d
		}
	}
}

// WithDeliveryTimeout bounds a single delivery attempt.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

// New creates a new Scheduler working in the bot timezone loc.
func New(repo store.Repo, log *zap.Logger, deliverer Deliverer, loc *time.Location, opts ...Option) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		repo:            repo,
		log:             log.Named("scheduler"),
		deliverer:       deliverer,
		loc:             loc,
		now:             time.Now,
		interval:        defaultInterval,
		deliveryTimeout: defaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps immediately, then at every interval boundary until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	s.Sweep(ctx, s.now())

	timer := time.NewTimer(s.untilNextTick(s.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-timer.C:
			s.Sweep(ctx, s.now())
			timer.Reset(s.untilNextTick(s.now()))
		}
	}
}

func (s *Scheduler) untilNextTick(now time.Time) time.Duration {
	next := now.Truncate(s.interval).Add(s.interval)
	return next.Sub(now) + tickSlack
}

// Stats summarizes one sweep.
type Stats struct {
	Skipped   bool
	Minutes   int
	Due       int
	Delivered int
	Removed   int
}

// Sweep fires everything due at the minute containing now, plus the minutes
// since the previous sweep that were missed (at most maxCatchUp back). A
// minute is swept at most once; later calls for the same or an earlier
// minute are skipped.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) Stats {
	minute := domain.TruncateMinute(now.In(s.loc))

	s.mu.Lock()
	if !minute.After(s.lastSwept) {
		s.mu.Unlock()
		s.log.Debug("minute already swept", zap.Time("minute", minute))
		return Stats{Skipped: true}
	}
	from := minute
	if !s.lastSwept.IsZero() {
		from = s.lastSwept.Add(time.Minute)
		if earliest := minute.Add(-maxCatchUp); from.Before(earliest) {
			from = earliest
		}
	}
	s.lastSwept = minute
	s.mu.Unlock()

	log := s.log.With(zap.String("sweep", uuid.NewString()), zap.Time("minute", minute))
	if from.Before(minute) {
		log.Warn("catching up missed minutes", zap.Time("from", from))
	}

	var st Stats
	for m := from; !m.After(minute); m = m.Add(time.Minute) {
		st.Minutes++
		s.sweepMinute(ctx, log.With(zap.Time("due_minute", m)), m, &st)
	}

	if st.Due > 0 {
		log.Info("sweep done",
			zap.Int("minutes", st.Minutes),
			zap.Int("due", st.Due),
			zap.Int("delivered", st.Delivered),
			zap.Int("removed", st.Removed),
		)
	}
	return st
}

func (s *Scheduler) sweepMinute(ctx context.Context, log *zap.Logger, minute time.Time, st *Stats) {
	once, err := s.repo.DueOneTime(ctx, minute)
	if err != nil {
		// partial results may still be usable
		log.Error("DueOneTime failed", zap.Error(err))
	}
	for _, r := range once {
		st.Due++
		s.fireOnce(ctx, log, r, minute, st)
	}

	weekly, err := s.repo.DueWeekly(ctx, minute.Hour(), minute.Minute(), domain.WeekdayOf(minute.Weekday()))
	if err != nil {
		log.Error("DueWeekly failed", zap.Error(err))
	}
	for _, r := range weekly {
		st.Due++
		s.guard(log, r, func() {
			if s.deliver(ctx, log, r) == dispatch.Delivered {
				st.Delivered++
			}
		})
	}
}

// fireOnce claims (deletes) a one-time reminder before delivering it, so a
// racing delete or a second sweep cannot fire it again. The claim happens
// whatever the delivery outcome will be.
func (s *Scheduler) fireOnce(ctx context.Context, log *zap.Logger, r domain.Reminder, minute time.Time, st *Stats) {
	s.guard(log, r, func() {
		claimed, claimErr := s.repo.ClaimOneTime(ctx, r.ID, minute)
		switch {
		case claimErr != nil:
			// the minute will not come back, so this is still the only attempt
			log.Error("ClaimOneTime failed", zap.Error(claimErr), zap.Int64("id", r.ID))
		case !claimed:
			log.Debug("reminder changed or removed before firing", zap.Int64("id", r.ID))
			return
		default:
			st.Removed++
		}
		if s.deliver(ctx, log, r) == dispatch.Delivered {
			st.Delivered++
		}
		if claimErr == nil {
			return
		}
		// already delivered; drop the record so it does not linger in lists
		removed, err := s.repo.ClaimOneTime(ctx, r.ID, minute)
		switch {
		case err != nil:
			log.Error("removing fired reminder failed", zap.Error(err), zap.Int64("id", r.ID))
		case removed:
			st.Removed++
		}
	})
}

func (s *Scheduler) deliver(ctx context.Context, log *zap.Logger, r domain.Reminder) dispatch.Outcome {
	dctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	outcome, err := s.deliverer.Deliver(dctx, r.ServerID, r.ChannelID, r.AuthorID, r.Text)
	fields := []zap.Field{
		zap.Int64("id", r.ID),
		zap.String("server", r.ServerID),
		zap.String("channel", r.ChannelID),
		zap.Stringer("outcome", outcome),
	}
	switch {
	case err != nil:
		log.Error("send failed", append(fields, zap.Error(err))...)
	case outcome == dispatch.Delivered:
		log.Debug("reminder delivered", fields...)
	default:
		log.Info("reminder target missing", fields...)
	}
	return outcome
}

// guard keeps a panic in one reminder from ending the sweep.
func (s *Scheduler) guard(log *zap.Logger, r domain.Reminder, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("reminder panicked", zap.Int64("id", r.ID), zap.Any("panic", p), zap.Stack("stack"))
		}
	}()
	fn()
}
