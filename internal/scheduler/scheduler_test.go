package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/dispatch"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/store"
)

var wib = time.FixedZone("WIB", 7*60*60)

type call struct {
	server, channel, user, text string
}

type fakeDeliverer struct {
	mu      sync.Mutex
	calls   []call
	outcome dispatch.Outcome
	err     error
	hook    func(c call)
}

func (f *fakeDeliverer) Deliver(_ context.Context, serverID, channelID, userID, text string) (dispatch.Outcome, error) {
	c := call{serverID, channelID, userID, text}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.hook != nil {
		f.hook(c)
	}
	return f.outcome, f.err
}

func (f *fakeDeliverer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestScheduler(t *testing.T, repo store.Repo, d Deliverer) *Scheduler {
	t.Helper()
	return New(repo, zap.NewNop(), d, wib)
}

func create(t *testing.T, repo store.Repo, text string, s domain.Schedule) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &domain.Reminder{
		ServerID: "guild", ChannelID: "chan", AuthorID: "user", Text: text, Schedule: s,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}

func TestSweep_OneTimeFiresOnceAndIsRemoved(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory(wib)
	d := &fakeDeliverer{}
	s := newTestScheduler(t, repo, d)

	due := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	id := create(t, repo, "minum air", domain.Once(due))

	st := s.Sweep(ctx, due.Add(3*time.Second))
	if st.Delivered != 1 || st.Removed != 1 {
		t.Fatalf("first sweep: %+v", st)
	}
	if got := d.calls[0]; got != (call{"guild", "chan", "user", "minum air"}) {
		t.Fatalf("unexpected delivery %+v", got)
	}
	if _, err := repo.Get(ctx, "guild", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("reminder still stored: %v", err)
	}

	st = s.Sweep(ctx, due.Add(time.Minute))
	if st.Due != 0 || d.count() != 1 {
		t.Fatalf("second sweep fired again: %+v, calls=%d", st, d.count())
	}
}

func TestSweep_OneTimeRemovedWhenTargetGone(t *testing.T) {
	for _, outcome := range []dispatch.Outcome{dispatch.TargetGone, dispatch.ChannelGone, dispatch.Failed} {
		ctx := context.Background()
		repo := store.NewMemory(wib)
		d := &fakeDeliverer{outcome: outcome}
		if outcome == dispatch.Failed {
			d.err = errors.New("boom")
		}
		s := newTestScheduler(t, repo, d)

		due := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
		id := create(t, repo, "x", domain.Once(due))
		s.Sweep(ctx, due)

		if _, err := repo.Get(ctx, "guild", id); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("%s: reminder not removed", outcome)
		}
	}
}

func TestSweep_WeeklyFiresOnMatchingDaysOnly(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory(wib)
	d := &fakeDeliverer{}
	s := newTestScheduler(t, repo, d)

	id := create(t, repo, "olahraga", domain.Weekly(8, 30, []domain.Weekday{0}))

	monday := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	if monday.Weekday() != time.Monday {
		t.Fatalf("fixture is not a Monday: %s", monday.Weekday())
	}

	if st := s.Sweep(ctx, monday); st.Delivered != 1 {
		t.Fatalf("monday: %+v", st)
	}
	if st := s.Sweep(ctx, monday.AddDate(0, 0, 1)); st.Due != 0 {
		t.Fatalf("tuesday: %+v", st)
	}
	if st := s.Sweep(ctx, monday.AddDate(0, 0, 7)); st.Delivered != 1 {
		t.Fatalf("next monday: %+v", st)
	}
	if d.count() != 2 {
		t.Fatalf("want 2 deliveries, got %d", d.count())
	}
	if _, err := repo.Get(ctx, "guild", id); err != nil {
		t.Fatalf("weekly reminder removed: %v", err)
	}
}

func TestSweep_SameMinuteOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory(wib)
	d := &fakeDeliverer{}
	s := newTestScheduler(t, repo, d)

	monday := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	create(t, repo, "olahraga", domain.Weekly(8, 30, []domain.Weekday{0}))

	s.Sweep(ctx, monday.Add(time.Second))
	if st := s.Sweep(ctx, monday.Add(50*time.Second)); !st.Skipped {
		t.Fatalf("second sweep in same minute not skipped: %+v", st)
	}
	if d.count() != 1 {
		t.Fatalf("want 1 delivery, got %d", d.count())
	}
}

func TestSweep_DeletedBeforeSweepDoesNotFire(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory(wib)
	due := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	keep := create(t, repo, "keep", domain.Once(due))
	drop := create(t, repo, "drop", domain.Once(due))

	// the first delivery deletes the second reminder, as a user command racing the sweep would
	d := &fakeDeliverer{}
	d.hook = func(c call) {
		if c.text == "keep" {
			_, _ = repo.Delete(ctx, "guild", drop)
		}
	}
	st := newTestScheduler(t, repo, d).Sweep(ctx, due)
	if st.Delivered != 1 || d.count() != 1 || d.calls[0].text != "keep" {
		t.Fatalf("want only %d delivered, got %+v calls=%+v", keep, st, d.calls)
	}
}

type panicky struct{ fakeDeliverer }

func (p *panicky) Deliver(ctx context.Context, serverID, channelID, userID, text string) (dispatch.Outcome, error) {
	if text == "bad" {
		panic("corrupt reminder")
	}
	return p.fakeDeliverer.Deliver(ctx, serverID, channelID, userID, text)
}

func TestSweep_PanicDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory(wib)
	due := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	create(t, repo, "bad", domain.Once(due))
	create(t, repo, "good", domain.Once(due))
	create(t, repo, "weekly", domain.Weekly(8, 30, []domain.Weekday{0}))

	d := &panicky{}
	st := newTestScheduler(t, repo, d).Sweep(ctx, due)
	if st.Due != 3 || st.Delivered != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if left, _ := repo.DueOneTime(ctx, due); len(left) != 0 {
		t.Fatalf("panicking one-time reminder not removed: %d left", len(left))
	}
}

func TestRun_SweepsOnStartAndStops(t *testing.T) {
	repo := store.NewMemory(wib)
	now := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	create(t, repo, "now", domain.Once(now))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := &fakeDeliverer{hook: func(call) { cancel() }}
	s := New(repo, zap.NewNop(), d, wib, WithClock(func() time.Time { return now }))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if d.count() != 1 {
		t.Fatalf("want 1 delivery, got %d", d.count())
	}
}

func TestUntilNextTick_AlignsToMinute(t *testing.T) {
	s := New(store.NewMemory(wib), zap.NewNop(), &fakeDeliverer{}, wib)
	now := time.Date(2024, time.May, 6, 8, 30, 45, 0, wib)
	if got, want := s.untilNextTick(now), 15*time.Second+tickSlack; got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestSweep_CatchesUpMissedMinutes(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory(wib)
	d := &fakeDeliverer{}
	s := newTestScheduler(t, repo, d)

	start := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	missed := create(t, repo, "missed", domain.Once(start.Add(time.Minute)))

	s.Sweep(ctx, start)
	// the previous sweep overran the 08:31 boundary
	st := s.Sweep(ctx, start.Add(2*time.Minute+10*time.Second))
	if st.Minutes != 2 || st.Delivered != 1 || st.Removed != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if _, err := repo.Get(ctx, "guild", missed); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missed reminder still stored: %v", err)
	}
	if st := s.Sweep(ctx, start.Add(3*time.Minute)); st.Minutes != 1 || st.Due != 0 {
		t.Fatalf("next sweep: %+v", st)
	}
	if d.count() != 1 {
		t.Fatalf("want 1 delivery, got %d", d.count())
	}
}

func TestSweep_CatchUpIsBounded(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory(wib)
	d := &fakeDeliverer{}
	s := newTestScheduler(t, repo, d)

	start := time.Date(2024, time.May, 6, 8, 0, 0, 0, wib)
	create(t, repo, "too old", domain.Once(start.Add(5*time.Minute)))
	create(t, repo, "recent", domain.Once(start.Add(55*time.Minute)))

	s.Sweep(ctx, start)
	st := s.Sweep(ctx, start.Add(time.Hour))
	if st.Minutes != 11 || st.Delivered != 1 || d.calls[0].text != "recent" {
		t.Fatalf("unexpected stats %+v calls=%+v", st, d.calls)
	}
}

func TestSweep_FirstSweepDoesNotLookBack(t *testing.T) {
	repo := store.NewMemory(wib)
	now := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	create(t, repo, "earlier", domain.Once(now.Add(-time.Minute)))

	st := newTestScheduler(t, repo, &fakeDeliverer{}).Sweep(context.Background(), now)
	if st.Minutes != 1 || st.Due != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

// flakyClaimRepo fails the first ClaimOneTime call.
type flakyClaimRepo struct {
	*store.MemoryRepo
	mu     sync.Mutex
	failed bool
}

func (f *flakyClaimRepo) ClaimOneTime(ctx context.Context, id int64, minute time.Time) (bool, error) {
	f.mu.Lock()
	first := !f.failed
	f.failed = true
	f.mu.Unlock()
	if first {
		return false, errors.New("database is locked")
	}
	return f.MemoryRepo.ClaimOneTime(ctx, id, minute)
}

func TestSweep_ClaimErrorStillRemovesAfterDelivery(t *testing.T) {
	ctx := context.Background()
	repo := &flakyClaimRepo{MemoryRepo: store.NewMemory(wib)}
	d := &fakeDeliverer{}
	due := time.Date(2024, time.May, 6, 8, 30, 0, 0, wib)
	id := create(t, repo, "minum air", domain.Once(due))

	st := newTestScheduler(t, repo, d).Sweep(ctx, due)
	if st.Delivered != 1 || st.Removed != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if _, err := repo.Get(ctx, "guild", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("fired reminder still stored: %v", err)
	}
}

func TestWithInterval_CappedAtOneMinute(t *testing.T) {
	s := New(store.NewMemory(wib), zap.NewNop(), &fakeDeliverer{}, wib, WithInterval(2*time.Minute))
	now := time.Date(2024, time.May, 6, 8, 30, 10, 0, wib)
	if got, want := s.untilNextTick(now), 50*time.Second+tickSlack; got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}
