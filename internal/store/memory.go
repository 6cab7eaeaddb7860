package store

import (
	"context"
	"sync"
	"time"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/domain"
)

// MemoryRepo keeps reminders in process memory. Contents are lost on exit.
type MemoryRepo struct {
	mu     sync.RWMutex
	loc    *time.Location
	now    func() time.Time
	nextID int64
	byID   map[int64]domain.Reminder
	order  []int64
}

// NewMemory returns an empty in-memory repository.
func NewMemory(loc *time.Location) *MemoryRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryRepo{
		loc:  loc,
		now:  time.Now,
		byID: make(map[int64]domain.Reminder),
	}
}

func (m *MemoryRepo) Close() error { return nil }

func (m *MemoryRepo) Create(_ context.Context, rem *domain.Reminder) (int64, error) {
	if err := prepare(rem); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if rem.CreatedAt.IsZero() {
		rem.CreatedAt = m.now().In(m.loc)
	}
	m.nextID++
	rem.ID = m.nextID
	m.byID[rem.ID] = clone(*rem)
	m.order = append(m.order, rem.ID)
	return rem.ID, nil
}

func (m *MemoryRepo) Get(_ context.Context, serverID string, id int64) (*domain.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rem, ok := m.byID[id]
	if !ok || rem.ServerID != serverID {
		return nil, ErrNotFound
	}
	out := clone(rem)
	return &out, nil
}

func (m *MemoryRepo) ListByServer(_ context.Context, serverID string) ([]domain.Reminder, error) {
	return m.filter(func(r domain.Reminder) bool { return r.ServerID == serverID }), nil
}

func (m *MemoryRepo) ListAll(_ context.Context) ([]domain.Reminder, error) {
	return m.filter(func(domain.Reminder) bool { return true }), nil
}

func (m *MemoryRepo) Update(_ context.Context, serverID string, id int64, text string, s domain.Schedule) error {
	s = normalize(s)
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rem, ok := m.byID[id]
	if !ok || rem.ServerID != serverID {
		return ErrNotFound
	}
	rem.Text = text
	rem.Schedule = s
	m.byID[id] = clone(rem)
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, serverID string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rem, ok := m.byID[id]
	if !ok || rem.ServerID != serverID {
		return false, nil
	}
	m.remove(id)
	return true, nil
}

func (m *MemoryRepo) DueOneTime(_ context.Context, minute time.Time) ([]domain.Reminder, error) {
	at := domain.TruncateMinute(minute)
	return m.filter(func(r domain.Reminder) bool {
		return r.Schedule.Kind == domain.KindOnce && r.Schedule.At.Equal(at)
	}), nil
}

func (m *MemoryRepo) DueWeekly(_ context.Context, hour, minute int, day domain.Weekday) ([]domain.Reminder, error) {
	return m.filter(func(r domain.Reminder) bool {
		s := r.Schedule
		return s.Kind == domain.KindWeekly && s.Hour == hour && s.Minute == minute && s.HasDay(day)
	}), nil
}

func (m *MemoryRepo) ClaimOneTime(_ context.Context, id int64, minute time.Time) (bool, error) {
	at := domain.TruncateMinute(minute)
	m.mu.Lock()
	defer m.mu.Unlock()

	rem, ok := m.byID[id]
	if !ok || rem.Schedule.Kind != domain.KindOnce || !rem.Schedule.At.Equal(at) {
		return false, nil
	}
	m.remove(id)
	return true, nil
}

// remove expects m.mu to be held.
func (m *MemoryRepo) remove(id int64) {
	delete(m.byID, id)
	for i, x := range m.order {
		if x == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *MemoryRepo) filter(keep func(domain.Reminder) bool) []domain.Reminder {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []domain.Reminder
	for _, id := range m.order {
		if rem := m.byID[id]; keep(rem) {
			res = append(res, clone(rem))
		}
	}
	return res
}

func clone(r domain.Reminder) domain.Reminder {
	if r.Schedule.Days != nil {
		r.Schedule.Days = append([]domain.Weekday(nil), r.Schedule.Days...)
	}
	return r
}
