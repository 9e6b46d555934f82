package session

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-pos/utils"
)

// MemoryStore keeps everything in process. Expired sessions are evicted lazily
// on access and by the sweeper.
type MemoryStore struct {
	idle time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	calls    map[uint]WaiterCall

	stop chan struct{}
	once sync.Once
}

func NewMemoryStore(idle time.Duration) *MemoryStore {
	return &MemoryStore{
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*Session),
		calls:    make(map[uint]WaiterCall),
		stop:     make(chan struct{}),
	}
}

// StartSweeper evicts expired sessions every interval until Close.
func (m *MemoryStore) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.sweep(); n > 0 {
					utils.InfoLogger.Debugf("session: swept %d idle sessions", n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *MemoryStore) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *MemoryStore) expired(s *Session, now time.Time) bool {
	return now.Sub(s.LastSeen) > m.idle
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.LastSeen = m.now()
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	if m.expired(s, now) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	s.LastSeen = now
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) DeleteForStaff(_ context.Context, staffID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.StaffID == staffID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MemoryStore) AddCall(_ context.Context, call WaiterCall) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, existed := m.calls[call.TableID]
	m.calls[call.TableID] = call
	return !existed, nil
}

func (m *MemoryStore) Calls(_ context.Context) ([]WaiterCall, error) {
	m.mu.Lock()
	calls := make([]WaiterCall, 0, len(m.calls))
	for _, c := range m.calls {
		calls = append(calls, c)
	}
	m.mu.Unlock()
	sortCalls(calls)
	return calls, nil
}

func (m *MemoryStore) ClearCall(_ context.Context, tableID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.calls, tableID)
	return nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
