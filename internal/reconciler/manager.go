package reconciler

import (
	"context"
	"sort"
	"sync"
	"time"

	"roomop/pkg/logging"
)

// RoomStatus is the operator's view of one managed room.
type RoomStatus struct {
	RoomID        string     `json:"roomId"`
	Reconciling   bool       `json:"reconciling"`
	LastState     CycleState `json:"lastState"`
	LastReconcile *time.Time `json:"lastReconcile,omitempty"`
	LastResult    *Result    `json:"lastResult,omitempty"`

	// CyclesSinceConverged counts consecutive finished cycles that left the
	// room drifted; zero means the last cycle converged.
	CyclesSinceConverged int `json:"cyclesSinceConverged"`
}

// roomRunner serializes cycles of one room. cycleMu is held for the whole
// duration of a cycle; stateMu guards the lightweight bookkeeping.
type roomRunner struct {
	cycleMu sync.Mutex

	stateMu  sync.Mutex
	pending  *Request
	draining bool
	status   RoomStatus
}

// Manager runs reconcile cycles with at most one in-flight cycle per room.
// Different rooms reconcile independently. Scheduled triggers that arrive
// while a room is busy coalesce: only the latest pending request runs next.
type Manager struct {
	cycle *Cycle

	mu    sync.Mutex
	rooms map[string]*roomRunner
}

// NewManager creates a manager executing cycles over the given dependencies.
func NewManager(deps Deps) *Manager {
	return &Manager{
		cycle: NewCycle(deps),
		rooms: make(map[string]*roomRunner),
	}
}

func (m *Manager) runner(roomID string) *roomRunner {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		r = &roomRunner{status: RoomStatus{RoomID: roomID, LastState: StateIdle}}
		m.rooms[roomID] = r
	}
	return r
}

// Reconcile runs one cycle synchronously, waiting for any in-flight cycle
// of the same room to finish first.
func (m *Manager) Reconcile(ctx context.Context, req Request) Result {
	if req.Spec == nil {
		return m.cycle.Run(ctx, req)
	}
	r := m.runner(req.Spec.Spec.RoomID)

	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	r.setReconciling(true)
	result := m.cycle.Run(ctx, req)
	r.recordResult(result)
	return result
}

// Schedule queues one cycle without waiting for it. While a room is busy,
// later schedules replace the pending request rather than stacking up, so a
// burst of triggers runs at most one extra cycle with the newest spec.
func (m *Manager) Schedule(ctx context.Context, req Request) {
	if req.Spec == nil {
		return
	}
	r := m.runner(req.Spec.Spec.RoomID)

	r.stateMu.Lock()
	replaced := r.pending != nil
	r.pending = &req
	if r.draining {
		r.stateMu.Unlock()
		if replaced {
			logging.Debug("Reconciler", "coalesced trigger for room %s", req.Spec.Spec.RoomID)
		}
		return
	}
	r.draining = true
	r.stateMu.Unlock()

	go m.drain(ctx, r)
}

// drain runs pending requests of one room until none remain.
func (m *Manager) drain(ctx context.Context, r *roomRunner) {
	for {
		r.stateMu.Lock()
		next := r.pending
		r.pending = nil
		if next == nil {
			r.draining = false
			r.stateMu.Unlock()
			return
		}
		r.stateMu.Unlock()

		if ctx.Err() != nil {
			r.stateMu.Lock()
			r.draining = false
			r.pending = nil
			r.stateMu.Unlock()
			return
		}
		m.Reconcile(ctx, *next)
	}
}

// Status returns the status of one room; ok is false for unknown rooms.
func (m *Manager) Status(roomID string) (RoomStatus, bool) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return RoomStatus{}, false
	}
	return r.snapshot(), true
}

// StatusAll returns the status of every known room, ordered by room ID.
func (m *Manager) StatusAll() []RoomStatus {
	m.mu.Lock()
	runners := make([]*roomRunner, 0, len(m.rooms))
	for _, r := range m.rooms {
		runners = append(runners, r)
	}
	m.mu.Unlock()

	statuses := make([]RoomStatus, 0, len(runners))
	for _, r := range runners {
		statuses = append(statuses, r.snapshot())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].RoomID < statuses[j].RoomID
	})
	return statuses
}

func (r *roomRunner) setReconciling(v bool) {
	r.stateMu.Lock()
	r.status.Reconciling = v
	r.stateMu.Unlock()
}

func (r *roomRunner) recordResult(result Result) {
	finished := result.EndTime

	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	r.status.Reconciling = false
	r.status.LastState = result.State
	r.status.LastReconcile = &finished
	r.status.LastResult = &result
	if result.Converged() {
		r.status.CyclesSinceConverged = 0
	} else {
		r.status.CyclesSinceConverged++
	}
}

func (r *roomRunner) snapshot() RoomStatus {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.status
}
