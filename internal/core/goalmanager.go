package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// allowedTransitions is the goal state machine. Any non-terminal state may
// also move to ABANDONED.
var allowedTransitions = map[models.GoalStatus][]models.GoalStatus{
	models.GoalPending:          {models.GoalPlanned, models.GoalCompleted, models.GoalFailed},
	models.GoalPlanned:          {models.GoalExecuting, models.GoalFailed},
	models.GoalExecuting:        {models.GoalAwaitingTeaching, models.GoalCompleted, models.GoalFailed},
	models.GoalAwaitingTeaching: {models.GoalExecuting, models.GoalFailed},
}

// CanTransition reports whether from -> to is a legal goal transition.
func CanTransition(from, to models.GoalStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.GoalAbandoned {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// GoalManager owns the goal queue and the lifecycle of every goal. Enqueue
// is safe concurrently with ticking; everything else is driven by the
// scheduler under its tick lock.
type GoalManager struct {
	mu      sync.Mutex
	active  []*models.Goal
	history []*models.Goal
	seq     uint64
	now     func() time.Time
}

// NewGoalManager creates an empty goal manager.
func NewGoalManager() *GoalManager {
	return &GoalManager{now: func() time.Time { return time.Now().UTC() }}
}

// Push enqueues a new goal in PENDING and returns it. ID, sequence and
// timestamps are assigned here.
func (gm *GoalManager) Push(g *models.Goal) *models.Goal {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.seq++
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.Seq = gm.seq
	g.Status = models.GoalPending
	g.CreatedAt = gm.now()
	g.UpdatedAt = g.CreatedAt
	gm.active = append(gm.active, g)
	return g
}

// less orders goals by priority descending, then creation order.
func less(a, b *models.Goal) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Seq < b.Seq
}

// Ordered returns the active goals in service order.
func (gm *GoalManager) Ordered() []*models.Goal {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	out := append([]*models.Goal(nil), gm.active...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Next returns the first goal in service order that eligible accepts.
func (gm *GoalManager) Next(eligible func(*models.Goal) bool) *models.Goal {
	for _, g := range gm.Ordered() {
		if eligible(g) {
			return g
		}
	}
	return nil
}

// Get finds a goal among active goals and then history.
func (gm *GoalManager) Get(id string) (*models.Goal, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	for _, g := range gm.active {
		if g.ID == id {
			return g, true
		}
	}
	for _, g := range gm.history {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Transition moves g to status. Terminal goals leave the active queue and
// are kept in history; FAILED and ABANDONED goals require a reason.
func (gm *GoalManager) Transition(g *models.Goal, to models.GoalStatus, reason string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if !CanTransition(g.Status, to) {
		return fmt.Errorf("goal %s: %s -> %s: %w", g.ID, g.Status, to, ErrInvalidTransition)
	}
	if (to == models.GoalFailed || to == models.GoalAbandoned) && reason == "" {
		reason = string(to)
	}
	g.Status = to
	if reason != "" {
		g.Reason = reason
	}
	g.UpdatedAt = gm.now()
	if to.Terminal() {
		for i, a := range gm.active {
			if a == g {
				gm.active = append(gm.active[:i], gm.active[i+1:]...)
				break
			}
		}
		gm.history = append(gm.history, g)
	}
	return nil
}

// Active returns copies of the active goals in service order.
func (gm *GoalManager) Active() []*models.Goal {
	ordered := gm.Ordered()
	out := make([]*models.Goal, len(ordered))
	for i, g := range ordered {
		out[i] = g.Clone()
	}
	return out
}

// History returns copies of terminal goals, oldest first.
func (gm *GoalManager) History() []*models.Goal {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	out := make([]*models.Goal, len(gm.history))
	for i, g := range gm.history {
		out[i] = g.Clone()
	}
	return out
}

// Count returns the number of active goals.
func (gm *GoalManager) Count() int {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return len(gm.active)
}

// Snapshot returns the persisted form of the queue.
func (gm *GoalManager) Snapshot() (seq uint64, active, history []models.Goal) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	for _, g := range gm.active {
		active = append(active, *g.Clone())
	}
	for _, g := range gm.history {
		history = append(history, *g.Clone())
	}
	return gm.seq, active, history
}

// Restore replaces the queue with persisted goals.
func (gm *GoalManager) Restore(seq uint64, active, history []models.Goal) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.seq = seq
	gm.active = gm.active[:0]
	gm.history = gm.history[:0]
	for i := range active {
		g := active[i].Clone()
		if g.Seq > gm.seq {
			gm.seq = g.Seq
		}
		gm.active = append(gm.active, g)
	}
	for i := range history {
		gm.history = append(gm.history, history[i].Clone())
	}
}
