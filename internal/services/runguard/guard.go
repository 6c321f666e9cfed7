// Package runguard guarantees at most one active hall run per account and
// carries the stop signal for each run.
package runguard

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
)

// Config holds the guard's dependencies
type Config struct {
	Clock clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	return vb.Build()
}

// AcquireInput identifies who wants to run an account
type AcquireInput struct {
	AccountID string
	// Owner is the user that started the session
	Owner     string
	SessionID string
}

// ActiveRun is a point-in-time copy of one registry entry
type ActiveRun struct {
	AccountID string
	Owner     string
	SessionID string
	StartedAt time.Time
	Elapsed   time.Duration
	State     hall.RunState
}

// Guard is the registry of active runs keyed by account
type Guard struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]*Handle
}

// New creates an empty guard
func New(cfg *Config) (*Guard, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Guard{
		clock:   cfg.Clock,
		entries: make(map[string]*Handle),
	}, nil
}

// TryAcquire registers the account as running. It fails with an
// AlreadyExists error when another run holds the account.
func (g *Guard) TryAcquire(input AcquireInput) (*Handle, error) {
	if input.AccountID == "" {
		return nil, errors.InvalidArgument("account id is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if held, ok := g.entries[input.AccountID]; ok {
		return nil, errors.AlreadyExistsf("account %s is already running", input.AccountID).
			WithMeta("account_id", input.AccountID).
			WithMeta("owner", held.owner).
			WithMeta("session_id", held.sessionID)
	}

	now := g.clock.Now()
	h := &Handle{
		guard:     g,
		accountID: input.AccountID,
		owner:     input.Owner,
		sessionID: input.SessionID,
		startedAt: now,
		stop:      make(chan struct{}),
		state: hall.RunState{
			AccountID: input.AccountID,
			Status:    hall.StatusRunning,
			StartedAt: now,
			UpdatedAt: now,
		},
	}
	g.entries[input.AccountID] = h
	return h, nil
}

// Release removes the account whoever holds it. Releasing an account that
// is not held only logs a warning.
func (g *Guard) Release(accountID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.entries[accountID]; !ok {
		slog.Warn("Release of account that is not running", "account_id", accountID)
		return
	}
	delete(g.entries, accountID)
}

func (g *Guard) releaseHandle(h *Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.entries[h.accountID] != h {
		slog.Warn("Release of stale run handle",
			"account_id", h.accountID,
			"session_id", h.sessionID,
		)
		return
	}
	delete(g.entries, h.accountID)
}

// IsRunning reports whether the account is held
func (g *Guard) IsRunning(accountID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[accountID]
	return ok
}

// ListActive snapshots every active run sorted by account
func (g *Guard) ListActive() []ActiveRun {
	g.mu.Lock()
	handles := make([]*Handle, 0, len(g.entries))
	for _, h := range g.entries {
		handles = append(handles, h)
	}
	g.mu.Unlock()

	now := g.clock.Now()
	out := make([]ActiveRun, 0, len(handles))
	for _, h := range handles {
		out = append(out, ActiveRun{
			AccountID: h.accountID,
			Owner:     h.owner,
			SessionID: h.sessionID,
			StartedAt: h.startedAt,
			Elapsed:   now.Sub(h.startedAt),
			State:     h.State(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// ListOwner snapshots the active runs started by owner
func (g *Guard) ListOwner(owner string) []ActiveRun {
	var out []ActiveRun
	for _, run := range g.ListActive() {
		if run.Owner == owner {
			out = append(out, run)
		}
	}
	return out
}

// RequestStop signals the account's run to stop. It returns false when the
// account is not running.
func (g *Guard) RequestStop(accountID string) bool {
	g.mu.Lock()
	h, ok := g.entries[accountID]
	g.mu.Unlock()

	if !ok {
		return false
	}
	h.requestStop()
	return true
}

// RequestStopOwner signals every run started by owner and returns how many
// runs were signalled.
func (g *Guard) RequestStopOwner(owner string) int {
	g.mu.Lock()
	var targets []*Handle
	for _, h := range g.entries {
		if h.owner == owner {
			targets = append(targets, h)
		}
	}
	g.mu.Unlock()

	for _, h := range targets {
		h.requestStop()
	}
	return len(targets)
}

// Handle is held by the run that owns an account
type Handle struct {
	guard     *Guard
	accountID string
	owner     string
	sessionID string
	startedAt time.Time

	stopOnce sync.Once
	stop     chan struct{}

	mu    sync.RWMutex
	state hall.RunState
}

// AccountID returns the held account
func (h *Handle) AccountID() string {
	return h.accountID
}

// SessionID returns the session that acquired the account
func (h *Handle) SessionID() string {
	return h.sessionID
}

// Stopped is closed once a stop is requested
func (h *Handle) Stopped() <-chan struct{} {
	return h.stop
}

// StopRequested polls the stop signal
func (h *Handle) StopRequested() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

func (h *Handle) requestStop() {
	h.stopOnce.Do(func() {
		slog.Info("Stop requested", "account_id", h.accountID, "session_id", h.sessionID)
		close(h.stop)
	})
}

// Update publishes the latest run state for status queries
func (h *Handle) Update(state hall.RunState) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
}

// State returns the latest published run state
func (h *Handle) State() hall.RunState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Release removes the entry if this handle still holds it
func (h *Handle) Release() {
	h.guard.releaseHandle(h)
}
