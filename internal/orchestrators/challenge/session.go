package challenge

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
)

// Session is one user's batch of accounts. It completes when every
// launched account reaches a terminal state.
type Session struct {
	ID        string
	User      string
	Hall      hall.Name
	StartedAt time.Time

	accounts []string
	key      string
	done     chan struct{}

	mu         sync.Mutex
	outcomes   map[string]hall.Outcome
	finishedAt time.Time
}

func newSession(id, user string, accounts []string, h hall.Name, now time.Time) *Session {
	return &Session{
		ID:        id,
		User:      user,
		Hall:      h,
		StartedAt: now,
		accounts:  accounts,
		key:       accountSetKey(accounts, h),
		done:      make(chan struct{}),
		outcomes:  make(map[string]hall.Outcome, len(accounts)),
	}
}

// AccountIDs returns the accounts requested for the session
func (s *Session) AccountIDs() []string {
	return append([]string(nil), s.accounts...)
}

// Done is closed when the session completes
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsDone reports whether the session has completed
func (s *Session) IsDone() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the session completes or ctx ends
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outcome returns the recorded outcome of one account
func (s *Session) Outcome(accountID string) (hall.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[accountID]
	return o, ok
}

// Summary lists the outcome of every account that has finished, in request
// order.
func (s *Session) Summary() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := &Summary{
		SessionID:  s.ID,
		User:       s.User,
		StartedAt:  s.StartedAt,
		FinishedAt: s.finishedAt,
		Done:       !s.finishedAt.IsZero(),
		Outcomes:   make([]hall.Outcome, 0, len(s.outcomes)),
	}
	for _, id := range s.accounts {
		if o, ok := s.outcomes[id]; ok {
			sum.Outcomes = append(sum.Outcomes, o)
		}
	}
	return sum
}

func (s *Session) record(o hall.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[o.AccountID] = o
}

func (s *Session) finish(now time.Time) {
	s.mu.Lock()
	s.finishedAt = now
	s.mu.Unlock()
	close(s.done)
}

// accountSetKey identifies a request independent of account order
func accountSetKey(accounts []string, h hall.Name) string {
	sorted := append([]string(nil), accounts...)
	sort.Strings(sorted)
	return string(h) + "|" + strings.Join(sorted, ",")
}

// normalizeAccounts trims, drops empties and removes duplicates while
// keeping request order.
func normalizeAccounts(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
