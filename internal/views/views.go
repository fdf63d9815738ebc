// Package views names the logical read views that mutations invalidate.
// The core only signals staleness; refreshing cached reads is the
// caller's job.
package views

import (
	"sync"

	"github.com/google/uuid"
)

// View names one cached read surface.
type View string

const (
	StatementList View = "statement_list"
	ExpenseList   View = "expense_list"
	Dashboard     View = "dashboard"
	TransferList  View = "transfer_list"
	AccountList   View = "account_list"
)

// Invalidator receives staleness signals after mutating operations.
type Invalidator interface {
	Invalidate(userID uuid.UUID, views ...View)
}

// Recorder is an Invalidator that accumulates stale views per user.
// The default wiring uses it so a frontend can poll what to refresh;
// tests use it to assert signaling.
type Recorder struct {
	mu    sync.Mutex
	stale map[uuid.UUID]map[View]struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{stale: make(map[uuid.UUID]map[View]struct{})}
}

func (r *Recorder) Invalidate(userID uuid.UUID, views ...View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.stale[userID]
	if !ok {
		m = make(map[View]struct{})
		r.stale[userID] = m
	}
	for _, v := range views {
		m[v] = struct{}{}
	}
}

// Stale returns the views currently marked stale for a user, in no
// particular order.
func (r *Recorder) Stale(userID uuid.UUID) []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]View, 0, len(r.stale[userID]))
	for v := range r.stale[userID] {
		out = append(out, v)
	}
	return out
}

// Flush clears and returns the stale set for a user.
func (r *Recorder) Flush(userID uuid.UUID) []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]View, 0, len(r.stale[userID]))
	for v := range r.stale[userID] {
		out = append(out, v)
	}
	delete(r.stale, userID)
	return out
}

// Noop discards all signals. Useful when no cache sits in front.
type Noop struct{}

func (Noop) Invalidate(uuid.UUID, ...View) {}
