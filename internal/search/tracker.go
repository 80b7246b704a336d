package search

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Outcome is a completed search as shown to the shopper.
type Outcome struct {
	Token       uint64             `json:"token"`
	Raw         string             `json:"raw"`
	Query       domain.ParsedQuery `json:"query"`
	Result      *Result            `json:"result"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Tracker orders the searches of one session. Every Begin issues a larger
// token and cancels the search started before it; only the holder of the
// newest token may publish its outcome.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	latest *Outcome
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin starts a search. The returned context is cancelled when a newer
// search begins, on Finish, or on Stop.
func (t *Tracker) Begin(ctx context.Context) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	return ctx, t.seq
}

// Commit publishes o if its token is still the newest. It reports whether
// the outcome became visible.
func (t *Tracker) Commit(o Outcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if o.Token != t.seq {
		return false
	}
	t.latest = &o
	return true
}

// Finish releases the context handed out for token.
func (t *Tracker) Finish(token uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if token == t.seq && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) Latest() (Outcome, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latest == nil {
		return Outcome{}, false
	}
	return *t.latest, true
}

// Stop cancels any search in flight.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}
