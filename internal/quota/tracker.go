// Package quota enforces per-provider call budgets with daily or monthly
// reset windows. Counters persist across process restarts through the store;
// the in-memory state stays authoritative for the process lifetime.
package quota

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// Window kinds. Resets happen at exact calendar boundaries, determined by
// string comparison of markers, never by elapsed-time math.
const (
	WindowDaily   = "daily"
	WindowMonthly = "monthly"
)

// ProviderStatus is a point-in-time view of one provider's usage.
type ProviderStatus struct {
	Provider  string `json:"provider"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Window    string `json:"window"`
	LastReset string `json:"last_reset"`
}

// Tracker tracks API usage against per-provider limits. All methods are safe
// for concurrent use; Acquire provides atomic check-then-increment for
// concurrent callers.
type Tracker struct {
	mu     sync.Mutex
	store  store.Store
	states map[string]*model.QuotaState
	now    func() time.Time

	persistFailures int
}

// New creates a Tracker for the configured providers, restoring persisted
// counters from the store. Store load failure is non-fatal; usage restarts
// from zero.
func New(ctx context.Context, st store.Store, providers map[string]config.ProviderQuota) *Tracker {
	t := &Tracker{
		store:  st,
		states: make(map[string]*model.QuotaState, len(providers)),
		now:    time.Now,
	}

	for name, pq := range providers {
		window := pq.Window
		if window != WindowMonthly {
			window = WindowDaily
		}
		t.states[name] = &model.QuotaState{
			Provider:  name,
			Window:    window,
			LastReset: t.marker(window, time.Now()),
			Limit:     pq.Limit,
		}
	}

	if st != nil {
		persisted, err := st.LoadQuota(ctx)
		if err != nil {
			zap.L().Warn("quota: load persisted state failed, starting fresh", zap.Error(err))
		} else {
			for _, p := range persisted {
				cur, ok := t.states[p.Provider]
				if !ok {
					// Provider removed from config; drop its history.
					continue
				}
				cur.Counter = p.Counter
				cur.LastReset = p.LastReset
			}
		}
	}

	return t
}

// WithNow sets a fixed clock for testing.
func (t *Tracker) WithNow(now func() time.Time) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	return t
}

// CanUse reports whether provider has budget for n more calls. It performs
// the lazy reset check but never mutates the counter and never persists.
// Unknown providers fail closed.
func (t *Tracker) CanUse(provider string, n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[provider]
	if !ok {
		zap.L().Warn("quota: unknown provider", zap.String("provider", provider))
		return false
	}
	t.checkReset(st)
	return st.Counter+n <= st.Limit
}

// Increment adds n to provider's counter and persists the full state.
// Callers must check CanUse first; the tracker trusts the caller. Unknown
// providers are a logged no-op.
func (t *Tracker) Increment(ctx context.Context, provider string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[provider]
	if !ok {
		zap.L().Warn("quota: unknown provider", zap.String("provider", provider))
		return
	}
	t.checkReset(st)
	st.Counter += n

	zap.L().Debug("quota: usage",
		zap.String("provider", provider),
		zap.Int("used", st.Counter),
		zap.Int("limit", st.Limit),
	)

	t.persistLocked(ctx)
}

// Acquire atomically checks and claims n calls for provider. Under
// concurrency two callers can never jointly exceed the limit.
func (t *Tracker) Acquire(ctx context.Context, provider string, n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[provider]
	if !ok {
		zap.L().Warn("quota: unknown provider", zap.String("provider", provider))
		return false
	}
	t.checkReset(st)
	if st.Counter+n > st.Limit {
		return false
	}
	st.Counter += n
	t.persistLocked(ctx)
	return true
}

// Remaining returns provider's remaining budget in the current window.
// Unknown providers report zero.
func (t *Tracker) Remaining(provider string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[provider]
	if !ok {
		return 0
	}
	t.checkReset(st)
	return st.Limit - st.Counter
}

// Status returns the usage view for every provider, plus persist-failure
// accounting so best-effort durability stays observable.
func (t *Tracker) Status() (map[string]ProviderStatus, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]ProviderStatus, len(t.states))
	for name, st := range t.states {
		t.checkReset(st)
		out[name] = ProviderStatus{
			Provider:  name,
			Used:      st.Counter,
			Limit:     st.Limit,
			Remaining: st.Limit - st.Counter,
			Window:    st.Window,
			LastReset: st.LastReset,
		}
	}
	return out, t.persistFailures
}

// checkReset zeroes the counter when the stored window marker no longer
// matches the current one. Caller holds the lock.
func (t *Tracker) checkReset(st *model.QuotaState) {
	current := t.marker(st.Window, t.now())
	if st.LastReset == current {
		return
	}
	if st.Counter > 0 {
		zap.L().Info("quota: window reset",
			zap.String("provider", st.Provider),
			zap.String("window", st.Window),
			zap.Int("previous_used", st.Counter),
			zap.Int("limit", st.Limit),
		)
	}
	st.Counter = 0
	st.LastReset = current
}

func (t *Tracker) marker(window string, now time.Time) string {
	if window == WindowMonthly {
		return now.Format("2006-01")
	}
	return now.Format("2006-01-02")
}

// persistLocked writes the full state to the store. Failures are swallowed
// (in-memory state stays authoritative) but counted. Caller holds the lock.
func (t *Tracker) persistLocked(ctx context.Context) {
	if t.store == nil {
		return
	}
	states := make([]model.QuotaState, 0, len(t.states))
	for _, st := range t.states {
		states = append(states, *st)
	}
	if err := t.store.SaveQuota(ctx, states); err != nil {
		t.persistFailures++
		zap.L().Error("quota: persist failed, continuing with in-memory state", zap.Error(err))
	}
}
