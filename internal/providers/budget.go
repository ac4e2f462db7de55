package providers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Budget rations calls to one provider. It combines a per-second limiter
// (strict API rate limits) with a rolling window counter (metered plans,
// e.g. 100 calls per month). Allow is the single source of truth for
// "may I call now" and is checked immediately before each call, so concurrent
// refreshes for different flights sharing a provider cannot race past the
// limit.
type Budget struct {
	name string

	mu          sync.Mutex
	limiter     *rate.Limiter // nil means no per-second limit
	windowMax   int           // 0 means no window limit
	window      time.Duration
	windowStart time.Time
	used        int
}

// NewBudget creates a budget. perSecond <= 0 disables the per-second gate;
// callsPerWindow <= 0 disables the window counter.
func NewBudget(name string, perSecond float64, burst, callsPerWindow int, window time.Duration) *Budget {
	b := &Budget{
		name:      name,
		windowMax: callsPerWindow,
		window:    window,
	}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return b
}

// Allow consumes one call slot if available. A false return means the call
// must be deferred, never dropped as failed.
func (b *Budget) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.windowMax > 0 {
		if b.windowStart.IsZero() || now.Sub(b.windowStart) >= b.window {
			b.windowStart = now
			b.used = 0
		}
		if b.used >= b.windowMax {
			return false
		}
	}

	if b.limiter != nil && !b.limiter.Allow() {
		return false
	}

	if b.windowMax > 0 {
		b.used++
	}
	return true
}

// Remaining reports how many window calls are left; -1 means unlimited.
func (b *Budget) Remaining(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.windowMax <= 0 {
		return -1
	}
	if b.windowStart.IsZero() || now.Sub(b.windowStart) >= b.window {
		return b.windowMax
	}
	return b.windowMax - b.used
}

// BudgetRegistry holds one Budget per provider. Providers without a
// registered budget get an unlimited one, so the no-network Local and Mock
// providers never defer.
type BudgetRegistry struct {
	mu      sync.Mutex
	budgets map[string]*Budget
}

func NewBudgetRegistry() *BudgetRegistry {
	return &BudgetRegistry{budgets: make(map[string]*Budget)}
}

// Register installs a budget for a provider, replacing any existing one.
func (r *BudgetRegistry) Register(name string, b *Budget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets[name] = b
}

// For returns the budget for a provider, creating an unlimited one on first
// use.
func (r *BudgetRegistry) For(name string) *Budget {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.budgets[name]; ok {
		return b
	}
	b := NewBudget(name, 0, 0, 0, 0)
	r.budgets[name] = b
	return b
}
