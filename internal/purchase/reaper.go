package purchase

import (
	"log/slog"
	"sync"
	"time"
)

// Reaper owns one idle timer per live session. The timer's lifetime is tied
// 1:1 to the session's non-terminal lifetime: any activity resets it, every
// terminal transition cancels it, and a fresh session for the same user
// always gets a fresh timer, never an inherited one.
type Reaper struct {
	mu       sync.Mutex
	entries  map[string]reaperEntry
	gen      uint64
	ttl      time.Duration
	onExpire func(userID string)
}

type reaperEntry struct {
	timer *time.Timer
	gen   uint64
}

// NewReaper creates a reaper with the given idle window. OnExpire must be set
// before the first Reset.
func NewReaper(ttl time.Duration) *Reaper {
	return &Reaper{
		entries: make(map[string]reaperEntry),
		ttl:     ttl,
	}
}

// OnExpire registers the callback fired when a session idles out.
func (r *Reaper) OnExpire(fn func(userID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = fn
}

// Reset (re)arms the idle timer for userID, superseding any previous one.
func (r *Reaper) Reset(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[userID]; ok {
		e.timer.Stop()
	}
	r.gen++
	gen := r.gen
	timer := time.AfterFunc(r.ttl, func() {
		r.fire(userID, gen)
	})
	r.entries[userID] = reaperEntry{timer: timer, gen: gen}
}

// Cancel stops and discards the timer for userID, if any.
func (r *Reaper) Cancel(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[userID]; ok {
		e.timer.Stop()
		delete(r.entries, userID)
	}
}

// Stop cancels every timer. Used on shutdown.
func (r *Reaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		e.timer.Stop()
		delete(r.entries, id)
	}
}

func (r *Reaper) fire(userID string, gen uint64) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok || e.gen != gen {
		// Superseded by a Reset or removed by a Cancel that raced the firing
		// goroutine; this firing is stale.
		r.mu.Unlock()
		return
	}
	delete(r.entries, userID)
	fn := r.onExpire
	r.mu.Unlock()

	if fn == nil {
		slog.Error("idle reaper fired with no expiry callback", "user_id", userID)
		return
	}
	fn(userID)
}
