// Package store provides the in-memory session store. Sessions are volatile
// by design: state does not survive a process restart.
package store

import (
	"log/slog"
	"sync"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

// SessionStore maps user ids to purchase sessions and keeps the payment
// reference index consistent with session lifecycle. All operations are
// atomic; callers get snapshots, never live pointers.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	byRef    map[string]string // payment reference -> user id
}

// New creates an empty session store.
func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		byRef:    make(map[string]string),
	}
}

// Get returns a snapshot of the session for userID, if one exists.
func (st *SessionStore) Get(userID string) (*domain.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[userID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Put inserts or wholesale-replaces the session for s.UserID. A second
// start-purchase for the same user overwrites, never duplicates.
func (st *SessionStore) Put(s *domain.Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if old, ok := st.sessions[s.UserID]; ok && old.PaymentReference != "" {
		delete(st.byRef, old.PaymentReference)
	}
	st.sessions[s.UserID] = s.Clone()
	st.indexLocked(s.UserID)
}

// Update applies fn to the stored session under the lock (merge semantics:
// fields fn does not touch are preserved). Returns false when no session
// exists for userID.
func (st *SessionStore) Update(userID string, fn func(*domain.Session)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return false
	}
	oldRef := s.PaymentReference
	fn(s)
	if s.PaymentReference != oldRef {
		if oldRef != "" {
			delete(st.byRef, oldRef)
		}
		st.indexLocked(userID)
	}
	return true
}

// ReplaceIf swaps in next only when the stored session is still in the
// expected state. This is the stale-transition guard: an event whose async
// dependency resolved after the session moved on commits nothing.
// The first return value reports whether the swap happened, the second
// whether a session existed at all.
func (st *SessionStore) ReplaceIf(userID string, expect domain.State, next *domain.Session) (committed, found bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return false, false
	}
	if s.State != expect {
		return false, true
	}
	if s.PaymentReference != "" {
		delete(st.byRef, s.PaymentReference)
	}
	st.sessions[userID] = next.Clone()
	st.indexLocked(userID)
	return true, true
}

// Delete removes the session and its payment reference index entry.
func (st *SessionStore) Delete(userID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return
	}
	if s.PaymentReference != "" {
		delete(st.byRef, s.PaymentReference)
	}
	delete(st.sessions, userID)
}

// UserByReference resolves a payment reference to the owning user id.
func (st *SessionStore) UserByReference(ref string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	userID, ok := st.byRef[ref]
	return userID, ok
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *SessionStore) indexLocked(userID string) {
	s := st.sessions[userID]
	if s.PaymentReference == "" {
		return
	}
	if owner, ok := st.byRef[s.PaymentReference]; ok && owner != userID {
		// References come from the provider and are unique; an owner change
		// here means a bug upstream, not a legal reuse.
		slog.Warn("payment reference re-indexed to a different session",
			"reference", s.PaymentReference, "old_user", owner, "new_user", userID)
	}
	st.byRef[s.PaymentReference] = userID
}
