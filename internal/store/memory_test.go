package store

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

func newSession(userID string) *domain.Session {
	return &domain.Session{UserID: userID, State: domain.StateAwaitingIdentity}
}

func TestPutNeverDuplicates(t *testing.T) {
	st := New()
	st.Put(newSession("u1"))
	st.Put(newSession("u1"))
	assert.Equal(t, 1, st.Len())
}

func TestGetReturnsSnapshot(t *testing.T) {
	st := New()
	st.Put(&domain.Session{UserID: "u1", State: domain.StateAwaitingSelection,
		SelectedItems: []domain.SelectedItem{{ID: 1, Price: 100}}})

	snap, ok := st.Get("u1")
	require.True(t, ok)
	snap.SelectedItems[0].Price = 999
	snap.State = domain.StateCancelled

	fresh, ok := st.Get("u1")
	require.True(t, ok)
	assert.Equal(t, 100, fresh.SelectedItems[0].Price)
	assert.Equal(t, domain.StateAwaitingSelection, fresh.State)
}

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	st := New()
	s := newSession("u1")
	s.TypedIdentifier = "alice"
	s.DesiredAmount = 1000
	st.Put(s)

	ok := st.Update("u1", func(s *domain.Session) {
		s.SelectedItems = []domain.SelectedItem{{ID: 7, Name: "pass", Price: 50}}
	})
	require.True(t, ok)

	got, _ := st.Get("u1")
	assert.Equal(t, "alice", got.TypedIdentifier)
	assert.Equal(t, 1000, got.DesiredAmount)
	assert.Len(t, got.SelectedItems, 1)
}

func TestUpdateMissingSession(t *testing.T) {
	st := New()
	assert.False(t, st.Update("ghost", func(*domain.Session) {}))
}

func TestReplaceIfGuardsState(t *testing.T) {
	st := New()
	st.Put(newSession("u1"))

	next, _ := st.Get("u1")
	next.State = domain.StateIdentityConfirmPending

	// Session moves on before the commit lands.
	st.Update("u1", func(s *domain.Session) { s.State = domain.StateCancelling })

	committed, found := st.ReplaceIf("u1", domain.StateAwaitingIdentity, next)
	assert.False(t, committed)
	assert.True(t, found)

	got, _ := st.Get("u1")
	assert.Equal(t, domain.StateCancelling, got.State)
}

func TestReplaceIfCommits(t *testing.T) {
	st := New()
	st.Put(newSession("u1"))

	next, _ := st.Get("u1")
	next.State = domain.StateIdentityConfirmPending
	committed, found := st.ReplaceIf("u1", domain.StateAwaitingIdentity, next)
	assert.True(t, committed)
	assert.True(t, found)
}

func TestPaymentReferenceIndex(t *testing.T) {
	st := New()
	s := newSession("u1")
	st.Put(s)

	st.Update("u1", func(s *domain.Session) { s.PaymentReference = "pref-123" })
	owner, ok := st.UserByReference("pref-123")
	require.True(t, ok)
	assert.Equal(t, "u1", owner)

	st.Delete("u1")
	_, ok = st.UserByReference("pref-123")
	assert.False(t, ok)
}

func TestReferenceIndexFollowsReplace(t *testing.T) {
	st := New()
	s := newSession("u1")
	s.PaymentReference = "pref-old"
	st.Put(s)

	next, _ := st.Get("u1")
	next.PaymentReference = "pref-new"
	committed, _ := st.ReplaceIf("u1", domain.StateAwaitingIdentity, next)
	require.True(t, committed)

	_, ok := st.UserByReference("pref-old")
	assert.False(t, ok)
	owner, ok := st.UserByReference("pref-new")
	require.True(t, ok)
	assert.Equal(t, "u1", owner)
}

func TestConcurrentAccess(t *testing.T) {
	st := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "user-" + strconv.Itoa(i%4)
			for j := 0; j < 500; j++ {
				st.Put(newSession(id))
				st.Get(id)
				st.Update(id, func(s *domain.Session) { s.DesiredAmount = j })
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, st.Len())
}
