package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

func openTestLedger(t *testing.T) *SQLite {
	t.Helper()
	l, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func sampleOrder(id, ref string) *domain.Order {
	return &domain.Order{
		ID:               id,
		UserID:           "u1",
		Username:         "alice",
		AccountID:        156,
		AccountName:      "builderman",
		DesiredAmount:    1000,
		TotalListed:      1429,
		ChargedCents:     1000,
		PaymentReference: ref,
		PaymentID:        "777",
		ItemsJSON:        `[{"id":1,"name":"VIP","price":1429}]`,
		ApprovedAt:       time.Now().Truncate(time.Second),
	}
}

func TestInsertAndFetchOrder(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	order := sampleOrder("o1", "pref-1")
	require.NoError(t, l.InsertOrder(ctx, order))

	got, err := l.OrderByReference(ctx, "pref-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.ChargedCents, got.ChargedCents)
	assert.Equal(t, order.ItemsJSON, got.ItemsJSON)
	assert.True(t, order.ApprovedAt.Equal(got.ApprovedAt))
}

func TestInsertOrderIdempotentPerReference(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.InsertOrder(ctx, sampleOrder("o1", "pref-1")))
	// Redelivered notification produces a second insert with a fresh id.
	require.NoError(t, l.InsertOrder(ctx, sampleOrder("o2", "pref-1")))

	got, err := l.OrderByReference(ctx, "pref-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "o1", got.ID)

	orders, err := l.ListOrders(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestListOrdersNewestFirst(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	old := sampleOrder("o1", "pref-1")
	old.ApprovedAt = time.Now().Add(-time.Hour)
	recent := sampleOrder("o2", "pref-2")
	require.NoError(t, l.InsertOrder(ctx, old))
	require.NoError(t, l.InsertOrder(ctx, recent))

	orders, err := l.ListOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].ID)
}

func TestOrderByReferenceMissing(t *testing.T) {
	l := openTestLedger(t)
	got, err := l.OrderByReference(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}
