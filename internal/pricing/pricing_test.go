package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountToListNeverShortsTheSeller(t *testing.T) {
	for x := 1; x <= 20000; x++ {
		require.GreaterOrEqual(t, ReceivedFromListing(AmountToList(x)), x,
			"desired %d must be covered by listing %d", x, AmountToList(x))
	}
}

func TestAmountToListMonotonic(t *testing.T) {
	prev := 0
	for x := 1; x <= 20000; x++ {
		cur := AmountToList(x)
		require.GreaterOrEqual(t, cur, prev, "at x=%d", x)
		prev = cur
	}
}

func TestKnownScenario(t *testing.T) {
	// Receiving 1000 Robux requires a 1429 Robux gamepass, which pays
	// out exactly 1000 after the 30% cut.
	assert.Equal(t, 1429, AmountToList(1000))
	assert.Equal(t, 1000, ReceivedFromListing(1429))
}

func TestChargeCents(t *testing.T) {
	assert.Equal(t, int64(1000), ChargeCents(1000)) // R$ 10,00
	assert.Equal(t, int64(1), ChargeCents(1))
	assert.Equal(t, int64(0), ChargeCents(0))
	assert.Equal(t, int64(0), ChargeCents(-5))

	prev := int64(0)
	for x := 1; x <= 10000; x++ {
		cur := ChargeCents(x)
		require.Positive(t, cur, "at x=%d", x)
		require.GreaterOrEqual(t, cur, prev, "at x=%d", x)
		prev = cur
	}
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 14.29", FormatBRL(1429))
	assert.Equal(t, "R$ 0.07", FormatBRL(7))
}
