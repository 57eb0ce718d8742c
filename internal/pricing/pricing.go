// Package pricing converts between desired Robux payouts, gamepass listing
// prices and the BRL amount charged to the buyer. All functions are pure and
// use integer arithmetic so rounding is exact and reproducible.
package pricing

import "fmt"

// The platform retains 30% of every gamepass sale; the seller nets 70%.
// Expressed as a ratio to keep all math in integers.
const (
	sellerShareNum = 7
	sellerShareDen = 10
)

// Conversion rate: R$ 0,01 per Robux, tracked in thousandths of a BRL so
// half-up rounding to cents stays integral.
const brlMilsPerRobux = 10

// AmountToList returns the gamepass price a seller must post so that, after
// the platform cut, they net at least desired Robux. Rounds up: the seller is
// never shorted by rounding.
func AmountToList(desired int) int {
	if desired <= 0 {
		return 0
	}
	return (desired*sellerShareDen + sellerShareNum - 1) / sellerShareNum
}

// ReceivedFromListing returns what the seller actually nets from a gamepass
// listed at price. Rounds down: never overstate the payout.
func ReceivedFromListing(price int) int {
	if price <= 0 {
		return 0
	}
	return price * sellerShareNum / sellerShareDen
}

// ChargeCents returns the BRL amount, in centavos, the buyer pays for the
// given Robux payout. Half-up rounding to two decimal places.
func ChargeCents(receive int) int64 {
	if receive <= 0 {
		return 0
	}
	mils := int64(receive) * brlMilsPerRobux
	return (mils + 5) / 10
}

// FormatBRL renders a centavo amount the way the payment screens show it.
func FormatBRL(cents int64) string {
	return fmt.Sprintf("R$ %d.%02d", cents/100, cents%100)
}
