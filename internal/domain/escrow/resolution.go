package escrow

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is a parsed dispute outcome. Construct only via
// ParseResolution so the split percentages are always validated.
type Resolution struct {
	kind         string
	buyerPercent int
}

// ParseResolution accepts buyer_full, seller_full, burn, or
// split_<b>_<s> where b and s are non-negative and sum to 100.
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "buyer_full":
		return Resolution{kind: "buyer_full", buyerPercent: 100}, nil
	case "seller_full":
		return Resolution{kind: "seller_full", buyerPercent: 0}, nil
	case "burn":
		return Resolution{kind: "burn"}, nil
	}

	rest, ok := strings.CutPrefix(s, "split_")
	if !ok {
		return Resolution{}, ErrInvalidResolution
	}

	parts := strings.Split(rest, "_")
	if len(parts) != 2 {
		return Resolution{}, ErrInvalidResolution
	}

	buyer, err := strconv.Atoi(parts[0])
	if err != nil {
		return Resolution{}, ErrInvalidResolution
	}
	seller, err := strconv.Atoi(parts[1])
	if err != nil {
		return Resolution{}, ErrInvalidResolution
	}
	if buyer < 0 || seller < 0 || buyer+seller != 100 {
		return Resolution{}, ErrInvalidResolution
	}

	return Resolution{kind: "split", buyerPercent: buyer}, nil
}

// Amounts divides total between buyer and seller by the resolution's
// percentages, rounding each share down. Any remainder sats, and the
// whole total for burn, are destroyed rather than assigned to a party.
func (r Resolution) Amounts(total int64) (buyer, seller, destroyed int64) {
	if r.kind == "burn" {
		return 0, 0, total
	}

	buyer = total * int64(r.buyerPercent) / 100
	seller = total * int64(100-r.buyerPercent) / 100
	destroyed = total - buyer - seller
	return buyer, seller, destroyed
}

// RefundsBuyerInFull reports whether this outcome returns everything to
// the buyer, which maps the escrow to refunded instead of released.
func (r Resolution) RefundsBuyerInFull() bool {
	return r.kind == "buyer_full"
}

func (r Resolution) String() string {
	switch r.kind {
	case "split":
		return fmt.Sprintf("split_%d_%d", r.buyerPercent, 100-r.buyerPercent)
	default:
		return r.kind
	}
}
