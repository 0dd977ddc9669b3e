package escrow

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseResolution(t *testing.T) {
	valid := []string{"buyer_full", "seller_full", "burn", "split_70_30", "split_0_100", "split_100_0", "split_50_50"}
	for _, s := range valid {
		res, err := ParseResolution(s)
		if err != nil {
			t.Errorf("ParseResolution(%q) failed: %v", s, err)
			continue
		}
		if res.String() != s {
			t.Errorf("ParseResolution(%q).String() = %q", s, res.String())
		}
	}

	invalid := []string{"", "buyer", "split_50_40", "split_60_50", "split_-10_110", "split_50", "split_a_b", "split_50_50_0"}
	for _, s := range invalid {
		if _, err := ParseResolution(s); !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("ParseResolution(%q): expected ErrInvalidResolution, got %v", s, err)
		}
	}
}

func TestResolutionAmounts(t *testing.T) {
	tests := []struct {
		resolution string
		total      int64
		buyer      int64
		seller     int64
		destroyed  int64
	}{
		{"buyer_full", 1000, 1000, 0, 0},
		{"seller_full", 1000, 0, 1000, 0},
		{"burn", 1000, 0, 0, 1000},
		{"split_70_30", 100, 70, 30, 0},
		{"split_70_30", 1000, 700, 300, 0},
		// Both shares round down; the odd sat is destroyed.
		{"split_50_50", 101, 50, 50, 1},
		{"split_33_67", 100, 33, 67, 0},
		{"split_33_67", 10, 3, 6, 1},
	}

	for _, tt := range tests {
		res, err := ParseResolution(tt.resolution)
		if err != nil {
			t.Fatalf("ParseResolution(%q) failed: %v", tt.resolution, err)
		}
		buyer, seller, destroyed := res.Amounts(tt.total)
		if buyer != tt.buyer || seller != tt.seller || destroyed != tt.destroyed {
			t.Errorf("%s on %d: got (%d, %d, %d), want (%d, %d, %d)",
				tt.resolution, tt.total, buyer, seller, destroyed, tt.buyer, tt.seller, tt.destroyed)
		}
	}
}

func TestResolutionConservation(t *testing.T) {
	totals := []int64{1, 99, 100, 101, 12345, 1_000_000}
	for b := 0; b <= 100; b += 7 {
		res, err := ParseResolution(splitName(b))
		if err != nil {
			t.Fatalf("parse split_%d failed: %v", b, err)
		}
		for _, total := range totals {
			buyer, seller, destroyed := res.Amounts(total)
			if buyer+seller+destroyed != total {
				t.Fatalf("split_%d on %d: %d + %d + %d != %d", b, total, buyer, seller, destroyed, total)
			}
			if buyer < 0 || seller < 0 || destroyed < 0 {
				t.Fatalf("split_%d on %d produced negative share", b, total)
			}
		}
	}
}

func TestRefundsBuyerInFull(t *testing.T) {
	full, _ := ParseResolution("buyer_full")
	if !full.RefundsBuyerInFull() {
		t.Error("buyer_full must refund buyer in full")
	}
	// split_100_0 pays the buyer everything but is still a released
	// outcome, not a refund.
	split, _ := ParseResolution("split_100_0")
	if split.RefundsBuyerInFull() {
		t.Error("split_100_0 must not map to refunded")
	}
}

func splitName(buyer int) string {
	return fmt.Sprintf("split_%d_%d", buyer, 100-buyer)
}
