package dispute

import (
	"testing"
	"time"
)

func TestNeedsWarning(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sent := now.Add(-time.Hour)

	tests := []struct {
		name    string
		dispute Dispute
		want    bool
	}{
		{
			name:    "deadline far away",
			dispute: Dispute{Status: StatusOpen, AutoResolveAt: now.Add(9 * 24 * time.Hour)},
			want:    false,
		},
		{
			name:    "inside warning window",
			dispute: Dispute{Status: StatusOpen, AutoResolveAt: now.Add(5 * 24 * time.Hour)},
			want:    true,
		},
		{
			name:    "already warned",
			dispute: Dispute{Status: StatusOpen, AutoResolveAt: now.Add(5 * 24 * time.Hour), WarningSentAt: &sent},
			want:    false,
		},
		{
			name:    "resolved",
			dispute: Dispute{Status: StatusResolved, AutoResolveAt: now.Add(5 * 24 * time.Hour)},
			want:    false,
		},
		{
			name:    "past deadline still warnable",
			dispute: Dispute{Status: StatusOpen, AutoResolveAt: now.Add(-time.Hour)},
			want:    true,
		},
	}

	for _, tt := range tests {
		if got := tt.dispute.NeedsWarning(now); got != tt.want {
			t.Errorf("%s: NeedsWarning = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	open := Dispute{Status: StatusOpen, AutoResolveAt: now.Add(-time.Minute)}
	if !open.IsOverdue(now) {
		t.Error("open dispute past deadline must be overdue")
	}

	future := Dispute{Status: StatusOpen, AutoResolveAt: now.Add(time.Minute)}
	if future.IsOverdue(now) {
		t.Error("dispute before deadline must not be overdue")
	}

	resolved := Dispute{Status: StatusResolved, AutoResolveAt: now.Add(-time.Minute)}
	if resolved.IsOverdue(now) {
		t.Error("resolved dispute must not be overdue")
	}

	exact := Dispute{Status: StatusOpen, AutoResolveAt: now}
	if !exact.IsOverdue(now) {
		t.Error("deadline instant counts as overdue")
	}
}
