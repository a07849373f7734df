package admission

import (
	"testing"

	"github.com/kailas-cloud/trovex/internal/domain/source"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		credibility float64
		want        Tier
	}{
		{0.95, TierHigh},
		{0.90, TierHigh},
		{0.89, TierMedium},
		{0.75, TierMedium},
		{0.74, TierLow},
		{0.0, TierLow},
	}
	for _, tt := range tests {
		if got := TierFor(tt.credibility); got != tt.want {
			t.Errorf("TierFor(%v) = %d, want %d", tt.credibility, got, tt.want)
		}
	}
}

func TestEligibleBoundary(t *testing.T) {
	below := &source.Record{CredibilityScore: 0.74}
	at := &source.Record{CredibilityScore: 0.75}

	if Eligible(below, DefaultThreshold) {
		t.Errorf("0.74 should not be eligible at threshold 0.75")
	}
	if !Eligible(at, DefaultThreshold) {
		t.Errorf("0.75 should be eligible at threshold 0.75")
	}
}
