package auth

import (
	"errors"
	"testing"
)

func TestRequireLevel_Thresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		level    int
		required Tier
		wantOK   bool
	}{
		{"standard always passes", 0, TierStandard, true},
		{"level 10 fails supervisor", 10, TierSupervisor, false},
		{"level 11 passes supervisor", 11, TierSupervisor, true},
		{"level 999 passes supervisor", 999, TierSupervisor, true},
		{"level 100 fails master", 100, TierMaster, false},
		{"level 101 passes master", 101, TierMaster, true},
		{"level 0 fails supervisor", 0, TierSupervisor, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := RequireLevel(Principal{UserID: 1, Level: tc.level}, tc.required)
			if tc.wantOK && err != nil {
				t.Fatalf("expected pass, got %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Fatalf("expected rejection for level %d at %s", tc.level, tc.required)
			}
		})
	}
}

func TestRequireLevel_Monotonic(t *testing.T) {
	t.Parallel()

	// Once a level passes a tier, every higher level passes it too.
	for _, tier := range []Tier{TierSupervisor, TierMaster} {
		passed := false
		for level := 0; level <= 200; level++ {
			err := RequireLevel(Principal{Level: level}, tier)
			if passed && err != nil {
				t.Fatalf("level %d failed %s after a lower level passed", level, tier)
			}
			if err == nil {
				passed = true
			}
		}
	}
}

func TestRequireLevel_ErrorCarriesTier(t *testing.T) {
	t.Parallel()

	err := RequireLevel(Principal{Level: 10}, TierSupervisor)
	var ile *InsufficientLevelError
	if !errors.As(err, &ile) {
		t.Fatalf("expected InsufficientLevelError, got %v", err)
	}
	if ile.Required != TierSupervisor || ile.Level != 10 {
		t.Fatalf("unexpected error contents: %+v", ile)
	}

	err = RequireLevel(Principal{Level: 50}, TierMaster)
	if !errors.As(err, &ile) || ile.Required != TierMaster {
		t.Fatalf("expected master-tier rejection, got %v", err)
	}
}
