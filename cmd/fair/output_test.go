package main

import (
	"strings"
	"testing"

	"github.com/4thel00z/fairkit/internal"
)

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"nurse:engineer", "she:he"})
	if err != nil {
		t.Fatalf("parsePairs: %v", err)
	}
	if len(pairs) != 2 || pairs[0] != [2]string{"nurse", "engineer"} {
		t.Errorf("unexpected pairs %v", pairs)
	}

	for _, bad := range []string{"nurse", ":he", "she:"} {
		if _, err := parsePairs([]string{bad}); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestFormatThresholdResult(t *testing.T) {
	threshold := 0.5
	single := internal.ThresholdResult{
		Strategy:  internal.StrategySingle,
		Threshold: &threshold,
		Cost:      -0.05,
		OperatingPoints: map[string]internal.OperatingPoint{
			"b": {FPR: 0.2, TPR: 0.3},
			"a": {FPR: 0.5, TPR: 0.6},
		},
	}
	got := formatThresholdResult(single)
	if !strings.Contains(got, "threshold=0.5") {
		t.Errorf("missing shared threshold in %q", got)
	}
	if strings.Index(got, "\n  a") > strings.Index(got, "\n  b") {
		t.Errorf("groups not sorted in %q", got)
	}

	separation := internal.ThresholdResult{
		Strategy:        internal.StrategySeparation,
		Thresholds:      map[string]float64{},
		OperatingPoints: map[string]internal.OperatingPoint{"": {FPR: 0.3, TPR: 0.5}},
	}
	if got := formatThresholdResult(separation); !strings.Contains(got, "*") {
		t.Errorf("expected the overall point to be labeled, got %q", got)
	}
}
