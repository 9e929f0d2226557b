package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatThresholdResult(res internal.ThresholdResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-13s cost=%.6f", res.Strategy, res.Cost)
	if res.Target != nil {
		fmt.Fprintf(&sb, " target=%.4f", *res.Target)
	}
	if res.Threshold != nil {
		fmt.Fprintf(&sb, " threshold=%g", *res.Threshold)
	}

	groups := make([]string, 0, len(res.OperatingPoints))
	for g := range res.OperatingPoints {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		p := res.OperatingPoints[g]
		name := g
		if name == "" {
			name = "*"
		}
		fmt.Fprintf(&sb, "\n  %-12s fpr=%.4f tpr=%.4f", name, p.FPR, p.TPR)
		if t, ok := res.Thresholds[g]; ok {
			fmt.Fprintf(&sb, " threshold=%g", t)
		}
	}
	return sb.String()
}

// parsePairs reads "a:b" arguments.
func parsePairs(raw []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(raw))
	for _, r := range raw {
		a, b, ok := strings.Cut(r, ":")
		if !ok || a == "" || b == "" {
			return nil, fmt.Errorf("invalid pair %q, want word1:word2", r)
		}
		pairs = append(pairs, [2]string{a, b})
	}
	return pairs, nil
}
