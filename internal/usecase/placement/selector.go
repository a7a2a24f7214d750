package placement

import (
	"sort"

	"github.com/kmorrill/review-placer/internal/domain"
)

// Selector deduplicates placed findings, filters them by severity,
// ranks them and enforces the comment budget. It operates globally
// across all files of a run; callers must hand it the complete set.
type Selector struct {
	threshold Severity
	budget    int
}

// Severity is an alias kept local for readability of the selector API.
type Severity = domain.Severity

// NewSelector creates a selector. The effective budget is
// min(maxComments, platformCeiling); the ceiling is a hard platform
// limit and wins regardless of configuration.
func NewSelector(threshold Severity, maxComments, platformCeiling int) Selector {
	budget := maxComments
	if platformCeiling < budget {
		budget = platformCeiling
	}
	return Selector{threshold: threshold, budget: budget}
}

// Select returns the ranked, deduplicated, budget-capped findings plus
// skipped entries for everything dropped at this stage. True duplicates
// are dropped silently; severity-filtered and over-budget findings are
// reported.
//
// Input must contain only placeable findings, ordered however the
// caller likes: ranking uses each finding's own InputOrder.
func (s Selector) Select(placed []domain.PlacedFinding) ([]domain.PlacedFinding, []domain.SkippedFinding) {
	kept := dedupe(placed)

	var skipped []domain.SkippedFinding
	filtered := kept[:0]
	for _, p := range kept {
		if p.Severity.Rank() < s.threshold.Rank() {
			skipped = append(skipped, domain.SkippedFinding{Finding: p.Finding, Reason: domain.SkipBelowSeverityThreshold})
			continue
		}
		filtered = append(filtered, p)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Severity.Rank() != filtered[j].Severity.Rank() {
			return filtered[i].Severity.Rank() > filtered[j].Severity.Rank()
		}
		return filtered[i].InputOrder < filtered[j].InputOrder
	})

	if len(filtered) > s.budget {
		for _, p := range filtered[s.budget:] {
			skipped = append(skipped, domain.SkippedFinding{Finding: p.Finding, Reason: domain.SkipBudgetExceeded})
		}
		filtered = filtered[:s.budget]
	}

	return filtered, skipped
}

// dedupe keeps one representative per (file, line, side, rule) group:
// highest severity, then longer body, then earliest input order. The
// result preserves the input order of the surviving findings.
func dedupe(placed []domain.PlacedFinding) []domain.PlacedFinding {
	winners := make(map[domain.DedupKey]domain.PlacedFinding, len(placed))
	for _, p := range placed {
		cur, ok := winners[p.Key()]
		if !ok || beats(p, cur) {
			winners[p.Key()] = p
		}
	}

	result := make([]domain.PlacedFinding, 0, len(winners))
	for _, p := range placed {
		if winners[p.Key()].InputOrder == p.InputOrder {
			result = append(result, p)
		}
	}
	return result
}

// beats reports whether a should replace b as a dedup group's representative.
func beats(a, b domain.PlacedFinding) bool {
	if a.Severity.Rank() != b.Severity.Rank() {
		return a.Severity.Rank() > b.Severity.Rank()
	}
	if len(a.Body) != len(b.Body) {
		return len(a.Body) > len(b.Body)
	}
	return a.InputOrder < b.InputOrder
}
