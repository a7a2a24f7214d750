// Package placement implements the diff-aware finding placement engine:
// mapping desired line numbers onto commentable diff lines, selecting a
// deduplicated budget-capped set, and assembling the final review batch.
//
// The whole package is pure and stateless: no I/O, no shared mutable
// state, deterministic output for identical input.
package placement

import (
	"github.com/kmorrill/review-placer/internal/diff"
	"github.com/kmorrill/review-placer/internal/domain"
)

// Resolver maps a single finding's desired (file, line, side) onto a
// valid diff position, or determines it is unplaceable.
type Resolver struct {
	tolerance int
}

// NewResolver creates a resolver with the given adjustment tolerance in
// lines. A finding farther than tolerance from every hunk on its side
// is unplaceable.
func NewResolver(tolerance int) Resolver {
	return Resolver{tolerance: tolerance}
}

// Resolve places one finding against the index for its file.
//
// A finding declared on the REMOVED side resolves only against the left
// index, everything else only against the right. There is no fallback
// to the opposite side: a comment that silently jumped sides would be
// attached to the wrong version of the code.
func (r Resolver) Resolve(f domain.Finding, ix diff.Index) domain.PlacedFinding {
	placed := domain.PlacedFinding{Finding: f}

	if ix.Valid(f.Side, f.DesiredLine) {
		placed.ResolvedLine = f.DesiredLine
		placed.Placement = domain.PlacementExact
		return placed
	}

	if hunk, dist, ok := nearestHunk(ix.Hunks(f.Side), f.DesiredLine); ok && dist <= r.tolerance {
		placed.ResolvedLine = hunk.Clamp(f.DesiredLine)
		placed.Placement = domain.PlacementAdjusted
		return placed
	}

	placed.Placement = domain.PlacementUnplaceable
	return placed
}

// nearestHunk returns the hunk whose boundary is closest to line. Ties
// keep the earlier hunk, which is stable because hunks are in diff order.
func nearestHunk(hunks []diff.Range, line int) (diff.Range, int, bool) {
	if len(hunks) == 0 {
		return diff.Range{}, 0, false
	}

	best := hunks[0]
	bestDist := best.Distance(line)
	for _, h := range hunks[1:] {
		if d := h.Distance(line); d < bestDist {
			best = h
			bestDist = d
		}
	}
	return best, bestDist, true
}
