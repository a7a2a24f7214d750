package diff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kmorrill/review-placer/internal/domain"
)

// ErrMalformedDiff indicates diff text with no parseable hunk header.
// It is recoverable per file: the caller treats the file as having an
// empty index and continues with the remaining files.
var ErrMalformedDiff = errors.New("malformed diff: no hunk header found")

// Range is an inclusive span of commentable line numbers within one hunk.
type Range struct {
	Start int
	End   int
}

// Contains reports whether line falls inside the range.
func (r Range) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// Distance returns how far line is from the range, 0 if inside.
func (r Range) Distance(line int) int {
	switch {
	case line < r.Start:
		return r.Start - line
	case line > r.End:
		return line - r.End
	default:
		return 0
	}
}

// Clamp returns line pulled into the range.
func (r Range) Clamp(line int) int {
	if line < r.Start {
		return r.Start
	}
	if line > r.End {
		return r.End
	}
	return line
}

// sideIndex holds the validity data for one side of a file's diff.
type sideIndex struct {
	valid map[int]bool
	hunks []Range
}

// Index is a per-file, per-side set of commentable line numbers plus
// the hunk boundaries they belong to. Built once per file, read-only
// afterward.
type Index struct {
	left  sideIndex
	right sideIndex
}

// Valid reports whether line can carry a comment on the given side.
func (ix Index) Valid(side domain.Side, line int) bool {
	return ix.side(side).valid[line]
}

// Hunks returns the observed hunk ranges for the given side, in diff order.
func (ix Index) Hunks(side domain.Side) []Range {
	return ix.side(side).hunks
}

func (ix Index) side(side domain.Side) sideIndex {
	if side == domain.SideRemoved {
		return ix.left
	}
	return ix.right
}

// hunkBounds accumulates the min/max line actually seen per side while
// scanning one hunk. The declared header counts are deliberately not
// trusted: diffs with trimmed leading/trailing context would otherwise
// report lines that were never emitted.
type hunkBounds struct {
	oldMin, oldMax int
	newMin, newMax int
}

func (b *hunkBounds) markOld(line int) {
	if b.oldMin == 0 || line < b.oldMin {
		b.oldMin = line
	}
	if line > b.oldMax {
		b.oldMax = line
	}
}

func (b *hunkBounds) markNew(line int) {
	if b.newMin == 0 || line < b.newMin {
		b.newMin = line
	}
	if line > b.newMax {
		b.newMax = line
	}
}

// Build scans the unified diff text for one file and produces its Index.
// It tolerates git file headers and "\ No newline" markers. Text that
// contains no parseable hunk header at all yields ErrMalformedDiff.
func Build(patch string) (Index, error) {
	ix := Index{
		left:  sideIndex{valid: make(map[int]bool)},
		right: sideIndex{valid: make(map[int]bool)},
	}

	var (
		inHunk   bool
		bounds   hunkBounds
		oldLine  int
		newLine  int
		hunkSeen bool
	)

	closeHunk := func() {
		if !inHunk {
			return
		}
		if bounds.oldMin > 0 {
			ix.left.hunks = append(ix.left.hunks, Range{Start: bounds.oldMin, End: bounds.oldMax})
		}
		if bounds.newMin > 0 {
			ix.right.hunks = append(ix.right.hunks, Range{Start: bounds.newMin, End: bounds.newMax})
		}
	}

	for _, line := range strings.Split(patch, "\n") {
		if line == "" {
			continue
		}

		// Git file headers carry no line data.
		if strings.HasPrefix(line, "diff --git") ||
			strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ") ||
			strings.HasPrefix(line, "\\ ") {
			continue
		}

		if strings.HasPrefix(line, "@@") {
			oldStart, newStart, err := parseHunkHeader(line)
			if err != nil {
				continue
			}
			closeHunk()
			inHunk = true
			hunkSeen = true
			bounds = hunkBounds{}
			oldLine = oldStart
			newLine = newStart
			continue
		}

		if !inHunk {
			continue
		}

		switch line[0] {
		case '+':
			ix.right.valid[newLine] = true
			bounds.markNew(newLine)
			newLine++
		case '-':
			ix.left.valid[oldLine] = true
			bounds.markOld(oldLine)
			oldLine++
		default:
			// Context: valid on both sides. Lines without a prefix are
			// treated as context, matching git's own leniency.
			ix.left.valid[oldLine] = true
			ix.right.valid[newLine] = true
			bounds.markOld(oldLine)
			bounds.markNew(newLine)
			oldLine++
			newLine++
		}
	}
	closeHunk()

	if !hunkSeen {
		return Index{}, fmt.Errorf("%w", ErrMalformedDiff)
	}
	return ix, nil
}

// parseHunkHeader extracts the start lines from "@@ -O,o +N,n @@ ctx".
func parseHunkHeader(line string) (oldStart, newStart int, err error) {
	parts := strings.Split(line, "@@")
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("not a hunk header: %q", line)
	}

	var haveOld, haveNew bool
	for _, field := range strings.Fields(strings.TrimSpace(parts[1])) {
		switch {
		case strings.HasPrefix(field, "-"):
			oldStart, err = parseRangeStart(strings.TrimPrefix(field, "-"))
			if err != nil {
				return 0, 0, err
			}
			haveOld = true
		case strings.HasPrefix(field, "+"):
			newStart, err = parseRangeStart(strings.TrimPrefix(field, "+"))
			if err != nil {
				return 0, 0, err
			}
			haveNew = true
		}
	}
	if !haveOld || !haveNew {
		return 0, 0, fmt.Errorf("incomplete hunk header: %q", line)
	}
	return oldStart, newStart, nil
}

// parseRangeStart parses the start of "start,count" or bare "start".
func parseRangeStart(s string) (int, error) {
	if idx := strings.Index(s, ","); idx >= 0 {
		s = s[:idx]
	}
	start, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad hunk range %q: %w", s, err)
	}
	return start, nil
}
