package placement

import (
	"sort"

	"github.com/kmorrill/review-placer/internal/domain"
)

// Formatter renders a placed finding into a comment body. The default
// implementation lives in the github adapter; tests inject their own.
type Formatter func(domain.PlacedFinding) string

// Assemble turns the selected findings into the final ReviewBatch:
// comments sorted by (file, line) for deterministic, human-scannable
// output, bodies rendered through the injected formatter, plus the
// accumulated skipped list from all prior stages.
//
// Assemble never drops anything. An empty selection still yields a
// batch with non-nil slices so the caller can decide whether to publish.
func Assemble(commitSHA string, selected []domain.PlacedFinding, skipped []domain.SkippedFinding, format Formatter) domain.ReviewBatch {
	comments := make([]domain.ReviewComment, 0, len(selected))
	for _, p := range selected {
		comments = append(comments, domain.ReviewComment{
			File: p.File,
			Line: p.ResolvedLine,
			Side: p.Side,
			Body: format(p),
		})
	}

	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].File != comments[j].File {
			return comments[i].File < comments[j].File
		}
		return comments[i].Line < comments[j].Line
	})

	if skipped == nil {
		skipped = []domain.SkippedFinding{}
	}

	return domain.ReviewBatch{
		CommitSHA: commitSHA,
		Comments:  comments,
		Skipped:   skipped,
	}
}
