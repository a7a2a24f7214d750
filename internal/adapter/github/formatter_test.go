package github_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorrill/review-placer/internal/adapter/github"
	"github.com/kmorrill/review-placer/internal/domain"
)

func placedFinding(t *testing.T, body string) domain.PlacedFinding {
	t.Helper()
	f, err := domain.NewFinding(domain.FindingInput{
		Source:      domain.SourceStaticAnalyzer,
		RuleID:      "SA4006",
		File:        "internal/server/server.go",
		DesiredLine: 42,
		Side:        domain.SideAdded,
		Severity:    domain.SeverityHigh,
		Title:       "value never used",
		Body:        body,
	})
	require.NoError(t, err)
	return domain.PlacedFinding{Finding: f, ResolvedLine: 42, Placement: domain.PlacementExact}
}

func TestFormatCommentBody_Layout(t *testing.T) {
	out := github.FormatCommentBody(placedFinding(t, "this value is overwritten before use"))

	assert.Contains(t, out, "**High** | `SA4006`")
	assert.Contains(t, out, "**value never used**")
	assert.Contains(t, out, "this value is overwritten before use")
	assert.Contains(t, out, "<!-- rp:")
	assert.NotContains(t, out, "moved from", "exact placements carry no adjustment note")
}

func TestFormatCommentBody_AdjustedNote(t *testing.T) {
	p := placedFinding(t, "body")
	p.Placement = domain.PlacementAdjusted
	p.ResolvedLine = 40

	out := github.FormatCommentBody(p)
	assert.Contains(t, out, "moved from line 42")
}

func TestFormatCommentBody_TruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("word that keeps going ", 2000)
	out := github.FormatCommentBody(placedFinding(t, long))

	assert.Less(t, len(out), len(long), "pathological body must be trimmed")
	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, "<!-- rp:", "fingerprint marker survives truncation")
}

func TestFormatCommentBody_DeterministicFingerprint(t *testing.T) {
	a := github.FormatCommentBody(placedFinding(t, "body"))
	b := github.FormatCommentBody(placedFinding(t, "body"))
	assert.Equal(t, a, b)
}
