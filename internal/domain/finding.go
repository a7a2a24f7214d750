package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Source identifies what produced a finding.
type Source string

const (
	SourceStaticAnalyzer Source = "static_analyzer"
	SourceAISuggestion   Source = "ai_suggestion"
)

// Side identifies which version of a file a line number refers to.
// ADDED lines live in the new (right) version, REMOVED lines in the
// old (left) version.
type Side string

const (
	SideAdded   Side = "ADDED"
	SideRemoved Side = "REMOVED"
)

// Severity ranks how important a finding is.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Rank returns a numeric rank for sorting (higher = more severe).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity converts a string to a Severity, case-sensitively.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// Placement is the outcome of mapping a finding's desired line onto a diff.
type Placement string

const (
	PlacementExact       Placement = "EXACT"
	PlacementAdjusted    Placement = "ADJUSTED"
	PlacementUnplaceable Placement = "UNPLACEABLE"
)

// SkipReason explains why a finding did not make it into the review batch.
type SkipReason string

const (
	SkipLineOutsideDiffRange   SkipReason = "line_outside_diff_range"
	SkipBelowSeverityThreshold SkipReason = "below_severity_threshold"
	SkipBudgetExceeded         SkipReason = "budget_exceeded"
)

// Finding is a single candidate review comment before placement.
// Construct with NewFinding so invalid states are rejected up front.
type Finding struct {
	Source      Source
	RuleID      string
	File        string
	DesiredLine int
	Side        Side
	Severity    Severity
	Title       string
	Body        string
}

// FindingInput captures the information required to create a Finding.
type FindingInput struct {
	Source      Source
	RuleID      string
	File        string
	DesiredLine int
	Side        Side
	Severity    Severity
	Title       string
	Body        string
}

// NewFinding validates the input and constructs an immutable Finding.
func NewFinding(input FindingInput) (Finding, error) {
	switch input.Source {
	case SourceStaticAnalyzer, SourceAISuggestion:
	default:
		return Finding{}, fmt.Errorf("finding: unknown source %q", input.Source)
	}
	if input.File == "" {
		return Finding{}, fmt.Errorf("finding: file path is required")
	}
	if input.DesiredLine <= 0 {
		return Finding{}, fmt.Errorf("finding %s: desired line must be positive, got %d", input.File, input.DesiredLine)
	}
	side := input.Side
	if side == "" {
		side = SideAdded
	}
	if side != SideAdded && side != SideRemoved {
		return Finding{}, fmt.Errorf("finding %s: unknown side %q", input.File, input.Side)
	}
	if _, err := ParseSeverity(string(input.Severity)); err != nil {
		return Finding{}, fmt.Errorf("finding %s: %w", input.File, err)
	}
	if input.RuleID == "" {
		return Finding{}, fmt.Errorf("finding %s: rule id is required", input.File)
	}

	return Finding{
		Source:      input.Source,
		RuleID:      input.RuleID,
		File:        input.File,
		DesiredLine: input.DesiredLine,
		Side:        side,
		Severity:    input.Severity,
		Title:       input.Title,
		Body:        input.Body,
	}, nil
}

// PlacedFinding is a Finding after line resolution.
type PlacedFinding struct {
	Finding
	ResolvedLine int
	Placement    Placement

	// InputOrder is the zero-based position the finding was supplied at.
	// It is the stable tie-break for ranking and deduplication.
	InputOrder int
}

// Placeable reports whether the finding landed on a commentable line.
func (p PlacedFinding) Placeable() bool {
	return p.Placement == PlacementExact || p.Placement == PlacementAdjusted
}

// DedupKey identifies findings that would produce the same comment.
type DedupKey struct {
	File         string
	ResolvedLine int
	Side         Side
	RuleID       string
}

// Key returns the deduplication key for a placed finding.
func (p PlacedFinding) Key() DedupKey {
	return DedupKey{
		File:         p.File,
		ResolvedLine: p.ResolvedLine,
		Side:         p.Side,
		RuleID:       p.RuleID,
	}
}

// Fingerprint returns a deterministic hash of the dedup key, suitable
// for embedding in published comments and diagnostics rows.
func (p PlacedFinding) Fingerprint() string {
	payload := fmt.Sprintf("%s|%d|%s|%s", p.File, p.ResolvedLine, p.Side, p.RuleID)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:8])
}
