// Package findings loads Finding records from analyzer and AI tool
// output. Producers emit slightly different JSON shapes, so parsing
// uses gjson path lookups with fallbacks instead of rigid structs.
package findings

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kmorrill/review-placer/internal/domain"
)

// Loader converts raw JSON findings output into domain Findings.
type Loader struct {
	labelSeverities map[string]domain.Severity
}

// NewLoader creates a loader. labelSeverities maps free-form AI
// suggestion labels (e.g. "Enhancement", "Possible Bug") to severities;
// lookups are case-insensitive. Static-analyzer records carry explicit
// severities and bypass the mapping.
func NewLoader(labelSeverities map[string]domain.Severity) *Loader {
	normalized := make(map[string]domain.Severity, len(labelSeverities))
	for label, sev := range labelSeverities {
		normalized[strings.ToLower(label)] = sev
	}
	return &Loader{labelSeverities: normalized}
}

// Load parses a JSON array of finding records. Expected fields per
// record: source, rule (or rule_id), file (or path), line, and either
// severity or label; side, title and body are optional. Records that
// fail structural validation abort the load with a descriptive error:
// silently dropping supplied findings would violate the engine's
// nothing-lost guarantee.
func (l *Loader) Load(raw []byte) ([]domain.Finding, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("findings: invalid JSON")
	}

	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("findings: expected a JSON array, got %s", parsed.Type)
	}

	var result []domain.Finding
	var loadErr error
	parsed.ForEach(func(idx, record gjson.Result) bool {
		f, err := l.parseRecord(record)
		if err != nil {
			loadErr = fmt.Errorf("findings[%d]: %w", len(result), err)
			return false
		}
		result = append(result, f)
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return result, nil
}

func (l *Loader) parseRecord(record gjson.Result) (domain.Finding, error) {
	source := domain.Source(record.Get("source").String())
	if source == "" {
		source = domain.SourceStaticAnalyzer
	}

	severity, err := l.severityFor(source, record)
	if err != nil {
		return domain.Finding{}, err
	}

	return domain.NewFinding(domain.FindingInput{
		Source:      source,
		RuleID:      firstString(record, "rule", "rule_id", "check"),
		File:        firstString(record, "file", "path", "file_path"),
		DesiredLine: int(record.Get("line").Int()),
		Side:        side(record),
		Severity:    severity,
		Title:       record.Get("title").String(),
		Body:        firstString(record, "body", "message", "description"),
	})
}

// severityFor resolves a record's severity. AI suggestions may carry a
// label instead of a severity; the configured mapping translates it,
// defaulting unmapped labels to MEDIUM so novel labels surface instead
// of vanishing.
func (l *Loader) severityFor(source domain.Source, record gjson.Result) (domain.Severity, error) {
	if sev := record.Get("severity").String(); sev != "" {
		parsed, err := domain.ParseSeverity(strings.ToUpper(sev))
		if err != nil {
			return "", err
		}
		return parsed, nil
	}

	if source == domain.SourceAISuggestion {
		label := record.Get("label").String()
		if label == "" {
			return domain.SeverityMedium, nil
		}
		if sev, ok := l.labelSeverities[strings.ToLower(label)]; ok {
			return sev, nil
		}
		return domain.SeverityMedium, nil
	}

	return "", fmt.Errorf("missing severity")
}

func side(record gjson.Result) domain.Side {
	if strings.EqualFold(record.Get("side").String(), string(domain.SideRemoved)) {
		return domain.SideRemoved
	}
	return domain.SideAdded
}

// firstString returns the first non-empty value among the given paths.
func firstString(record gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := record.Get(p).String(); v != "" {
			return v
		}
	}
	return ""
}
