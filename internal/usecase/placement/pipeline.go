package placement

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kmorrill/review-placer/internal/diff"
	"github.com/kmorrill/review-placer/internal/domain"
)

// Config holds the placement limits for one pipeline.
type Config struct {
	// MaxComments caps the number of inline comments per batch.
	MaxComments int

	// PlatformCeiling is the hosting platform's own hard limit on
	// inline comments per review action. Never exceeded regardless of
	// MaxComments.
	PlatformCeiling int

	// SeverityThreshold drops findings strictly below it.
	SeverityThreshold domain.Severity

	// AdjustTolerance is the maximum distance in lines a finding may be
	// moved onto a hunk boundary before it is declared unplaceable.
	AdjustTolerance int
}

// Validate rejects limits the pipeline must never run with.
func (c Config) Validate() error {
	if c.MaxComments <= 0 {
		return fmt.Errorf("placement config: maxComments must be positive, got %d", c.MaxComments)
	}
	if c.PlatformCeiling <= 0 {
		return fmt.Errorf("placement config: platformCeiling must be positive, got %d", c.PlatformCeiling)
	}
	if c.AdjustTolerance < 0 {
		return fmt.Errorf("placement config: adjustTolerance must not be negative, got %d", c.AdjustTolerance)
	}
	if _, err := domain.ParseSeverity(string(c.SeverityThreshold)); err != nil {
		return fmt.Errorf("placement config: %w", err)
	}
	return nil
}

// Pipeline runs the full placement engine: index, resolve, select,
// assemble. It is a pure synchronous function of its inputs; a Pipeline
// may be shared across goroutines and runs freely in parallel.
type Pipeline struct {
	cfg      Config
	resolver Resolver
	selector Selector
	format   Formatter
}

// New constructs a Pipeline, rejecting invalid configuration eagerly.
func New(cfg Config, format Formatter) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if format == nil {
		return nil, fmt.Errorf("placement config: formatter is required")
	}
	return &Pipeline{
		cfg:      cfg,
		resolver: NewResolver(cfg.AdjustTolerance),
		selector: NewSelector(cfg.SeverityThreshold, cfg.MaxComments, cfg.PlatformCeiling),
		format:   format,
	}, nil
}

// fileResult carries one file's resolved findings out of the fan-out.
type fileResult struct {
	placed []domain.PlacedFinding
}

// Run executes one placement run. Findings keep their supplied order as
// the ranking tie-break; patches are matched to findings by path. Files
// with malformed or missing diffs make their findings unplaceable but
// never abort the run.
func (p *Pipeline) Run(commitSHA string, findings []domain.Finding, patches []domain.FilePatch) domain.ReviewBatch {
	patchByPath := make(map[string]string, len(patches))
	for _, fp := range patches {
		patchByPath[fp.Path] = fp.Patch
	}

	// Group findings by file, remembering the global input order.
	type task struct {
		path     string
		findings []domain.PlacedFinding
	}
	byFile := make(map[string]*task)
	order := make([]string, 0)
	for i, f := range findings {
		t, ok := byFile[f.File]
		if !ok {
			t = &task{path: f.File}
			byFile[f.File] = t
			order = append(order, f.File)
		}
		t.findings = append(t.findings, domain.PlacedFinding{Finding: f, InputOrder: i})
	}

	// Index and resolve each file independently. Ranking and the budget
	// are global, so the join below is a correctness requirement: the
	// selector must not run until every file has been resolved.
	results := make([]fileResult, len(order))
	var wg sync.WaitGroup
	for i, path := range order {
		wg.Add(1)
		go func(slot int, t *task) {
			defer wg.Done()
			results[slot] = p.resolveFile(t.findings, patchByPath[t.path])
		}(i, byFile[path])
	}
	wg.Wait()

	var placeable, unplaceable []domain.PlacedFinding
	for _, res := range results {
		for _, placed := range res.placed {
			if placed.Placeable() {
				placeable = append(placeable, placed)
			} else {
				unplaceable = append(unplaceable, placed)
			}
		}
	}

	// Restore global input order so selection and the diagnostics
	// report are independent of the per-file grouping above.
	byInputOrder := func(fs []domain.PlacedFinding) {
		sort.SliceStable(fs, func(i, j int) bool {
			return fs[i].InputOrder < fs[j].InputOrder
		})
	}
	byInputOrder(placeable)
	byInputOrder(unplaceable)

	skipped := make([]domain.SkippedFinding, 0, len(unplaceable))
	for _, placed := range unplaceable {
		skipped = append(skipped, domain.SkippedFinding{
			Finding: placed.Finding,
			Reason:  domain.SkipLineOutsideDiffRange,
		})
	}

	selected, dropped := p.selector.Select(placeable)
	skipped = append(skipped, dropped...)

	return Assemble(commitSHA, selected, skipped, p.format)
}

// resolveFile builds the file's index and resolves its findings. A file
// with no patch or an unparseable one yields an empty index: every
// finding for it becomes unplaceable, the rest of the run is unaffected.
func (p *Pipeline) resolveFile(findings []domain.PlacedFinding, patch string) fileResult {
	ix, err := diff.Build(patch)
	if err != nil {
		ix = diff.Index{}
	}

	placed := make([]domain.PlacedFinding, len(findings))
	for i, pf := range findings {
		resolved := p.resolver.Resolve(pf.Finding, ix)
		resolved.InputOrder = pf.InputOrder
		placed[i] = resolved
	}
	return fileResult{placed: placed}
}
