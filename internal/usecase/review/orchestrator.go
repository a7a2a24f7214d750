// Package review orchestrates one end-to-end placement run: diff
// supply, the placement pipeline, optional publishing, and optional
// diagnostics persistence. All I/O lives in the injected collaborators;
// the pipeline in the middle stays pure.
package review

import (
	"context"
	"fmt"

	"github.com/kmorrill/review-placer/internal/domain"
	"github.com/kmorrill/review-placer/internal/observability"
	"github.com/kmorrill/review-placer/internal/usecase/placement"
	"github.com/kmorrill/review-placer/internal/usecase/publish"
)

// DiffSource supplies per-file patches and the anchor commit.
type DiffSource interface {
	ChangedFiles(ctx context.Context, baseRef, targetRef string) (domain.ChangeSet, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// BatchPublisher posts an assembled batch to the code host.
type BatchPublisher interface {
	Post(ctx context.Context, req publish.Request) (*publish.Result, error)
}

// DiagnosticsStore persists run outcomes for later analysis.
type DiagnosticsStore interface {
	SaveRun(ctx context.Context, repository string, batch domain.ReviewBatch) (string, error)
}

// OrchestratorDeps captures the collaborators for a run. Publisher and
// Store are optional; Logger may be nil.
type OrchestratorDeps struct {
	Diff      DiffSource
	Pipeline  *placement.Pipeline
	Publisher BatchPublisher
	Store     DiagnosticsStore
	Logger    observability.Logger
}

// Orchestrator wires the collaborators around the placement pipeline.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator constructs an orchestrator from its dependencies.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Request describes one placement run.
type Request struct {
	BaseRef   string
	TargetRef string
	Findings  []domain.Finding

	// Publishing target; ignored unless Publish is set.
	Owner      string
	Repo       string
	PullNumber int
	Summary    string
	Publish    bool
}

// Result is the outcome of one run.
type Result struct {
	Batch     domain.ReviewBatch
	Published bool
	ReviewURL string

	// RunID is set when diagnostics persistence is enabled.
	RunID string
}

// Run executes diff supply, placement, and the optional follow-up
// stages. A store failure is logged but never fails the run: the batch
// was already assembled and possibly published.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	changes, err := o.deps.Diff.ChangedFiles(ctx, req.BaseRef, req.TargetRef)
	if err != nil {
		return Result{}, fmt.Errorf("diff supply: %w", err)
	}

	batch := o.deps.Pipeline.Run(changes.CommitSHA, req.Findings, changes.Patches)

	o.info(ctx, "placement complete", map[string]interface{}{
		"commit":   batch.CommitSHA,
		"comments": len(batch.Comments),
		"skipped":  len(batch.Skipped),
	})

	result := Result{Batch: batch}

	if req.Publish {
		if o.deps.Publisher == nil {
			return Result{}, fmt.Errorf("publish requested but no publisher configured")
		}
		posted, err := o.deps.Publisher.Post(ctx, publish.Request{
			Owner:      req.Owner,
			Repo:       req.Repo,
			PullNumber: req.PullNumber,
			Summary:    req.Summary,
			Batch:      batch,
		})
		if err != nil {
			return Result{}, err
		}
		result.Published = posted.Published
		result.ReviewURL = posted.HTMLURL
	}

	if o.deps.Store != nil {
		runID, err := o.deps.Store.SaveRun(ctx, req.Owner+"/"+req.Repo, batch)
		if err != nil {
			o.warn(ctx, "failed to persist diagnostics", map[string]interface{}{"error": err.Error()})
		} else {
			result.RunID = runID
		}
	}

	return result, nil
}

// CurrentBranch reports the branch checked out in the working tree.
func (o *Orchestrator) CurrentBranch(ctx context.Context) (string, error) {
	return o.deps.Diff.CurrentBranch(ctx)
}

func (o *Orchestrator) info(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.Info(ctx, msg, fields)
	}
}

func (o *Orchestrator) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.Warn(ctx, msg, fields)
	}
}
