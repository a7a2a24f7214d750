// Package publish submits assembled review batches to the code host.
package publish

import (
	"context"
	"fmt"

	"github.com/kmorrill/review-placer/internal/domain"
	"github.com/kmorrill/review-placer/internal/observability"
)

// ReviewClient is the port to the code host's review API.
// This interface allows for mocking in tests.
type ReviewClient interface {
	CreateReview(ctx context.Context, input CreateReviewInput) (*CreateReviewResult, error)
}

// CreateReviewInput contains everything needed for one review call.
type CreateReviewInput struct {
	Owner      string
	Repo       string
	PullNumber int
	CommitSHA  string
	Summary    string
	Comments   []domain.ReviewComment
}

// CreateReviewResult is the host's response to a created review.
type CreateReviewResult struct {
	ReviewID int64
	HTMLURL  string
}

// Poster publishes a ReviewBatch as a single non-blocking review
// action: one network call with all comments attached atomically,
// never one call per comment. It does not retry; the caller owns retry
// policy.
type Poster struct {
	client ReviewClient
	logger observability.Logger
}

// NewPoster creates a Poster. logger may be nil.
func NewPoster(client ReviewClient, logger observability.Logger) *Poster {
	return &Poster{client: client, logger: logger}
}

// Request identifies where a batch should be published.
type Request struct {
	Owner      string
	Repo       string
	PullNumber int
	Summary    string
	Batch      domain.ReviewBatch
}

// Result reports what happened during publishing.
type Result struct {
	// Published is false when the batch was empty and no call was made.
	Published bool

	ReviewID       int64
	HTMLURL        string
	CommentsPosted int

	// SkippedFindings is the size of the batch's diagnostics report,
	// surfaced here for logging convenience.
	SkippedFindings int
}

// Post publishes the batch. An empty batch is not an error: the call is
// skipped and the result says so, leaving escalation to the caller.
func (p *Poster) Post(ctx context.Context, req Request) (*Result, error) {
	if req.Batch.Empty() {
		p.info(ctx, "empty batch, skipping publish", map[string]interface{}{
			"repo":    req.Owner + "/" + req.Repo,
			"pr":      req.PullNumber,
			"skipped": len(req.Batch.Skipped),
		})
		return &Result{Published: false, SkippedFindings: len(req.Batch.Skipped)}, nil
	}

	resp, err := p.client.CreateReview(ctx, CreateReviewInput{
		Owner:      req.Owner,
		Repo:       req.Repo,
		PullNumber: req.PullNumber,
		CommitSHA:  req.Batch.CommitSHA,
		Summary:    req.Summary,
		Comments:   req.Batch.Comments,
	})
	if err != nil {
		return nil, fmt.Errorf("create review for %s/%s#%d: %w", req.Owner, req.Repo, req.PullNumber, err)
	}

	p.info(ctx, "review published", map[string]interface{}{
		"repo":     req.Owner + "/" + req.Repo,
		"pr":       req.PullNumber,
		"review":   resp.ReviewID,
		"comments": len(req.Batch.Comments),
		"skipped":  len(req.Batch.Skipped),
	})

	return &Result{
		Published:       true,
		ReviewID:        resp.ReviewID,
		HTMLURL:         resp.HTMLURL,
		CommentsPosted:  len(req.Batch.Comments),
		SkippedFindings: len(req.Batch.Skipped),
	}, nil
}

func (p *Poster) info(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.Info(ctx, msg, fields)
	}
}
