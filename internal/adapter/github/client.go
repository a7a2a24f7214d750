// Package github implements the publish.ReviewClient port using the
// go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/kmorrill/review-placer/internal/domain"
	"github.com/kmorrill/review-placer/internal/usecase/publish"
)

// Compile-time interface satisfaction check.
var _ publish.ReviewClient = (*Client)(nil)

// Client implements the publish.ReviewClient port using the go-github
// library with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client authenticated with the given
// token (a personal access token or GITHUB_TOKEN from Actions).
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection
// of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// CreateReview submits one pull request review with all inline comments
// attached, anchored to the batch's commit SHA. Comments use line+side
// addressing; REMOVED-side comments map to side LEFT.
func (c *Client) CreateReview(ctx context.Context, input publish.CreateReviewInput) (*publish.CreateReviewResult, error) {
	comments := make([]*gh.DraftReviewComment, 0, len(input.Comments))
	for _, rc := range input.Comments {
		comments = append(comments, &gh.DraftReviewComment{
			Path: gh.Ptr(rc.File),
			Line: gh.Ptr(rc.Line),
			Side: gh.Ptr(apiSide(rc.Side)),
			Body: gh.Ptr(rc.Body),
		})
	}

	review := &gh.PullRequestReviewRequest{
		CommitID: gh.Ptr(input.CommitSHA),
		Event:    gh.Ptr("COMMENT"),
		Body:     gh.Ptr(input.Summary),
		Comments: comments,
	}

	created, _, err := c.gh.PullRequests.CreateReview(ctx, input.Owner, input.Repo, input.PullNumber, review)
	if err != nil {
		return nil, fmt.Errorf("creating review for %s/%s#%d: %w", input.Owner, input.Repo, input.PullNumber, err)
	}

	return &publish.CreateReviewResult{
		ReviewID: created.GetID(),
		HTMLURL:  created.GetHTMLURL(),
	}, nil
}

// apiSide converts the domain side to GitHub's LEFT/RIGHT vocabulary.
func apiSide(side domain.Side) string {
	if side == domain.SideRemoved {
		return "LEFT"
	}
	return "RIGHT"
}
