package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kmorrill/review-placer/internal/adapter/cli"
	"github.com/kmorrill/review-placer/internal/domain"
	"github.com/kmorrill/review-placer/internal/usecase/review"
)

type placerStub struct {
	request review.Request
	result  review.Result
	err     error
	current string
}

func (p *placerStub) Run(ctx context.Context, req review.Request) (review.Result, error) {
	p.request = req
	return p.result, p.err
}

func (p *placerStub) CurrentBranch(ctx context.Context) (string, error) {
	if p.current == "" {
		return "", errors.New("no branch")
	}
	return p.current, nil
}

type loaderStub struct {
	raw      []byte
	findings []domain.Finding
	err      error
}

func (l *loaderStub) Load(raw []byte) ([]domain.Finding, error) {
	l.raw = raw
	return l.findings, l.err
}

func writeFindingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "findings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write findings file: %v", err)
	}
	return path
}

func TestPlaceCommandInvokesUseCase(t *testing.T) {
	stub := &placerStub{}
	loader := &loaderStub{}
	path := writeFindingsFile(t, `[]`)

	root := cli.NewRootCommand(cli.Dependencies{
		Placer: stub,
		Loader: loader,
		Args:   cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"place", "feature", "--base", "master", "--findings", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.TargetRef != "feature" {
		t.Fatalf("expected target ref feature, got %s", stub.request.TargetRef)
	}
	if stub.request.BaseRef != "master" {
		t.Fatalf("expected base ref master, got %s", stub.request.BaseRef)
	}
	if stub.request.Publish {
		t.Fatalf("publish should default to false")
	}
	if string(loader.raw) != `[]` {
		t.Fatalf("loader received unexpected input %q", loader.raw)
	}
}

func TestPlaceCommandDetectsTarget(t *testing.T) {
	stub := &placerStub{current: "feature/login"}
	path := writeFindingsFile(t, `[]`)

	root := cli.NewRootCommand(cli.Dependencies{
		Placer: stub,
		Loader: &loaderStub{},
		Args:   cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"place", "--findings", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.TargetRef != "feature/login" {
		t.Fatalf("expected detected target, got %s", stub.request.TargetRef)
	}
}

func TestPlaceCommandRequiresFindings(t *testing.T) {
	root := cli.NewRootCommand(cli.Dependencies{
		Placer: &placerStub{},
		Loader: &loaderStub{},
		Args:   cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"place", "feature"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--findings is required") {
		t.Fatalf("expected findings requirement error, got %v", err)
	}
}

func TestPlaceCommandValidatesPublishFlags(t *testing.T) {
	path := writeFindingsFile(t, `[]`)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing owner and repo",
			args: []string{"place", "feature", "--findings", path, "--publish", "--pr", "7"},
			want: "--owner and --repo are required",
		},
		{
			name: "missing pr number",
			args: []string{"place", "feature", "--findings", path, "--publish", "--owner", "acme", "--repo", "widgets"},
			want: "--pr must be a positive integer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := cli.NewRootCommand(cli.Dependencies{
				Placer: &placerStub{},
				Loader: &loaderStub{},
				Args:   cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
			})
			root.SetArgs(tc.args)
			err := root.Execute()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestPlaceCommandPassesPublishTarget(t *testing.T) {
	stub := &placerStub{result: review.Result{Published: true, ReviewURL: "https://example.com/r/9"}}
	path := writeFindingsFile(t, `[]`)
	var out bytes.Buffer

	root := cli.NewRootCommand(cli.Dependencies{
		Placer:       stub,
		Loader:       &loaderStub{},
		Args:         cli.Arguments{OutWriter: &out, ErrWriter: io.Discard},
		DefaultOwner: "acme",
		DefaultRepo:  "widgets",
	})

	root.SetArgs([]string{"place", "feature", "--findings", path, "--publish", "--pr", "9", "--summary", "automated review"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.Owner != "acme" || stub.request.Repo != "widgets" {
		t.Fatalf("expected default owner/repo, got %s/%s", stub.request.Owner, stub.request.Repo)
	}
	if stub.request.PullNumber != 9 {
		t.Fatalf("expected pull number 9, got %d", stub.request.PullNumber)
	}
	if stub.request.Summary != "automated review" {
		t.Fatalf("expected summary to pass through, got %q", stub.request.Summary)
	}
	if !strings.Contains(out.String(), "https://example.com/r/9") {
		t.Fatalf("expected review URL in output, got %q", out.String())
	}
}

func TestPlaceCommandRendersSkipReasons(t *testing.T) {
	f, err := domain.NewFinding(domain.FindingInput{
		Source:      domain.SourceStaticAnalyzer,
		RuleID:      "no-console",
		File:        "a.ts",
		DesiredLine: 40,
		Severity:    domain.SeverityLow,
		Body:        "remove the console call",
	})
	if err != nil {
		t.Fatalf("build finding: %v", err)
	}
	stub := &placerStub{result: review.Result{Batch: domain.ReviewBatch{
		CommitSHA: "abc123",
		Comments:  []domain.ReviewComment{},
		Skipped: []domain.SkippedFinding{
			{Finding: f, Reason: domain.SkipLineOutsideDiffRange},
			{Finding: f, Reason: domain.SkipLineOutsideDiffRange},
			{Finding: f, Reason: domain.SkipBudgetExceeded},
		},
	}}}
	path := writeFindingsFile(t, `[]`)
	var out bytes.Buffer

	root := cli.NewRootCommand(cli.Dependencies{
		Placer: stub,
		Loader: &loaderStub{},
		Args:   cli.Arguments{OutWriter: &out, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"place", "feature", "--findings", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "skipped 2: line_outside_diff_range") {
		t.Fatalf("expected aggregated skip reasons, got %q", got)
	}
	if !strings.Contains(got, "skipped 1: budget_exceeded") {
		t.Fatalf("expected budget skip reason, got %q", got)
	}
}

func TestVersionFlagShortCircuits(t *testing.T) {
	var out bytes.Buffer
	root := cli.NewRootCommand(cli.Dependencies{
		Placer:  &placerStub{},
		Loader:  &loaderStub{},
		Args:    cli.Arguments{OutWriter: &out, ErrWriter: io.Discard},
		Version: "v1.2.3",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected ErrVersionRequested, got %v", err)
	}
	if !strings.Contains(out.String(), "v1.2.3") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}
