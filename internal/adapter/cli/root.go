package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kmorrill/review-placer/internal/domain"
	"github.com/kmorrill/review-placer/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Placer defines the dependency required to run the place command.
type Placer interface {
	Run(ctx context.Context, req review.Request) (review.Result, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// FindingsLoader parses raw findings input into domain findings.
type FindingsLoader interface {
	Load(raw []byte) ([]domain.Finding, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Placer       Placer
	Loader       FindingsLoader
	Args         Arguments
	DefaultOwner string
	DefaultRepo  string
	Version      string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "rp",
		Short: "Diff-aware finding placement for pull request reviews",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(placeCommand(deps.Placer, deps.Loader, deps.DefaultOwner, deps.DefaultRepo))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func placeCommand(placer Placer, loader FindingsLoader, defaultOwner, defaultRepo string) *cobra.Command {
	var baseRef string
	var targetRef string
	var findingsPath string
	var detectTarget bool
	var summary string

	// Publishing flags
	var publishReview bool
	var githubOwner string
	var githubRepo string
	var prNumber int

	cmd := &cobra.Command{
		Use:   "place [target]",
		Short: "Place findings onto a branch diff and assemble a review batch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				targetRef = args[0]
			}
			ctx := cmd.Context()
			if targetRef == "" && detectTarget {
				resolved, err := placer.CurrentBranch(ctx)
				if err != nil {
					return fmt.Errorf("detect target branch: %w", err)
				}
				targetRef = resolved
			}
			if targetRef == "" {
				return fmt.Errorf("target branch not specified; pass as an argument, use --target, or disable --detect-target")
			}

			if findingsPath == "" {
				return fmt.Errorf("--findings is required")
			}
			raw, err := os.ReadFile(findingsPath)
			if err != nil {
				return fmt.Errorf("read findings file: %w", err)
			}
			findings, err := loader.Load(raw)
			if err != nil {
				return fmt.Errorf("parse findings: %w", err)
			}

			if publishReview {
				if githubOwner == "" || githubRepo == "" {
					return fmt.Errorf("--owner and --repo are required when --publish is set")
				}
				if prNumber <= 0 {
					return fmt.Errorf("--pr must be a positive integer when --publish is set")
				}
			}

			result, err := placer.Run(ctx, review.Request{
				BaseRef:    baseRef,
				TargetRef:  targetRef,
				Findings:   findings,
				Owner:      githubOwner,
				Repo:       githubRepo,
				PullNumber: prNumber,
				Summary:    summary,
				Publish:    publishReview,
			})
			if err != nil {
				return err
			}

			renderResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "main", "Base reference to diff against")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target branch to place findings on (overrides positional)")
	cmd.Flags().StringVar(&findingsPath, "findings", "", "Path to a JSON findings file")
	cmd.Flags().BoolVar(&detectTarget, "detect-target", true, "Automatically detect the checked out branch when no target is provided")
	cmd.Flags().StringVar(&summary, "summary", "", "Summary body for the published review")

	cmd.Flags().BoolVar(&publishReview, "publish", false, "Publish the batch as a GitHub PR review with inline comments")
	cmd.Flags().StringVar(&githubOwner, "owner", defaultOwner, "GitHub repository owner (required with --publish)")
	cmd.Flags().StringVar(&githubRepo, "repo", defaultRepo, "GitHub repository name (required with --publish)")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number (required with --publish)")

	return cmd
}

// renderResult prints a one-screen summary of the run: placed comment
// count, skip reasons, and the review URL when one was published.
func renderResult(w io.Writer, result review.Result) {
	batch := result.Batch
	_, _ = fmt.Fprintf(w, "commit %s: %d comment(s), %d skipped\n", batch.CommitSHA, len(batch.Comments), len(batch.Skipped))

	if len(batch.Skipped) > 0 {
		counts := make(map[domain.SkipReason]int)
		for _, s := range batch.Skipped {
			counts[s.Reason]++
		}
		reasons := make([]string, 0, len(counts))
		for reason := range counts {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			_, _ = fmt.Fprintf(w, "  skipped %d: %s\n", counts[domain.SkipReason(reason)], reason)
		}
	}

	if result.Published {
		_, _ = fmt.Fprintf(w, "published review: %s\n", result.ReviewURL)
	}
	if result.RunID != "" {
		_, _ = fmt.Fprintf(w, "run id: %s\n", result.RunID)
	}
}
