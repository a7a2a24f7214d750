// Package git supplies per-file unified diffs from a local repository
// using go-git. It is the local-checkout implementation of the diff
// supply collaborator; a code-host API can serve the same role.
package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kmorrill/review-placer/internal/domain"
)

// Engine reads diffs from a repository directory.
type Engine struct {
	repoDir string
}

// NewEngine constructs a git engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// ChangedFiles computes the per-file unified diffs between two refs.
// Binary files are excluded: they have no commentable lines.
func (e *Engine) ChangedFiles(ctx context.Context, baseRef, targetRef string) (domain.ChangeSet, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return domain.ChangeSet{}, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return domain.ChangeSet{}, fmt.Errorf("resolve base ref: %w", err)
	}
	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return domain.ChangeSet{}, fmt.Errorf("resolve target ref: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, targetCommit)
	if err != nil {
		return domain.ChangeSet{}, fmt.Errorf("compute patch: %w", err)
	}

	filePatches := patch.FilePatches()
	patches := make([]domain.FilePatch, 0, len(filePatches))
	for _, fp := range filePatches {
		if fp.IsBinary() {
			continue
		}
		patchText, err := encodeFilePatch(fp)
		if err != nil {
			return domain.ChangeSet{}, fmt.Errorf("encode patch: %w", err)
		}
		patches = append(patches, domain.FilePatch{
			Path:  patchPath(fp),
			Patch: patchText,
		})
	}

	return domain.ChangeSet{
		CommitSHA: targetCommit.Hash.String(),
		Patches:   patches,
	}, nil
}

// CurrentBranch returns the name of the checked-out branch.
func (e *Engine) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

// patchPath returns the post-change path, falling back to the old path
// for deletions. Renames report the new path; findings referencing the
// old name of a renamed file resolve against its left-side lines.
func patchPath(fp formatdiff.FilePatch) string {
	from, to := fp.Files()
	if to != nil {
		return to.Path()
	}
	if from != nil {
		return from.Path()
	}
	return ""
}

// encodeFilePatch renders a single FilePatch as unified diff text.
func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// singlePatch adapts one FilePatch to the object.Patch interface the
// unified encoder expects.
type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}

// IsBinaryPatch reports whether patch text describes a binary file.
func IsBinaryPatch(patchText string) bool {
	return strings.Contains(patchText, "Binary files") ||
		strings.Contains(patchText, "GIT binary patch")
}
