package domain

// ReviewComment is one platform-ready inline comment.
type ReviewComment struct {
	File string
	Line int
	Side Side
	Body string
}

// SkippedFinding records a finding that did not produce a comment,
// with the reason it was left out.
type SkippedFinding struct {
	Finding Finding
	Reason  SkipReason
}

// ReviewBatch is the full output of one pipeline run: the ordered
// comments to publish in a single review action, plus a diagnostic
// report of everything that was skipped along the way.
//
// Comments and Skipped are never nil; an empty batch is still a batch
// so the caller can decide whether publishing is worthwhile.
type ReviewBatch struct {
	// CommitSHA anchors the review; passed through opaquely from the
	// diff supplier.
	CommitSHA string

	Comments []ReviewComment
	Skipped  []SkippedFinding
}

// Empty reports whether the batch contains no publishable comments.
func (b ReviewBatch) Empty() bool {
	return len(b.Comments) == 0
}

// FilePatch is the unified diff text for a single file of a pull
// request, as supplied by the code host or a local git engine.
type FilePatch struct {
	Path  string
	Patch string
}

// ChangeSet is the diff supply for one placement run: per-file patches
// plus the commit the eventual review must be anchored to.
type ChangeSet struct {
	CommitSHA string
	Patches   []FilePatch
}
