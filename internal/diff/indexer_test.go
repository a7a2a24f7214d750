package diff_test

import (
	"errors"
	"testing"

	"github.com/kmorrill/review-placer/internal/diff"
	"github.com/kmorrill/review-placer/internal/domain"
)

func TestBuild_SingleHunk(t *testing.T) {
	patch := `@@ -10,3 +10,4 @@ func example() {
 context line
+added line
 another context
+second addition
`

	ix, err := diff.Build(patch)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// New lines 10-13 all commentable on the right side.
	for line := 10; line <= 13; line++ {
		if !ix.Valid(domain.SideAdded, line) {
			t.Errorf("expected right line %d valid", line)
		}
	}
	if ix.Valid(domain.SideAdded, 14) {
		t.Error("line 14 should not be valid on the right")
	}

	// Old side only has the two context lines.
	if !ix.Valid(domain.SideRemoved, 10) || !ix.Valid(domain.SideRemoved, 11) {
		t.Error("expected old lines 10-11 valid on the left")
	}
	if ix.Valid(domain.SideRemoved, 12) {
		t.Error("old line 12 should not be valid")
	}

	hunks := ix.Hunks(domain.SideAdded)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 right hunk, got %d", len(hunks))
	}
	if hunks[0].Start != 10 || hunks[0].End != 13 {
		t.Errorf("expected right hunk [10,13], got [%d,%d]", hunks[0].Start, hunks[0].End)
	}
}

func TestBuild_MultipleHunks(t *testing.T) {
	patch := `@@ -10,2 +10,3 @@ func first() {
 context
+added
@@ -20,2 +21,3 @@ func second() {
 context
+added
`

	ix, err := diff.Build(patch)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	hunks := ix.Hunks(domain.SideAdded)
	if len(hunks) != 2 {
		t.Fatalf("expected 2 right hunks, got %d", len(hunks))
	}
	if hunks[0].Start != 10 {
		t.Errorf("hunk 0: expected start 10, got %d", hunks[0].Start)
	}
	if hunks[1].Start != 21 {
		t.Errorf("hunk 1: expected start 21, got %d", hunks[1].Start)
	}
	if !ix.Valid(domain.SideAdded, 22) {
		t.Error("expected right line 22 valid in second hunk")
	}
}

func TestBuild_NewFile(t *testing.T) {
	// All additions; the old side has no commentable lines at all.
	patch := `@@ -0,0 +1,3 @@
+line one
+line two
+line three
`

	ix, err := diff.Build(patch)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for line := 1; line <= 3; line++ {
		if !ix.Valid(domain.SideAdded, line) {
			t.Errorf("expected right line %d valid", line)
		}
	}
	if len(ix.Hunks(domain.SideRemoved)) != 0 {
		t.Error("deleted side should have no hunks for a new file")
	}
}

func TestBuild_DeletedFile(t *testing.T) {
	patch := `@@ -1,3 +0,0 @@
-line one
-line two
-line three
`

	ix, err := diff.Build(patch)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for line := 1; line <= 3; line++ {
		if !ix.Valid(domain.SideRemoved, line) {
			t.Errorf("expected left line %d valid", line)
		}
		if ix.Valid(domain.SideAdded, line) {
			t.Errorf("right line %d should not be valid for a deleted file", line)
		}
	}
	if len(ix.Hunks(domain.SideAdded)) != 0 {
		t.Error("added side should have no hunks for a deleted file")
	}
}

func TestBuild_MixedChanges(t *testing.T) {
	patch := `@@ -5,4 +5,4 @@ package main
 import "fmt"
-func old() {}
+func new() {}
 func main() {}
`

	ix, err := diff.Build(patch)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Left: context 5, deletion 6, context 7. Right: context 5, add 6, context 7.
	if !ix.Valid(domain.SideRemoved, 6) {
		t.Error("deleted line 6 should be valid on the left")
	}
	if !ix.Valid(domain.SideAdded, 6) {
		t.Error("added line 6 should be valid on the right")
	}
	left := ix.Hunks(domain.SideRemoved)
	if len(left) != 1 || left[0].Start != 5 || left[0].End != 7 {
		t.Errorf("expected left hunk [5,7], got %+v", left)
	}
}

func TestBuild_SkipsFileHeaders(t *testing.T) {
	patch := `diff --git a/main.go b/main.go
index 83db48f..f735c2d 100644
--- a/main.go
+++ b/main.go
@@ -1,2 +1,3 @@
 package main
+// comment
 func main() {}
\ No newline at end of file
`

	ix, err := diff.Build(patch)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !ix.Valid(domain.SideAdded, 2) {
		t.Error("expected added line 2 valid")
	}
}

func TestBuild_NoHunkHeader(t *testing.T) {
	_, err := diff.Build("this is not a diff\nat all\n")
	if !errors.Is(err, diff.ErrMalformedDiff) {
		t.Fatalf("expected ErrMalformedDiff, got %v", err)
	}
}

func TestBuild_EmptyPatch(t *testing.T) {
	_, err := diff.Build("")
	if !errors.Is(err, diff.ErrMalformedDiff) {
		t.Fatalf("expected ErrMalformedDiff for empty patch, got %v", err)
	}
}

func TestBuild_ObservedBoundsTrumpDeclared(t *testing.T) {
	// Header declares 4 new lines but only 2 are present; the hunk
	// range must reflect what was actually seen.
	patch := `@@ -10,2 +10,4 @@
 context
+added
`

	ix, err := diff.Build(patch)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	hunks := ix.Hunks(domain.SideAdded)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if hunks[0].End != 11 {
		t.Errorf("expected observed end 11, got %d", hunks[0].End)
	}
	if ix.Valid(domain.SideAdded, 13) {
		t.Error("declared-but-absent line 13 must not be valid")
	}
}

func TestRange_Helpers(t *testing.T) {
	r := diff.Range{Start: 10, End: 13}

	if !r.Contains(10) || !r.Contains(13) {
		t.Error("range should contain its endpoints")
	}
	if r.Contains(14) {
		t.Error("range should not contain 14")
	}
	if got := r.Distance(17); got != 4 {
		t.Errorf("Distance(17) = %d, want 4", got)
	}
	if got := r.Distance(7); got != 3 {
		t.Errorf("Distance(7) = %d, want 3", got)
	}
	if got := r.Distance(11); got != 0 {
		t.Errorf("Distance(11) = %d, want 0", got)
	}
	if got := r.Clamp(17); got != 13 {
		t.Errorf("Clamp(17) = %d, want 13", got)
	}
	if got := r.Clamp(7); got != 10 {
		t.Errorf("Clamp(7) = %d, want 10", got)
	}
}
