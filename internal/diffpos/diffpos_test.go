package diffpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleHunkDiff = `diff --git a/a.py b/a.py
index 83db48f..bf269f4 100644
--- a/a.py
+++ b/a.py
@@ -1,2 +1,3 @@
 ctx1
+added
 ctx2
`

func TestIndexSingleHunk(t *testing.T) {
	got := Index(singleHunkDiff)

	require.Contains(t, got, "a.py")
	// The hunk header occupies position 1; the three content lines follow.
	assert.Equal(t, map[int]int{1: 1, 2: 2, 3: 3}, got["a.py"])
}

func TestIndexRemovedLinesAdvancePositionOnly(t *testing.T) {
	diff := `--- a/b.go
+++ b/b.go
@@ -10,4 +10,3 @@
 keep
-gone
-also gone
+replacement
 tail
`
	got := Index(diff)

	require.Contains(t, got, "b.go")
	// keep=1, the two removals burn positions 2 and 3, replacement=4, tail=5.
	assert.Equal(t, map[int]int{10: 1, 11: 4, 12: 5}, got["b.go"])
}

func TestIndexMultipleHunksContinuousPositions(t *testing.T) {
	diff := `+++ b/c.go
@@ -1,2 +1,2 @@
 one
+two
@@ -10,2 +10,2 @@
 ten
+eleven
`
	got := Index(diff)

	require.Contains(t, got, "c.go")
	// The second hunk header burns position 4; positions never reset mid-file.
	assert.Equal(t, map[int]int{1: 1, 2: 2, 10: 4, 11: 5}, got["c.go"])
}

func TestIndexResetsAtFileHeader(t *testing.T) {
	diff := `+++ b/first.go
@@ -1,1 +1,1 @@
+alpha
+++ b/second.go
@@ -1,1 +1,1 @@
+beta
`
	got := Index(diff)

	require.Len(t, got, 2)
	assert.Equal(t, map[int]int{1: 1}, got["first.go"])
	assert.Equal(t, map[int]int{1: 1}, got["second.go"])
}

func TestIndexNoNewlineMarkerIsInert(t *testing.T) {
	diff := `+++ b/d.txt
@@ -1,1 +1,1 @@
-old
\ No newline at end of file
+new
\ No newline at end of file
`
	got := Index(diff)

	require.Contains(t, got, "d.txt")
	// The removal takes position 1, both markers are skipped, the addition
	// lands on position 2.
	assert.Equal(t, map[int]int{1: 2}, got["d.txt"])
}

func TestIndexSkipsPreambleBeforeFirstFile(t *testing.T) {
	diff := `some stray text
@@ -1,1 +1,1 @@
+never counted
+++ b/e.go
@@ -1,1 +1,1 @@
+counted
`
	got := Index(diff)

	require.Len(t, got, 1)
	assert.Equal(t, map[int]int{1: 1}, got["e.go"])
}

func TestIndexMalformedInputDegrades(t *testing.T) {
	tests := []struct {
		name string
		diff string
	}{
		{"empty", ""},
		{"garbage", "not a diff\nat all\n"},
		{"header without hunks", "+++ b/f.go\n"},
		{"malformed hunk header", "+++ b/f.go\n@@ broken @@\n+line\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() { Index(tt.diff) })
		})
	}
}

func TestIndexMalformedHunkHeaderSkipped(t *testing.T) {
	diff := `+++ b/g.go
@@ garbage @@
+orphan
@@ -1,1 +1,1 @@
+real
`
	got := Index(diff)

	require.Contains(t, got, "g.go")
	// The malformed header contributes nothing; the orphan addition records
	// against the stale new-line counter (0) and still burns a position.
	assert.Equal(t, 2, got["g.go"][1])
}

func TestIndexIdempotent(t *testing.T) {
	first := Index(singleHunkDiff)
	second := Index(singleHunkDiff)

	assert.Equal(t, first, second)
}

func TestPositionFor(t *testing.T) {
	m := Index(singleHunkDiff)

	pos, ok := m.PositionFor("a.py", 2)
	require.True(t, ok)
	assert.Equal(t, 2, pos)

	_, ok = m.PositionFor("a.py", 99)
	assert.False(t, ok)

	_, ok = m.PositionFor("missing.py", 1)
	assert.False(t, ok)
}

func TestIndexMonotonicWithinHunk(t *testing.T) {
	diff := `+++ b/h.go
@@ -1,5 +1,6 @@
 a
+b
 c
+d
 e
 f
`
	got := Index(diff)

	require.Contains(t, got, "h.go")
	prev := 0
	for line := 1; line <= 6; line++ {
		pos, ok := got["h.go"][line]
		require.True(t, ok, "line %d missing", line)
		assert.Greater(t, pos, prev)
		prev = pos
	}
}
