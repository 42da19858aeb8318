// Package diffpos translates unified-diff text into the position coordinate
// system GitHub's review API uses to anchor inline comments. A "diff
// position" is a 1-based counter over the lines of one file's diff block,
// starting at the first hunk header and continuous across hunks; it is not
// the same as the file's line number.
package diffpos

import (
	"regexp"
	"strconv"
	"strings"
)

// PositionMap maps a file path to a map from new-file line number to diff
// position. Files never introduced by a "+++ b/" header are absent.
type PositionMap map[string]map[int]int

// PositionFor looks up the diff position for a line on the new side of the
// diff. The boolean is false when the file or line is not part of the diff,
// which is the signal callers use to drop unplaceable comments.
func (m PositionMap) PositionFor(file string, line int) (int, bool) {
	lines, ok := m[file]
	if !ok {
		return 0, false
	}
	pos, ok := lines[line]
	return pos, ok
}

// lineKind tags a raw diff line before dispatch, so the indexer's state
// transitions are explicit rather than buried in prefix checks.
type lineKind int

const (
	kindFileHeader lineKind = iota
	kindHunkHeader
	kindAdded
	kindRemoved
	kindContext
	kindNoNewline
	kindIgnorable
)

var (
	fileHeaderRegex = regexp.MustCompile(`^\+\+\+ b/(.+)`)
	hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)
)

// classify tags a single diff line. Order matters: the three-character
// prefixes must win over the one-character change markers.
func classify(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "+++ "):
		if fileHeaderRegex.MatchString(line) {
			return kindFileHeader
		}
		return kindIgnorable // "+++ /dev/null" and friends
	case strings.HasPrefix(line, "--- "):
		return kindIgnorable
	case strings.HasPrefix(line, "@@"):
		if hunkHeaderRegex.MatchString(line) {
			return kindHunkHeader
		}
		return kindIgnorable
	case strings.HasPrefix(line, "\\"):
		return kindNoNewline // "\ No newline at end of file"
	case strings.HasPrefix(line, "+"):
		return kindAdded
	case strings.HasPrefix(line, "-"):
		return kindRemoved
	case strings.HasPrefix(line, "diff --git"), strings.HasPrefix(line, "index "), line == "":
		return kindIgnorable
	default:
		// A leading space is the normal case; anything else is treated as
		// context too, which keeps the counters aligned for slightly
		// mangled diffs.
		return kindContext
	}
}

// Index walks the diff text once, line by line, and records the diff
// position of every line present on the new side (additions and context).
// Malformed input never raises an error; unrecognized lines are skipped and
// the result degrades to an incomplete map, causing the affected comments
// to be dropped later.
func Index(diffText string) PositionMap {
	positions := make(PositionMap)

	var currentFile string
	var position int // resets at each file header, counts hunk headers too
	var newLine int  // line number on the new side of the current hunk

	for _, line := range strings.Split(diffText, "\n") {
		kind := classify(line)
		if kind == kindFileHeader {
			currentFile = fileHeaderRegex.FindStringSubmatch(line)[1]
			positions[currentFile] = make(map[int]int)
			position = 0
			continue
		}
		if currentFile == "" {
			continue // diff preamble before the first file header
		}

		switch kind {
		case kindHunkHeader:
			start, err := strconv.Atoi(hunkHeaderRegex.FindStringSubmatch(line)[1])
			if err != nil {
				continue
			}
			newLine = start
			position++ // the header line itself occupies one position
		case kindAdded:
			positions[currentFile][newLine] = position
			newLine++
			position++
		case kindRemoved:
			position++ // exists only on the old side, no new-line entry
		case kindContext:
			positions[currentFile][newLine] = position
			newLine++
			position++
		case kindNoNewline, kindIgnorable:
			// no state changes at all
		}
	}

	return positions
}
