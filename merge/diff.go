package merge

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage"
)

// editConflictRanges loads the two conflicting blobs and reports the
// contiguous runs of lines that disagree between them, 1-based and
// inclusive (spec.md §4.9), the first differing line being 1.
func editConflictRanges(store storage.EncodedObjectStorer, ours, theirs plumbing.Hash) ([]LineRange, error) {
	oursContent, err := getBlob(store, ours)
	if err != nil {
		return nil, err
	}
	theirsContent, err := getBlob(store, theirs)
	if err != nil {
		return nil, err
	}
	return lineDiffRanges(oursContent, theirsContent), nil
}

func getBlob(store storage.EncodedObjectStorer, h plumbing.Hash) (string, error) {
	content, err := object.GetBlobContent(store, h)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// lineDiffRanges runs a line-mode diff between ours and theirs (the
// same diffmatchpatch-based technique the teacher's revlist/revlist.go
// uses to compare blob content across commits) and collapses the
// Insert/Delete runs it reports into 1-based line ranges counted
// against ours's line numbering.
func lineDiffRanges(ours, theirs string) []LineRange {
	dmp := diffmatchpatch.New()
	oursChars, theirsChars, lineArray := dmp.DiffLinesToChars(ours, theirs)
	diffs := dmp.DiffMain(oursChars, theirsChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ranges []LineRange
	line := 1
	runStart := 0

	flush := func(end int) {
		if runStart != 0 {
			if end < runStart {
				// A run of inserted lines only covers no line of ours;
				// report the ours line where it lands.
				end = runStart
			}
			ranges = append(ranges, LineRange{Start: runStart, End: end})
			runStart = 0
		}
	}

	for _, d := range diffs {
		n := countLines(d.Text)
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush(line - 1)
			line += n
		case diffmatchpatch.DiffDelete:
			if runStart == 0 {
				runStart = line
			}
			line += n
		case diffmatchpatch.DiffInsert:
			if runStart == 0 {
				runStart = line
			}
			// Inserted lines belong to theirs; they don't advance
			// ours's line count.
		}
	}
	flush(line - 1)
	return ranges
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
