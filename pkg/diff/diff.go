package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	redColor    = "\x1b[31m"
	greenColor  = "\x1b[32m"
	yellowColor = "\x1b[33m"
	boldStyle   = "\x1b[1m"
	resetColor  = "\x1b[0m"
)

// GetDiff returns a colored line-oriented diff of originalCode vs newCode,
// prefixed with a one-line change summary for the file.
func GetDiff(filename, originalCode, newCode string) string {
	if originalCode == newCode {
		return ""
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(originalCode, newCode)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var result strings.Builder
	result.WriteString(statsLine(dmp.DiffMain(originalCode, newCode, true), filename))

	for _, d := range diffs {
		lines := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, line := range lines {
				result.WriteString(fmt.Sprintf("%s- %s%s\n", redColor, line, resetColor))
			}
		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				result.WriteString(fmt.Sprintf("%s+ %s%s\n", greenColor, line, resetColor))
			}
		case diffmatchpatch.DiffEqual:
			// Keep a little context around changes instead of the whole file.
			if len(lines) > 4 {
				result.WriteString(fmt.Sprintf("  %s\n", lines[0]))
				result.WriteString("  ...\n")
				result.WriteString(fmt.Sprintf("  %s\n", lines[len(lines)-1]))
			} else {
				for _, line := range lines {
					result.WriteString(fmt.Sprintf("  %s\n", line))
				}
			}
		}
	}
	return result.String()
}

// statsLine renders the filename with character-level addition/deletion
// counts.
func statsLine(diffs []diffmatchpatch.Diff, filename string) string {
	additions, deletions := calculateChanges(diffs)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%s%s%s ", boldStyle, yellowColor, filename, resetColor))
	if additions > 0 {
		result.WriteString(fmt.Sprintf("%s%s+++%d%s ", boldStyle, greenColor, additions, resetColor))
	}
	if deletions > 0 {
		result.WriteString(fmt.Sprintf("%s%s---%d%s", boldStyle, redColor, deletions, resetColor))
	}
	result.WriteString("\n")
	return result.String()
}

// calculateChanges counts added and deleted characters in the diff.
func calculateChanges(diffs []diffmatchpatch.Diff) (additions, deletions int) {
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += len(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += len(d.Text)
		}
	}
	return
}
