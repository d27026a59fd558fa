package workspace

import (
	"fmt"
	"strings"

	"github.com/alantheprice/codeagent/pkg/config"
)

// Snippet is a bounded excerpt of a file used as model context. Line numbers
// are 1-based and absolute within the file. A snippet is invalidated once the
// underlying file is modified and must be re-extracted.
type Snippet struct {
	FilePath     string
	FullFile     bool
	Content      string
	LineStart    int
	LineEnd      int
	TotalLines   int
	MatchedLines []int
}

// Extractor returns either a whole file (when small) or a single contiguous
// window around the best keyword match. Multi-hotspot files surface one region
// per call; this bounds prompt size deterministically instead of attempting
// multi-window stitching.
type Extractor struct {
	contextLines int
}

func NewExtractor(cfg *config.Config) *Extractor {
	return &Extractor{contextLines: cfg.SnippetContextLines}
}

// Extract builds a snippet for filePath from its lines. Files with at most
// 2x the context window are returned whole. Otherwise a window of context
// lines is centered on the median matched line, clamped to file bounds; with
// no keyword match the window is taken from the top of the file.
func (e *Extractor) Extract(filePath string, lines []string, keywords []string) Snippet {
	totalLines := len(lines)

	if totalLines <= e.contextLines*2 {
		return Snippet{
			FilePath:   filePath,
			FullFile:   true,
			Content:    joinLines(lines),
			LineStart:  1,
			LineEnd:    totalLines,
			TotalLines: totalLines,
		}
	}

	matched := findMatchedLines(lines, keywords)
	if len(matched) == 0 {
		window := lines[:e.contextLines]
		return Snippet{
			FilePath:   filePath,
			FullFile:   false,
			Content:    joinLines(window),
			LineStart:  1,
			LineEnd:    len(window),
			TotalLines: totalLines,
		}
	}

	center := matched[len(matched)/2]
	start := center - e.contextLines/2
	if start < 0 {
		start = 0
	}
	end := center + e.contextLines/2
	if end > totalLines {
		end = totalLines
	}

	return Snippet{
		FilePath:     filePath,
		FullFile:     false,
		Content:      joinLines(lines[start:end]),
		LineStart:    start + 1,
		LineEnd:      end,
		TotalLines:   totalLines,
		MatchedLines: matched,
	}
}

// findMatchedLines returns the 0-based indices of lines containing any
// keyword, case-insensitively.
func findMatchedLines(lines []string, keywords []string) []int {
	var matched []int
	for i, line := range lines {
		lineLower := strings.ToLower(line)
		for _, keyword := range keywords {
			if strings.Contains(lineLower, strings.ToLower(keyword)) {
				matched = append(matched, i)
				break
			}
		}
	}
	return matched
}

// Format renders the snippet with absolute line numbers prefixed per line so
// the model can reason about position even though edits are applied as pure
// text matches.
func (e *Extractor) Format(s Snippet) string {
	var header string
	if s.FullFile {
		header = fmt.Sprintf("=== %s (FULL FILE) ===\n", s.FilePath)
	} else {
		header = fmt.Sprintf("=== %s (Lines %d-%d of %d) ===\n",
			s.FilePath, s.LineStart, s.LineEnd, s.TotalLines)
	}

	lines := strings.Split(strings.TrimSuffix(s.Content, "\n"), "\n")
	var sb strings.Builder
	sb.WriteString(header)
	for i, line := range lines {
		sb.WriteString(fmt.Sprintf("%4d | %s\n", s.LineStart+i, line))
	}
	sb.WriteString("\n")
	return sb.String()
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
