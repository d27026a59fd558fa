package workspace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/utils"
)

// ScoredFile pairs a scanned file with its relevance score. Ordering defines
// candidate priority for planning.
type ScoredFile struct {
	FileRecord
	Score float64
}

// primaryExtensions get a flat relevance bonus during scoring.
var primaryExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".tsx": {}, ".jsx": {},
}

// entryPointFragments boost files that usually anchor a codebase.
var entryPointFragments = []string{"config", "main", "index", "app", "core"}

// domainTerms score extra when they appear in both the instruction and a path.
var domainTerms = []string{"test", "component", "module"}

// Selector ranks scanned files against an instruction's keywords and returns
// a size-capped candidate subset. Selection is deterministic for identical
// inputs: ties are broken alphabetically by relative path.
type Selector struct {
	maxFiles int
	logger   *utils.Logger
}

func NewSelector(cfg *config.Config, logger *utils.Logger) *Selector {
	return &Selector{maxFiles: cfg.MaxFilesToAnalyze, logger: logger}
}

// Select scores every file against the instruction, drops files scoring zero
// or below, and returns at most MaxFilesToAnalyze files in descending score
// order.
func (s *Selector) Select(files []FileRecord, instruction string) []ScoredFile {
	s.logger.LogProcessStep(fmt.Sprintf("Selecting relevant files from %d candidates", len(files)))

	keywords := utils.ExtractKeywords(instruction)
	s.logger.Logf("Keywords: %v", keywords)

	var scored []ScoredFile
	for _, f := range files {
		score := scoreFile(f, keywords, instruction)
		if score > 0 {
			scored = append(scored, ScoredFile{FileRecord: f, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Path < scored[j].Path
	})

	if len(scored) > s.maxFiles {
		scored = scored[:s.maxFiles]
	}

	s.logger.LogProcessStep(fmt.Sprintf("Selected %d relevant files", len(scored)))
	for i, f := range scored {
		if i >= 5 {
			break
		}
		s.logger.Logf("  - %s (score: %.2f)", f.Path, f.Score)
	}
	return scored
}

func scoreFile(f FileRecord, keywords []string, instruction string) float64 {
	score := 0.0
	pathLower := strings.ToLower(f.Path)
	nameLower := strings.ToLower(f.Name)

	for _, keyword := range keywords {
		if strings.Contains(nameLower, keyword) {
			score += 10.0
		}
		if strings.Contains(pathLower, keyword) {
			score += 5.0
		}
	}

	if _, ok := primaryExtensions[f.Extension]; ok {
		score += 2.0
	}

	// Penalize very large files.
	if f.Lines > 1000 {
		score *= 0.8
	}

	for _, fragment := range entryPointFragments {
		if strings.Contains(nameLower, fragment) {
			score += 3.0
			break
		}
	}

	instructionLower := strings.ToLower(instruction)
	for _, term := range domainTerms {
		if strings.Contains(instructionLower, term) && strings.Contains(pathLower, term) {
			score += 8.0
		}
	}

	return score
}
