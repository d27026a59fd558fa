package patcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/utils"
	"github.com/alantheprice/codeagent/pkg/worker"
)

// Patcher applies batches of edit operations to files, backing the original
// up first. Edits within one batch are applied sequentially against
// progressively-mutated content: an earlier edit can create or destroy the
// uniqueness of a later match, and that ordering dependency is part of the
// contract.
type Patcher struct {
	backupDir     string
	createBackups bool
	logger        *utils.Logger
}

func NewPatcher(cfg *config.Config, logger *utils.Logger) *Patcher {
	return &Patcher{
		backupDir:     cfg.BackupDir,
		createBackups: cfg.CreateBackups,
		logger:        logger,
	}
}

// Apply applies the edits to the file at path under the uniqueness rule: an
// edit whose match text occurs zero or multiple times in the current content
// is skipped with a warning. The file is written back only when at least one
// edit applied; otherwise it is left untouched and Apply returns false.
func (p *Patcher) Apply(path string, edits []worker.EditOperation) (bool, error) {
	if len(edits) == 0 {
		p.logger.Logf("No edits to apply for %s", path)
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("cannot read file %s: %w", path, err)
	}
	content := string(data)

	if p.createBackups {
		if _, err := p.CreateBackup(path); err != nil {
			return false, fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	appliedCount := 0
	for i, edit := range edits {
		next, applied, reason := applyOne(content, edit)
		if !applied {
			p.logger.LogProcessStep(fmt.Sprintf("Edit %d: skipped (%s)", i+1, reason))
			continue
		}
		content = next
		appliedCount++
		p.logger.Logf("Edit %d: applied", i+1)
	}

	if appliedCount == 0 {
		p.logger.LogProcessStep(fmt.Sprintf("No edits were applied to %s", path))
		return false, nil
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	p.logger.LogProcessStep(fmt.Sprintf("Applied %d/%d edits to %s", appliedCount, len(edits), path))
	return true, nil
}

// applyOne applies a single edit to content, returning the new content, a
// flag, and a skip reason. Content is taken and returned as an explicit value
// so intermediate states are easy to test.
func applyOne(content string, edit worker.EditOperation) (string, bool, string) {
	if edit.Operation != worker.OpReplace {
		return content, false, fmt.Sprintf("unknown operation %q", edit.Operation)
	}
	if edit.Match == "" {
		return content, false, "empty match text"
	}
	switch count := strings.Count(content, edit.Match); count {
	case 0:
		return content, false, "match not found in file"
	case 1:
		return strings.Replace(content, edit.Match, edit.Replacement, 1), true, ""
	default:
		return content, false, fmt.Sprintf("match appears %d times, ambiguous", count)
	}
}

// CreateBackup copies the unmodified file into the backup directory. An
// existing backup is never overwritten; collisions get an incrementing
// numeric suffix. Backups are never auto-pruned.
func (p *Patcher) CreateBackup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.backupDir, 0755); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	backupPath := filepath.Join(p.backupDir, base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = filepath.Join(p.backupDir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", err
	}
	p.logger.Logf("Created backup of %s at %s", path, backupPath)
	return backupPath, nil
}

// LatestBackup returns the path of the most recent backup for the given file,
// or an empty string when none exists.
func (p *Patcher) LatestBackup(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	latest := ""
	for counter := 0; ; counter++ {
		candidate := filepath.Join(p.backupDir, base)
		if counter > 0 {
			candidate = filepath.Join(p.backupDir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		}
		if _, err := os.Stat(candidate); err != nil {
			return latest
		}
		latest = candidate
	}
}

// Preview renders a human-readable dry run of the edits without mutating
// anything.
func (p *Patcher) Preview(path string, edits []worker.EditOperation) string {
	if _, err := os.ReadFile(path); err != nil {
		return fmt.Sprintf("Error: cannot read file %s", path)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Preview for %s ===\n\n", path))
	for i, edit := range edits {
		sb.WriteString(fmt.Sprintf("--- Edit %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Operation: %s\n", edit.Operation))
		sb.WriteString(fmt.Sprintf("Match:\n%s\n", edit.Match))
		sb.WriteString(fmt.Sprintf("Replacement:\n%s\n\n", edit.Replacement))
	}
	return sb.String()
}
