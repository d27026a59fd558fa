package workspace

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/utils"
)

// FileRecord describes a single scanned file. Records are immutable; file
// content is re-read by path when needed rather than cached here.
type FileRecord struct {
	Path         string // relative to the scan root
	AbsolutePath string
	Name         string
	Extension    string
	Size         int64
	Lines        int
}

// Scanner walks a project directory and builds a file index, pruning ignored
// directories and unsupported extensions.
type Scanner struct {
	ignoreDirs    map[string]struct{}
	supportedExts map[string]struct{}
	logger        *utils.Logger
}

func NewScanner(cfg *config.Config, logger *utils.Logger) *Scanner {
	s := &Scanner{
		ignoreDirs:    make(map[string]struct{}, len(cfg.IgnoreDirs)),
		supportedExts: make(map[string]struct{}, len(cfg.SupportedExtensions)),
		logger:        logger,
	}
	for _, d := range cfg.IgnoreDirs {
		s.ignoreDirs[d] = struct{}{}
	}
	for _, e := range cfg.SupportedExtensions {
		s.supportedExts[e] = struct{}{}
	}
	return s
}

// Scan walks rootPath and returns metadata for every supported file.
// Unreadable files are skipped with a log note, never fatally. Ignore rules
// from .gitignore and .codeagent/.ignore are honored in addition to the
// configured ignore-dir set.
func (s *Scanner) Scan(rootPath string) ([]FileRecord, error) {
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootPath, err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("path does not exist: %s", rootPath)
	}

	s.logger.LogProcessStep(fmt.Sprintf("Scanning project: %s", rootPath))
	ignoreRules := GetIgnoreRules(root)

	var files []FileRecord
	var totalSize int64
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Logf("Error scanning %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if _, ignored := s.ignoreDirs[d.Name()]; ignored || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if ignoreRules != nil && ignoreRules.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(d.Name())
		if _, ok := s.supportedExts[ext]; !ok {
			return nil
		}
		if ignoreRules != nil && ignoreRules.MatchesPath(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Logf("Error scanning %s: %v", path, err)
			return nil
		}
		lines, err := countLines(path)
		if err != nil {
			s.logger.Logf("Error scanning %s: %v", path, err)
			return nil
		}
		totalSize += info.Size()
		files = append(files, FileRecord{
			Path:         filepath.ToSlash(rel),
			AbsolutePath: path,
			Name:         d.Name(),
			Extension:    ext,
			Size:         info.Size(),
			Lines:        lines,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogProcessStep(fmt.Sprintf("Scanned %d files (%s)", len(files), utils.FormatFileSize(totalSize)))
	return files, nil
}

// countLines counts lines with a full sequential read. Files under a
// supported extension are read in full, however large.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines++
	}
	return lines, scanner.Err()
}

// ReadFileContent reads and returns a file's content.
func ReadFileContent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// ReadFileLines reads a file and returns its lines, preserving order.
func ReadFileLines(path string) ([]string, error) {
	content, err := ReadFileContent(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(content, "\n")
	// A trailing newline yields an empty final element that is not a line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
