package workspace

import (
	"bufio"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/alantheprice/codeagent/pkg/config"
)

// GetIgnoreRules reads ignore files (.gitignore, .codeagent/.ignore) and
// returns a compiled gitignore matcher, or nil when no rules exist.
func GetIgnoreRules(rootDir string) *ignore.GitIgnore {
	var allRules []string

	gitignorePath := filepath.Join(rootDir, ".gitignore")
	if rules, err := readIgnoreFile(gitignorePath); err == nil {
		allRules = append(allRules, rules...)
	}

	agentIgnorePath := filepath.Join(rootDir, config.DotDir, ".ignore")
	if rules, err := readIgnoreFile(agentIgnorePath); err == nil {
		allRules = append(allRules, rules...)
	}

	if len(allRules) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(allRules...)
}

// readIgnoreFile reads a single ignore file and returns its lines.
func readIgnoreFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
