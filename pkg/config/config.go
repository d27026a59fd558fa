package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultOllamaURL is the default address of a local Ollama server.
	DefaultOllamaURL = "http://localhost:11434"

	// DotDir is the workspace directory used for config, logs, backups and run state.
	DotDir = ".codeagent"
)

// Config holds all tunables for the agent. It is loaded from
// .codeagent/config.json in the working directory, falling back to
// ~/.codeagent/config.json, with a handful of environment overrides.
type Config struct {
	OllamaServerURL string `json:"ollama_server_url"`
	PlannerModel    string `json:"planner_model"`
	WorkerModel     string `json:"worker_model"`

	MaxContextTokens    int `json:"max_context_tokens"`
	SnippetContextLines int `json:"snippet_context_lines"`
	MaxFilesToAnalyze   int `json:"max_files_to_analyze"`

	IgnoreDirs          []string `json:"ignore_dirs"`
	SupportedExtensions []string `json:"supported_extensions"`

	MaxIterations     int  `json:"max_iterations"`
	AutoApprove       bool `json:"-"` // command-scoped, not saved
	EnableWebSearch   bool `json:"enable_web_search"`
	EnableAutoInstall bool `json:"enable_auto_install"`
	DryRun            bool `json:"-"` // command-scoped, not saved
	SkipPrompt        bool `json:"-"` // command-scoped, not saved

	CreateBackups bool   `json:"create_backups"`
	BackupDir     string `json:"backup_dir"`

	SearchMaxResults int `json:"search_max_results"`

	// Per-call timeouts in seconds. Planning runs over a larger context than
	// single-file edit generation, so it gets the longer timeout.
	PlannerTimeoutSecs int `json:"planner_timeout_secs"`
	WorkerTimeoutSecs  int `json:"worker_timeout_secs"`
	ShellTimeoutSecs   int `json:"shell_timeout_secs"`

	Temperature struct {
		Planner float64 `json:"planner"`
		Worker  float64 `json:"worker"`
	} `json:"temperature"`
}

func getHomeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DotDir, "config.json")
}

func getCurrentConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, DotDir, "config.json")
}

// Load reads the config from disk, applying defaults for any missing values
// and environment overrides last. A missing config file is not an error.
func Load() (*Config, error) {
	// Booleans that default to true are seeded before unmarshalling so that an
	// explicit false in the config file survives.
	cfg := &Config{
		EnableWebSearch:   true,
		EnableAutoInstall: true,
		CreateBackups:     true,
	}
	for _, path := range []string{getCurrentConfigPath(), getHomeConfigPath()} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}
	cfg.setDefaultValues()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config to .codeagent/config.json in the working directory.
func (c *Config) Save() error {
	path := getCurrentConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) setDefaultValues() {
	if c.OllamaServerURL == "" {
		c.OllamaServerURL = DefaultOllamaURL
	}
	if c.PlannerModel == "" {
		c.PlannerModel = "qwen2.5-coder:7b"
	}
	if c.WorkerModel == "" {
		c.WorkerModel = "qwen2.5-coder:7b"
	}
	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = 32000
	}
	if c.SnippetContextLines == 0 {
		c.SnippetContextLines = 60
	}
	if c.MaxFilesToAnalyze == 0 {
		c.MaxFilesToAnalyze = 15
	}
	if len(c.IgnoreDirs) == 0 {
		c.IgnoreDirs = []string{
			"node_modules", "dist", "build", ".git", "venv",
			"__pycache__", ".pytest_cache", "coverage", ".next",
			"target", "out", ".idea", ".vscode", "vendor",
		}
	}
	if len(c.SupportedExtensions) == 0 {
		c.SupportedExtensions = []string{
			".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".go",
			".rs", ".cpp", ".c", ".h", ".hpp", ".cs", ".rb",
			".php", ".html", ".css", ".scss", ".vue", ".svelte",
		}
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 5
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(DotDir, "backups")
	}
	if c.SearchMaxResults == 0 {
		c.SearchMaxResults = 5
	}
	if c.PlannerTimeoutSecs == 0 {
		c.PlannerTimeoutSecs = 300
	}
	if c.WorkerTimeoutSecs == 0 {
		c.WorkerTimeoutSecs = 180
	}
	if c.ShellTimeoutSecs == 0 {
		c.ShellTimeoutSecs = 300
	}
	if c.Temperature.Planner == 0 {
		c.Temperature.Planner = 0.3
	}
	if c.Temperature.Worker == 0 {
		c.Temperature.Worker = 0.2
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.OllamaServerURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("PLANNER_MODEL"); v != "" {
		c.PlannerModel = v
	}
	if v := os.Getenv("WORKER_MODEL"); v != "" {
		c.WorkerModel = v
	}
	if v := os.Getenv("AUTO_APPROVE"); v != "" {
		c.AutoApprove = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ENABLE_WEB_SEARCH"); v != "" {
		c.EnableWebSearch = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ENABLE_AUTO_INSTALL"); v != "" {
		c.EnableAutoInstall = strings.EqualFold(v, "true")
	}
}
