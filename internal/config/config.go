// internal/config/config.go
//
// This package handles configuration and the .quill directory structure.
// Every project that uses Quill gets a .quill/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// QuillDir is the name of the directory we create in each project.
	QuillDir = ".quill"

	defaultProvider      = "gemini"
	defaultMaxIterations = 5
	defaultTimeoutSecs   = 60
	defaultOnExhausted   = "return-last"
)

const defaultProjectConfigYAML = `# quill project configuration
version: 1

# Text-generation provider: gemini, openrouter, or script (offline).
provider: gemini

# Model override. Leave empty for the provider default.
model: ""

# Environment variable names holding the API keys.
api_keys:
  gemini: GEMINI_API_KEY
  openrouter: OPENROUTER_API_KEY

pipeline:
  # Upper bound on critique/revise rounds per run.
  max_iterations: 5
  # Per-call timeout in seconds for provider requests.
  timeout_seconds: 60
  # What to do when the bound is hit without a done verdict:
  # return-last (keep the best-so-far artifact) or error.
  on_exhausted: return-last
  # Run the post-loop grammar and tone checks.
  checks: true
`

// APIKeys names the environment variables that hold provider credentials.
type APIKeys struct {
	Gemini     string `yaml:"gemini"`
	OpenRouter string `yaml:"openrouter"`
}

// PipelineConfig captures refinement loop preferences. Checks is a pointer
// so an omitted key is distinguishable from an explicit false and keeps the
// enabled default.
type PipelineConfig struct {
	MaxIterations  int    `yaml:"max_iterations"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	OnExhausted    string `yaml:"on_exhausted"`
	Checks         *bool  `yaml:"checks"`
}

// ProjectConfig models .quill/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Provider string         `yaml:"provider"`
	Model    string         `yaml:"model,omitempty"`
	APIKeys  APIKeys        `yaml:"api_keys"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// Config holds the runtime configuration for Quill.
type Config struct {
	// ProjectDir is the directory where the user ran `quill` from.
	ProjectDir string

	// QuillProjectDir is ProjectDir/.quill.
	QuillProjectDir string

	Project ProjectConfig
}

// InitQuillDir creates the .quill directory structure in the given project
// directory.
//
// Structure created:
// .quill/
// ├── logs/  <- engine log
// └── runs/  <- per-run logbooks
func InitQuillDir(projectDir string) error {
	quillDir := filepath.Join(projectDir, QuillDir)
	dirs := []string{
		filepath.Join(quillDir, "logs"),
		filepath.Join(quillDir, "runs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(quillDir, "config.yaml"))
}

// NewConfig creates a Config populated from .quill/config.yaml, applying
// defaults where the file is silent. A `.env` in the project root is loaded
// first so api key variables resolve without shell exports.
func NewConfig(projectDir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(projectDir, ".env"))

	cfg := &Config{
		ProjectDir:      projectDir,
		QuillProjectDir: filepath.Join(projectDir, QuillDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.QuillProjectDir, "logs")
}

// RunsDir returns the path holding per-run logbooks.
func (c *Config) RunsDir() string {
	return filepath.Join(c.QuillProjectDir, "runs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.QuillProjectDir, "config.yaml")
}

// Provider returns the configured provider identifier.
func (c *Config) Provider() string {
	return c.Project.Provider
}

// Model returns the configured model override (may be empty).
func (c *Config) Model() string {
	return c.Project.Model
}

// MaxIterations returns the loop bound.
func (c *Config) MaxIterations() int {
	return c.Project.Pipeline.MaxIterations
}

// StepTimeout returns the per-call timeout.
func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.Project.Pipeline.TimeoutSeconds) * time.Second
}

// OnExhausted returns the bound-exhaustion policy string.
func (c *Config) OnExhausted() string {
	return c.Project.Pipeline.OnExhausted
}

// ChecksEnabled reports whether the post-loop quality checks run.
func (c *Config) ChecksEnabled() bool {
	if c.Project.Pipeline.Checks == nil {
		return true
	}
	return *c.Project.Pipeline.Checks
}

// APIKey resolves the API key for the configured provider from the
// environment variable named in the config.
func (c *Config) APIKey() string {
	switch c.Project.Provider {
	case "gemini":
		return os.Getenv(c.Project.APIKeys.Gemini)
	case "openrouter":
		return os.Getenv(c.Project.APIKeys.OpenRouter)
	default:
		return ""
	}
}

// SetProvider updates the provider and persists the change back to
// .quill/config.yaml.
func (c *Config) SetProvider(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("config: provider is required")
	}
	c.Project.Provider = name
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:  1,
		Provider: defaultProvider,
		APIKeys: APIKeys{
			Gemini:     "GEMINI_API_KEY",
			OpenRouter: "OPENROUTER_API_KEY",
		},
		Pipeline: PipelineConfig{
			MaxIterations:  defaultMaxIterations,
			TimeoutSeconds: defaultTimeoutSecs,
			OnExhausted:    defaultOnExhausted,
			Checks:         boolPtr(true),
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Provider == "" {
		pc.Provider = defaultProvider
	}
	if pc.APIKeys.Gemini == "" {
		pc.APIKeys.Gemini = "GEMINI_API_KEY"
	}
	if pc.APIKeys.OpenRouter == "" {
		pc.APIKeys.OpenRouter = "OPENROUTER_API_KEY"
	}
	if pc.Pipeline.MaxIterations == 0 {
		pc.Pipeline.MaxIterations = defaultMaxIterations
	}
	if pc.Pipeline.TimeoutSeconds == 0 {
		pc.Pipeline.TimeoutSeconds = defaultTimeoutSecs
	}
	if pc.Pipeline.OnExhausted == "" {
		pc.Pipeline.OnExhausted = defaultOnExhausted
	}
	if pc.Pipeline.Checks == nil {
		pc.Pipeline.Checks = boolPtr(true)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func (pc *ProjectConfig) normalize() {
	pc.Provider = strings.ToLower(strings.TrimSpace(pc.Provider))
	pc.Model = strings.TrimSpace(pc.Model)
	pc.Pipeline.OnExhausted = strings.ToLower(strings.TrimSpace(pc.Pipeline.OnExhausted))
	pc.APIKeys.Gemini = strings.TrimSpace(pc.APIKeys.Gemini)
	pc.APIKeys.OpenRouter = strings.TrimSpace(pc.APIKeys.OpenRouter)
}

func (pc ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Provider {
	case "gemini", "openrouter", "script":
	default:
		return fmt.Errorf("provider must be 'gemini', 'openrouter', or 'script'")
	}
	if pc.Pipeline.MaxIterations < 1 {
		return fmt.Errorf("pipeline.max_iterations must be >= 1")
	}
	if pc.Pipeline.TimeoutSeconds < 1 {
		return fmt.Errorf("pipeline.timeout_seconds must be >= 1")
	}
	switch pc.Pipeline.OnExhausted {
	case "return-last", "error":
	default:
		return fmt.Errorf("pipeline.on_exhausted must be 'return-last' or 'error'")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.QuillProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure quill dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
