package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	projectDir := t.TempDir()
	quillDir := filepath.Join(projectDir, QuillDir)
	if err := os.MkdirAll(quillDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return &Config{ProjectDir: projectDir, QuillProjectDir: quillDir, Project: defaultProjectConfig()}
}

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	c := newTestConfig(t)
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Provider() != defaultProvider {
		t.Fatalf("expected default provider %q, got %q", defaultProvider, c.Provider())
	}
	if c.MaxIterations() != defaultMaxIterations {
		t.Fatalf("expected default bound %d, got %d", defaultMaxIterations, c.MaxIterations())
	}
	if c.StepTimeout() != defaultTimeoutSecs*time.Second {
		t.Fatalf("unexpected timeout %s", c.StepTimeout())
	}
	if !c.ChecksEnabled() {
		t.Fatalf("checks should default to enabled")
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	c := newTestConfig(t)
	configYAML := strings.TrimSpace(`
version: 1
provider: OpenRouter
model: openai/gpt-4o
pipeline:
  max_iterations: 3
  timeout_seconds: 20
  on_exhausted: error
  checks: false
`)
	if err := os.WriteFile(c.ProjectConfigPath(), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Provider() != "openrouter" {
		t.Fatalf("provider not normalized: %q", c.Provider())
	}
	if c.Model() != "openai/gpt-4o" {
		t.Fatalf("model: %q", c.Model())
	}
	if c.MaxIterations() != 3 || c.StepTimeout() != 20*time.Second {
		t.Fatalf("pipeline settings: %+v", c.Project.Pipeline)
	}
	if c.OnExhausted() != "error" {
		t.Fatalf("on_exhausted: %q", c.OnExhausted())
	}
	if c.ChecksEnabled() {
		t.Fatalf("checks should be disabled")
	}
}

func TestLoadProjectConfigPartialKeepsDefaults(t *testing.T) {
	c := newTestConfig(t)
	configYAML := strings.TrimSpace(`
provider: script
pipeline:
  max_iterations: 2
`)
	if err := os.WriteFile(c.ProjectConfigPath(), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.MaxIterations() != 2 {
		t.Fatalf("explicit bound lost: %d", c.MaxIterations())
	}
	if !c.ChecksEnabled() {
		t.Fatalf("omitted checks key must keep the enabled default")
	}
	if c.OnExhausted() != defaultOnExhausted {
		t.Fatalf("omitted on_exhausted: %q", c.OnExhausted())
	}
	if c.StepTimeout() != defaultTimeoutSecs*time.Second {
		t.Fatalf("omitted timeout: %s", c.StepTimeout())
	}
}

func TestLoadProjectConfigExplicitChecksFalse(t *testing.T) {
	c := newTestConfig(t)
	if err := os.WriteFile(c.ProjectConfigPath(), []byte("pipeline:\n  checks: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.ChecksEnabled() {
		t.Fatalf("explicit checks: false was not honored")
	}
}

func TestLoadProjectConfigRejectsBadValues(t *testing.T) {
	cases := []string{
		"provider: mainframe",
		"pipeline:\n  max_iterations: -2",
		"pipeline:\n  on_exhausted: truncate",
	}
	for _, body := range cases {
		c := newTestConfig(t)
		if err := os.WriteFile(c.ProjectConfigPath(), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := c.loadProjectConfig(); err == nil {
			t.Errorf("config %q: expected validation error", body)
		}
	}
}

func TestInitQuillDirCreatesLayout(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitQuillDir(projectDir); err != nil {
		t.Fatalf("InitQuillDir: %v", err)
	}
	for _, sub := range []string{"logs", "runs"} {
		if _, err := os.Stat(filepath.Join(projectDir, QuillDir, sub)); err != nil {
			t.Errorf("missing %s: %v", sub, err)
		}
	}
	if _, err := os.Stat(filepath.Join(projectDir, QuillDir, "config.yaml")); err != nil {
		t.Errorf("missing config.yaml: %v", err)
	}
	// A second init must not clobber an edited config.
	path := filepath.Join(projectDir, QuillDir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nprovider: script\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitQuillDir(projectDir); err != nil {
		t.Fatalf("second InitQuillDir: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "script") {
		t.Fatalf("config was overwritten: %s", data)
	}
}

func TestSetProviderPersists(t *testing.T) {
	c := newTestConfig(t)
	if err := c.SetProvider("script"); err != nil {
		t.Fatalf("SetProvider: %v", err)
	}
	reloaded := &Config{
		ProjectDir:      c.ProjectDir,
		QuillProjectDir: c.QuillProjectDir,
		Project:         defaultProjectConfig(),
	}
	if err := reloaded.loadProjectConfig(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Provider() != "script" {
		t.Fatalf("provider not persisted: %q", reloaded.Provider())
	}
}

func TestAPIKeyResolvesFromEnv(t *testing.T) {
	c := newTestConfig(t)
	c.Project.Provider = "gemini"
	c.Project.APIKeys.Gemini = "QUILL_TEST_GEMINI_KEY"
	t.Setenv("QUILL_TEST_GEMINI_KEY", "secret")
	if got := c.APIKey(); got != "secret" {
		t.Fatalf("APIKey() = %q", got)
	}
	c.Project.Provider = "script"
	if got := c.APIKey(); got != "" {
		t.Fatalf("script provider needs no key, got %q", got)
	}
}
