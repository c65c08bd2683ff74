package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slidefill.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Substitution.GroupDepth != 1 {
		t.Errorf("GroupDepth = %d, want 1", cfg.Substitution.GroupDepth)
	}
	if cfg.Limits.MaxPairs != 0 || cfg.Limits.MaxSlides != 0 {
		t.Errorf("limits should default to unlimited, got %+v", cfg.Limits)
	}
}

func TestExampleMatchesDefault(t *testing.T) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(Example), cfg); err != nil {
		t.Fatalf("Example does not parse: %v", err)
	}
	cfg.normalize()
	want := Default()
	want.normalize()
	if cfg.Log != want.Log || cfg.Substitution != want.Substitution || cfg.Limits != want.Limits || cfg.History != want.History {
		t.Errorf("Example = %+v, want %+v", cfg, want)
	}
	if strings.Join(cfg.Mapping.StartTokens, " ") != "start word" || strings.Join(cfg.Mapping.EndTokens, " ") != "end word" {
		t.Errorf("Example tokens = %v / %v", cfg.Mapping.StartTokens, cfg.Mapping.EndTokens)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	path := writeConfig(t, `
log:
  level: DEBUG
  format: json
mapping:
  sheet: " Pairs "
  encoding: euc-kr
  start_tokens: [placeholder]
  end_tokens: [" value ", ""]
substitution:
  group_depth: 0
limits:
  max_pairs: 10
  max_slides: 5
history:
  path: /var/lib/slidefill/jobs.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Mapping.Sheet != "Pairs" || cfg.Mapping.Encoding != "euc-kr" {
		t.Errorf("Mapping = %+v", cfg.Mapping)
	}
	if len(cfg.Mapping.EndTokens) != 1 || cfg.Mapping.EndTokens[0] != "value" {
		t.Errorf("EndTokens = %q", cfg.Mapping.EndTokens)
	}
	if cfg.Substitution.GroupDepth != 0 {
		t.Errorf("GroupDepth = %d, want 0", cfg.Substitution.GroupDepth)
	}
	if cfg.Limits.MaxPairs != 10 || cfg.Limits.MaxSlides != 5 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.History.Path != "/var/lib/slidefill/jobs.db" {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
limits:
  max_pairs: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Substitution.GroupDepth != 1 {
		t.Errorf("GroupDepth = %d, want default 1", cfg.Substitution.GroupDepth)
	}
	if len(cfg.Mapping.StartTokens) != 2 {
		t.Errorf("StartTokens = %v, want defaults", cfg.Mapping.StartTokens)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Mapping.Sheet != "" {
		t.Errorf("unexpected sheet %q", cfg.Mapping.Sheet)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "log: [unclosed", "parse"},
		{"bad level", "log:\n  level: loud", "log.level"},
		{"bad format", "log:\n  format: xml", "log.format"},
		{"negative depth", "substitution:\n  group_depth: -1", "group_depth"},
		{"negative limit", "limits:\n  max_slides: -2", "max_slides"},
		{"empty tokens", "mapping:\n  start_tokens: []", "start_tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:  "warn",
		EnvLogFormat: "json",
		EnvHistory:   "",
	}
	cfg := Default()
	cfg.History.Path = "from-file.db"
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.History.Path != "" {
		t.Errorf("an empty %s should disable history, got %q", EnvHistory, cfg.History.Path)
	}

	cfg = Default()
	cfg.ApplyEnv(noEnv)
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q without env", cfg.Log.Level)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvHistory, "env.db")
	cfg, err := Load(writeConfig(t, "log:\n  level: debug"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("env should override file, got %q", cfg.Log.Level)
	}
	if cfg.History.Path != "env.db" {
		t.Errorf("History.Path = %q", cfg.History.Path)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("expected JSON record, got %q", buf.String())
	}

	cfg.Log.Level = "nope"
	if _, err := cfg.NewLogger(&buf); err == nil {
		t.Error("expected error for bad level")
	}
}
