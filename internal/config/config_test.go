package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if cfg.Export.OutDir != "" {
		t.Errorf("expected stdout output by default, got %s", cfg.Export.OutDir)
	}
	if cfg.Export.Binary {
		t.Error("expected binary glTF to be false by default")
	}
	if !cfg.Export.IndentJSON {
		t.Error("expected indented JSON by default")
	}

	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("expected addr 127.0.0.1:8000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected read timeout 10s, got %v", cfg.Server.ReadTimeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
logging:
  level: "debug"
  log_file: "bfres.log"

export:
  out_dir: "out"
  binary: true
  indent_json: false

server:
  addr: ":9000"
  data_dir: "/srv/models"
  write_timeout: 1m
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "bfres.log" {
		t.Errorf("expected log file 'bfres.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Export.OutDir != "out" {
		t.Errorf("expected out dir 'out', got %s", cfg.Export.OutDir)
	}
	if !cfg.Export.Binary {
		t.Error("expected binary to be true")
	}
	if cfg.Export.IndentJSON {
		t.Error("expected indent_json to be false")
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.DataDir != "/srv/models" {
		t.Errorf("expected data dir /srv/models, got %s", cfg.Server.DataDir)
	}
	if cfg.Server.WriteTimeout != time.Minute {
		t.Errorf("expected write timeout 1m, got %v", cfg.Server.WriteTimeout)
	}
	// untouched keys keep their defaults
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
server:
  read_timeout: not a duration
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", tmpDir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "bfrestool.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  addr: :1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find bfrestool.yaml in current directory")
	}
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return f
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "addr flag",
			args: []string{"-addr", ":7000"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Server.Addr != ":7000" {
					t.Errorf("expected addr :7000, got %s", cfg.Server.Addr)
				}
			},
		},
		{
			name: "out flag",
			args: []string{"-out", "exports"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.OutDir != "exports" {
					t.Errorf("expected out dir 'exports', got %s", cfg.Export.OutDir)
				}
			},
		},
		{
			name: "no flags",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "info" || cfg.Server.Addr != "127.0.0.1:8000" {
					t.Errorf("expected defaults to survive, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			applyFlags(cfg, parseFlags(t, tt.args...))
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  addr: ":6000"
  data_dir: "models"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(parseFlags(t, "-config", configPath, "-addr", ":6001"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// addr comes from the flag, data_dir from the file
	if cfg.Server.Addr != ":6001" {
		t.Errorf("expected addr :6001 from flag, got %s", cfg.Server.Addr)
	}
	if cfg.Server.DataDir != "models" {
		t.Errorf("expected data dir from file, got %s", cfg.Server.DataDir)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Export.Binary = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !loaded.Export.Binary {
		t.Error("expected saved binary setting to round-trip")
	}
}
