package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Backend != BackendGist {
		t.Errorf("expected backend gist, got %s", cfg.Store.Backend)
	}
	if cfg.Store.CacheTTL != 10*time.Second {
		t.Errorf("expected cache ttl 10s, got %s", cfg.Store.CacheTTL)
	}
	if cfg.Gist.Filename != DataFileName {
		t.Errorf("expected filename %s, got %s", DataFileName, cfg.Gist.Filename)
	}
	if !strings.HasSuffix(cfg.SQLite.Path, DBFileName) {
		t.Errorf("unexpected sqlite path %s", cfg.SQLite.Path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", ConfigFileName)

	cfg := DefaultConfig()
	cfg.Store.Backend = BackendFile
	cfg.Store.CacheTTL = 30 * time.Second
	cfg.Gist.ID = "abc123"
	cfg.PoleData = []string{"Alice", "Bruno"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("sauvegarde impossible: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("fichier non créé: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("chargement impossible: %v", err)
	}

	if loaded.Store.Backend != BackendFile {
		t.Errorf("backend mismatch: %s", loaded.Store.Backend)
	}
	if loaded.Store.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl mismatch: %s", loaded.Store.CacheTTL)
	}
	if loaded.Gist.ID != "abc123" {
		t.Errorf("gist id mismatch: %s", loaded.Gist.ID)
	}
	if len(loaded.PoleData) != 2 {
		t.Errorf("pole data mismatch: %v", loaded.PoleData)
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != BackendGist {
		t.Errorf("expected defaults, got backend %s", cfg.Store.Backend)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := "store:\n  backend: sqlite\n  cache_ttl: 2s\nsqlite:\n  path: ~/data/filiere.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("chargement impossible: %v", err)
	}

	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("backend = %s", cfg.Store.Backend)
	}
	if cfg.Store.CacheTTL != 2*time.Second {
		t.Errorf("cache ttl = %s", cfg.Store.CacheTTL)
	}
	if cfg.Store.Timeout != 15*time.Second {
		t.Errorf("timeout default lost: %s", cfg.Store.Timeout)
	}
	if strings.HasPrefix(cfg.SQLite.Path, "~") {
		t.Errorf("home not expanded: %s", cfg.SQLite.Path)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("store: [\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		EnvGistID:      "env-id",
		EnvGistFile:    "autre.json",
		EnvGitHubToken: "gh-token",
		EnvBackend:     "file",
		EnvServerPort:  "9000",
	}))

	if cfg.Gist.ID != "env-id" || cfg.Gist.Filename != "autre.json" {
		t.Errorf("gist not overridden: %+v", cfg.Gist)
	}
	if cfg.Gist.Token != "gh-token" {
		t.Errorf("expected GITHUB_TOKEN fallback, got %q", cfg.Gist.Token)
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("backend = %s", cfg.Store.Backend)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestApplyEnv_GistTokenWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		EnvGistToken:   "gist-token",
		EnvGitHubToken: "gh-token",
	}))

	if cfg.Gist.Token != "gist-token" {
		t.Errorf("token = %q", cfg.Gist.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(*Config)
		wantErr bool
	}{
		{"gist without id", func(c *Config) {}, true},
		{"gist without token", func(c *Config) { c.Gist.ID = "x" }, true},
		{"gist complete", func(c *Config) { c.Gist.ID = "x"; c.Gist.Token = "t" }, false},
		{"file", func(c *Config) { c.Store.Backend = BackendFile }, false},
		{"sqlite without path", func(c *Config) { c.Store.Backend = BackendSQLite; c.SQLite.Path = "" }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, true},
		{"negative ttl", func(c *Config) { c.Store.Backend = BackendFile; c.Store.CacheTTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gist.Token = "secret"

	out := cfg.Redacted()

	if out.Gist.Token != "***" {
		t.Errorf("token not redacted: %q", out.Gist.Token)
	}
	if cfg.Gist.Token != "secret" {
		t.Error("original modified")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("ExpandHome = %s", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Errorf("ExpandHome = %s", got)
	}
}
