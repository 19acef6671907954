package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend selects where the document is stored
type Backend string

const (
	BackendGist   Backend = "gist"   // GitHub Gist (défaut)
	BackendFile   Backend = "file"   // fichier JSON local
	BackendSQLite Backend = "sqlite" // table locale SQLite/DuckDB
)

// Environment variables read by ApplyEnv
const (
	EnvGistID      = "FILIERE_GIST_ID"
	EnvGistFile    = "FILIERE_GIST_FILE"
	EnvGistToken   = "FILIERE_GIST_TOKEN"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvBackend     = "FILIERE_BACKEND"
	EnvDataFile    = "FILIERE_DATA_FILE"
	EnvLogLevel    = "FILIERE_LOG_LEVEL"
	EnvServerPort  = "FILIERE_PORT"
)

// Config represents ~/.filiere/config.yaml
type Config struct {
	Version  string       `yaml:"version"`
	Store    StoreConfig  `yaml:"store"`
	Gist     GistConfig   `yaml:"gist"`
	File     FileConfig   `yaml:"file"`
	SQLite   SQLiteConfig `yaml:"sqlite"`
	Server   ServerConfig `yaml:"server"`
	Log      LogConfig    `yaml:"log"`
	PoleData []string     `yaml:"pole_data"` // responsables pôle data autorisés
}

// StoreConfig holds the store client settings
type StoreConfig struct {
	Backend  Backend       `yaml:"backend"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// GistConfig locates the remote document
type GistConfig struct {
	ID       string `yaml:"id"`
	Filename string `yaml:"filename"`
	// Token is normally supplied through the environment
	Token  string `yaml:"token,omitempty"`
	APIURL string `yaml:"api_url"`
}

// FileConfig locates the local JSON document
type FileConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// SQLiteConfig locates the local database document
type SQLiteConfig struct {
	Path     string `yaml:"path"`
	Document string `yaml:"document"`
	// Engine is sqlite or duckdb; empty defers to FILIERE_DB_TYPE
	Engine string `yaml:"engine,omitempty"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns a default config
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Store: StoreConfig{
			Backend:  BackendGist,
			CacheTTL: 10 * time.Second,
			Timeout:  15 * time.Second,
		},
		Gist: GistConfig{
			Filename: DataFileName,
			APIURL:   "https://api.github.com",
		},
		File: FileConfig{
			Path: DefaultDataPath(),
		},
		SQLite: SQLiteConfig{
			Path:     DefaultDBPath(),
			Document: DataFileName,
		},
		Server: ServerConfig{
			Port: 8501,
		},
		Log: LogConfig{
			Level: "info",
		},
		PoleData: []string{},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("lecture du fichier de configuration impossible: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("analyse du fichier de configuration impossible: %w", err)
	}

	cfg.File.Path = ExpandHome(cfg.File.Path)
	cfg.SQLite.Path = ExpandHome(cfg.SQLite.Path)
	return cfg, nil
}

// Save writes cfg to path
func Save(path string, cfg *Config) error {
	// Création du répertoire
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("création du répertoire impossible: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("sérialisation de la configuration impossible: %w", err)
	}

	// 0600: le fichier peut contenir un jeton
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("écriture du fichier de configuration impossible: %w", err)
	}

	return nil
}

// Exists checks if a config file exists at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ApplyEnv overrides cfg with the FILIERE_* environment. The gist token
// falls back to GITHUB_TOKEN.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvGistID); v != "" {
		c.Gist.ID = v
	}
	if v := getenv(EnvGistFile); v != "" {
		c.Gist.Filename = v
	}
	if v := getenv(EnvGistToken); v != "" {
		c.Gist.Token = v
	} else if c.Gist.Token == "" {
		c.Gist.Token = getenv(EnvGitHubToken)
	}
	if v := getenv(EnvBackend); v != "" {
		c.Store.Backend = Backend(v)
	}
	if v := getenv(EnvDataFile); v != "" {
		c.File.Path = ExpandHome(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings the selected backend needs
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendGist:
		if c.Gist.ID == "" {
			return fmt.Errorf("identifiant de gist manquant (gist.id ou %s)", EnvGistID)
		}
		if c.Gist.Token == "" {
			return fmt.Errorf("jeton GitHub manquant (%s ou %s)", EnvGistToken, EnvGitHubToken)
		}
	case BackendFile:
		if c.File.Path == "" {
			return errors.New("chemin du fichier manquant (file.path)")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("chemin de la base manquant (sqlite.path)")
		}
	default:
		return fmt.Errorf("backend inconnu %q (gist, file, sqlite)", c.Store.Backend)
	}

	if c.Store.CacheTTL < 0 {
		return errors.New("store.cache_ttl doit être positif ou nul")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port invalide %d", c.Server.Port)
	}
	return nil
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	out := *c
	out.PoleData = append([]string{}, c.PoleData...)
	if out.Gist.Token != "" {
		out.Gist.Token = "***"
	}
	return &out
}
