package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the per-user directory
	GlobalDirName = ".filiere"
	// ConfigFileName is the config file inside the global directory
	ConfigFileName = "config.yaml"
	// DataFileName is the local JSON document name, shared with the gist file
	DataFileName = "filieres_data.json"
	// DBFileName is the local database name
	DBFileName = "filiere.db"
)

// GlobalDir returns the per-user directory (~/.filiere)
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return GlobalDirName
	}
	return filepath.Join(home, GlobalDirName)
}

// DefaultConfigPath returns the config file path (~/.filiere/config.yaml)
func DefaultConfigPath() string {
	return filepath.Join(GlobalDir(), ConfigFileName)
}

// DefaultDataPath returns the local JSON document path (~/.filiere/filieres_data.json)
func DefaultDataPath() string {
	return filepath.Join(GlobalDir(), DataFileName)
}

// DefaultDBPath returns the local database path (~/.filiere/filiere.db)
func DefaultDBPath() string {
	return filepath.Join(GlobalDir(), DBFileName)
}

// ExpandHome replaces a leading ~/ with the home directory
func ExpandHome(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
