package db

import (
	"context"
	"fmt"
	"os"
)

// MigrationResult contains migration statistics
type MigrationResult struct {
	DocumentsCopied int
	Errors          []string
}

// MigrateSQLiteToDuckDB copies every stored document from a SQLite file into
// a new DuckDB file. An existing DuckDB file is kept as <path>.backup.
func MigrateSQLiteToDuckDB(ctx context.Context, sqlitePath, duckdbPath string) (*MigrationResult, error) {
	result := &MigrationResult{}

	sqliteDB, err := Open(sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("ouverture SQLite impossible: %w", err)
	}
	defer sqliteDB.Close()

	// Sauvegarde du fichier DuckDB existant
	if _, err := os.Stat(duckdbPath); err == nil {
		if err := os.Rename(duckdbPath, duckdbPath+".backup"); err != nil {
			return nil, fmt.Errorf("sauvegarde DuckDB impossible: %w", err)
		}
	}

	duckDB, err := OpenDuckDB(duckdbPath)
	if err != nil {
		return nil, fmt.Errorf("ouverture DuckDB impossible: %w", err)
	}
	defer duckDB.Close()

	if err := CopyDocuments(ctx, sqliteDB, duckDB, result); err != nil {
		return nil, err
	}
	return result, nil
}

// CopyDocuments copies every document of src into dst. Per-document failures
// are recorded in result and do not stop the copy.
func CopyDocuments(ctx context.Context, src, dst Database, result *MigrationResult) error {
	infos, err := src.ListDocuments(ctx)
	if err != nil {
		return err
	}

	for _, info := range infos {
		content, err := src.ReadDocument(ctx, info.Name)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", info.Name, err))
			continue
		}
		if err := dst.WriteDocument(ctx, info.Name, content); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", info.Name, err))
			continue
		}
		result.DocumentsCopied++
	}
	return nil
}
