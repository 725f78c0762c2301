package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
)

const memoryPath = ":memory:"

// NewDB opens the results database at path, creating its directory.
// ":memory:" opens a throwaway database.
func NewDB(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	// Extensions such as regexp helpers are cached next to the results
	// instead of ~/.duckdb.
	if path != memoryPath {
		if _, err := db.Exec(fmt.Sprintf("SET extension_directory = '%s'", filepath.Dir(path))); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting extension directory: %w", err)
		}
	}

	zap.S().Named("store").Debugw("results database opened", "path", path)
	return db, nil
}
