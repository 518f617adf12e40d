// Package persistence selects a result-store backend from environment
// variables. Components receive the opened domain.ResultStore by reference
// and must not open handles of their own.
package persistence

import (
	"context"
	"fmt"
	"os"

	"hicdata/internal/infra/persistence/memory"
	"hicdata/internal/infra/persistence/postgres"
	"hicdata/internal/infra/persistence/sqlite"
	"hicdata/pkg/domain"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open constructs a result store using environment variables.
//
//	HICDATA_STORE_DRIVER: sqlite|postgres|memory (default sqlite)
//	HICDATA_SQLITE_PATH: database file when driver=sqlite (default hicdata.db)
//	HICDATA_POSTGRES_DSN: connection string when driver=postgres
func Open(ctx context.Context, reg *domain.Registry) (domain.ResultStore, error) {
	driver := os.Getenv("HICDATA_STORE_DRIVER")
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverSQLite:
		path := os.Getenv("HICDATA_SQLITE_PATH")
		if path == "" {
			path = "hicdata.db"
		}
		return sqlite.Open(path, reg)
	case DriverPostgres:
		return postgres.Open(ctx, os.Getenv("HICDATA_POSTGRES_DSN"), reg)
	case DriverMemory:
		return memory.NewStore(reg), nil
	default:
		return nil, fmt.Errorf("unknown store driver %s", driver)
	}
}
