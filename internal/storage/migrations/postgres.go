package migrations

import (
	"context"
	"fmt"

	"trade-journal/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order and
// returns the applied file names. Migrations are expected to be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	files, err := readMigrations(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := pool.Exec(ctx, f.SQL); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", f.Name, err)
		}
		applied = append(applied, f.Name)
	}

	return applied, nil
}
