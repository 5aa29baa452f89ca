// Package migrations embebe los scripts SQL del esquema.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed postgres/*.up.sql
var upFS embed.FS

// Apply corre todas las migraciones .up.sql en orden lexicográfico.
// Los scripts son idempotentes (IF NOT EXISTS), así que re-aplicar es
// seguro y no hace falta tabla de versiones para este esquema chico.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := fs.ReadDir(upFS, "postgres")
	if err != nil {
		return fmt.Errorf("migrations: reading embedded scripts: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := upFS.ReadFile("postgres/" + name)
		if err != nil {
			return fmt.Errorf("migrations: reading %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migrations: applying %s: %w", name, err)
		}
	}
	return nil
}
