package repo

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"

	dom "github.com/ray-SDJ/comparison/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date. Already-applied migrations are
// skipped, so calling it on every start is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("%w: goose provider: %v", dom.ErrStorageUnavailable, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("%w: goose up: %v", dom.ErrStorageUnavailable, err)
	}
	for _, res := range results {
		log.Printf("migration applied: %s (%s)", res.Source.Path, res.Duration)
	}
	return nil
}
