package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"olist-dashboard/internal/config"
)

const pingTimeout = 3 * time.Second

// Connect opens a Postgres handle through lib/pq and checks it answers.
func Connect(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Open returns the Loader selected by cfg.Source. The close func releases the
// database handle when there is one; it is never nil.
func Open(ctx context.Context, cfg config.DataConfig, logger *slog.Logger) (Loader, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source {
	case "postgres":
		db, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using postgres record source")
		return NewSQLSource(db), db.Close, nil

	case "csv", "":
		source := NewCSVSource(cfg.Dir, FilesFromConfig(cfg))
		if !cfg.CacheEnabled {
			logger.Info("using csv record source", "dir", cfg.Dir)
			return source, noop, nil
		}
		logger.Info("using cached csv record source", "dir", cfg.Dir, "cache_dir", cfg.CacheDir)
		return NewCachedLoader(source, cfg.CacheDir, logger), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}

// FilesFromConfig fills blank file names with the Olist defaults.
func FilesFromConfig(cfg config.DataConfig) Files {
	files := DefaultFiles()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&files.Orders, cfg.OrdersFile)
	set(&files.OrderItems, cfg.OrderItemsFile)
	set(&files.Customers, cfg.CustomersFile)
	set(&files.Products, cfg.ProductsFile)
	set(&files.Translations, cfg.TranslationsFile)
	set(&files.Payments, cfg.PaymentsFile)
	return files
}
