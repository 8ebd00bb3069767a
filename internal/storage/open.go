package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns   int
	MaxIdleConns   int
	ConnectTimeout time.Duration
}

// Open connects to the row source named by driver and dsn. An empty driver
// is inferred from the dsn. The pool is pinged before returning.
func Open(ctx context.Context, driver, dsn string, opts Options) (*SQLRepository, error) {
	if driver == "" {
		driver = InferDriver(dsn)
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", driver, err)
	}

	driverName, source := d.name, dsn
	memory := false
	if d.name == DriverSQLite {
		source = strings.TrimPrefix(dsn, "sqlite://")
		memory = source == ":memory:" || strings.Contains(source, "mode=memory")
	}

	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}

	return &SQLRepository{db: db, d: d}, nil
}
