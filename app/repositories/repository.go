package repositories

import (
	"fmt"

	"blogquery/app/config"
	"blogquery/app/logger"

	"github.com/dgraph-io/badger/v4"
)

// Open opens the store selected by cfg.StoreDriver. The caller owns the
// returned store and must Close it.
func Open(cfg *config.Config, log *logger.Logger) (PostStore, error) {
	switch cfg.StoreDriver {
	case config.DriverBadger, "":
		return OpenBadger(cfg.BadgerPath, log)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// BadgerOptions returns the options used for the badger store at path.
// An empty path opens an in-memory database.
func BadgerOptions(path string, log *logger.Logger) badger.Options {
	opts := badger.DefaultOptions(path).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if log != nil {
		opts = opts.WithLogger(log).WithLoggingLevel(badger.WARNING)
	} else {
		opts = opts.WithLogger(nil)
	}
	return opts
}

// OpenBadger opens (or creates) a badger database at path and wraps it in a
// repository that closes it on Close.
func OpenBadger(path string, log *logger.Logger) (*BadgerPostRepository, error) {
	db, err := badger.Open(BadgerOptions(path, log))
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	repo := NewBadgerPostRepository(db)
	repo.ownsDB = true
	return repo, nil
}
