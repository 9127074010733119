package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"blogquery/app/config"
	"blogquery/app/logger"
	"blogquery/app/repositories"
)

// HandleCommand handles store subcommands and returns an exit code.
func HandleCommand(args []string, cfg *config.Config, log *logger.Logger) int {
	if len(args) < 1 {
		printStoreHelp()
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "clean":
		return clean(cfg)
	case "init":
		return initStore(cfg, log)
	case "backup":
		return backup(cfg, log)
	case "restore":
		if len(args) < 2 {
			fmt.Println("Error: backup file path required for restore")
			return 1
		}
		return restore(cfg, log, args[1])
	case "help":
		printStoreHelp()
		return 0
	default:
		fmt.Printf("Unknown store command: %s\n\n", cmd)
		printStoreHelp()
		return 1
	}
}

// printStoreHelp prints help for store subcommands.
func printStoreHelp() {
	helpText := `Usage: blogquery store <command>

Commands:
  init                            Initialize a new empty store
  clean                           Remove the store
  backup                          Create a backup of the store in BACKUP_DIR
  restore <file>                  Restore the store from a backup
  help                            Display this help message

The store is selected by STORE_DRIVER (badger or sqlite).
`
	fmt.Println(helpText)
}

// clean removes the store.
func clean(cfg *config.Config) int {
	if _, err := os.Stat(storePath(cfg)); os.IsNotExist(err) {
		fmt.Println("Store is already clean (does not exist)")
		return 0
	}

	if !confirm("Are you sure you want to clean the store? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := removeStore(cfg); err != nil {
		fmt.Printf("Failed to clean store: %v\n", err)
		return 1
	}
	fmt.Println("Store cleaned successfully")
	return 0
}

// initStore creates a new empty store.
func initStore(cfg *config.Config, log *logger.Logger) int {
	path := storePath(cfg)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("Store already exists. Use 'clean' first if you want to reinitialize.")
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		fmt.Printf("Failed to create store directory: %v\n", err)
		return 1
	}

	store, err := repositories.Open(cfg, log)
	if err != nil {
		fmt.Printf("Failed to initialize store: %v\n", err)
		return 1
	}
	defer store.Close()

	fmt.Printf("Store initialized successfully at %s\n", path)
	return 0
}

// backup writes a timestamped copy of the store to cfg.BackupDir.
func backup(cfg *config.Config, log *logger.Logger) int {
	if _, err := os.Stat(storePath(cfg)); os.IsNotExist(err) {
		fmt.Println("No store exists to backup")
		return 1
	}

	if err := os.MkdirAll(cfg.BackupDir, 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return 1
	}

	backupFile, err := backupStore(cfg, log)
	if err != nil {
		fmt.Printf("Failed to backup store: %v\n", err)
		return 1
	}

	fmt.Printf("Store backed up successfully to %s\n", backupFile)
	return 0
}

func backupStore(cfg *config.Config, log *logger.Logger) (string, error) {
	stamp := time.Now().Unix()

	if cfg.StoreDriver == config.DriverSQLite {
		repo, err := repositories.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return "", err
		}
		defer repo.Close()

		backupFile := filepath.Join(cfg.BackupDir, fmt.Sprintf("backup_%d.db", stamp))
		return backupFile, repo.BackupTo(context.Background(), backupFile)
	}

	repo, err := repositories.OpenBadger(cfg.BadgerPath, log)
	if err != nil {
		return "", err
	}
	defer repo.Close()

	backupFile := filepath.Join(cfg.BackupDir, fmt.Sprintf("backup_%d.badger", stamp))
	f, err := os.Create(backupFile)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := repo.DB().Backup(f, 0); err != nil {
		return "", err
	}
	return backupFile, f.Sync()
}

// restore replaces the store with the contents of backupFile. The backup is
// loaded into a staging store first; the existing store is only removed once
// the staged copy opens and reads back.
func restore(cfg *config.Config, log *logger.Logger, backupFile string) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	path := storePath(cfg)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !confirm("Existing store found. Do you want to replace it?") {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		fmt.Printf("Failed to create store directory: %v\n", err)
		return 1
	}

	staged := stagingConfig(cfg)
	if err := removeStore(staged); err != nil {
		fmt.Printf("Failed to clear staging store: %v\n", err)
		return 1
	}
	if err := restoreStore(staged, log, backupFile); err != nil {
		removeStore(staged)
		fmt.Printf("Failed to restore store: %v\n", err)
		return 1
	}

	if exists {
		if err := removeStore(cfg); err != nil {
			removeStore(staged)
			fmt.Printf("Failed to remove existing store: %v\n", err)
			return 1
		}
	}
	if err := os.Rename(storePath(staged), path); err != nil {
		fmt.Printf("Failed to move restored store into place: %v\n", err)
		return 1
	}

	fmt.Println("Store restored successfully")
	return 0
}

// restoreStore loads backupFile into the store cfg points at and reads every
// post back.
func restoreStore(cfg *config.Config, log *logger.Logger, backupFile string) (err error) {
	src, err := os.Open(backupFile)
	if err != nil {
		return err
	}
	defer src.Close()

	if cfg.StoreDriver == config.DriverSQLite {
		dst, err := os.Create(cfg.SQLitePath)
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
		repo, err := repositories.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer repo.Close()
		return checkStore(repo)
	}

	repo, err := repositories.OpenBadger(cfg.BadgerPath, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred during restore: %v", r)
		}
	}()
	if err := repo.DB().Load(src, 4); err != nil {
		return err
	}
	return checkStore(repo)
}

// checkStore decodes every stored post.
func checkStore(store repositories.PostStore) error {
	if _, err := store.List(context.Background()); err != nil {
		return fmt.Errorf("verify restored store: %w", err)
	}
	return nil
}
