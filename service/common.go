package service

import (
	"fmt"
	"os"
	"strings"

	"blogquery/app/config"
)

// storePath is the on-disk location of the configured store.
func storePath(cfg *config.Config) string {
	if cfg.StoreDriver == config.DriverSQLite {
		return cfg.SQLitePath
	}
	return cfg.BadgerPath
}

// stagingConfig points a copy of cfg at a scratch location next to the store.
func stagingConfig(cfg *config.Config) *config.Config {
	staged := *cfg
	staged.BadgerPath = cfg.BadgerPath + ".restore"
	staged.SQLitePath = cfg.SQLitePath + ".restore"
	return &staged
}

// removeStore deletes the store and, for sqlite, its journal files.
func removeStore(cfg *config.Config) error {
	path := storePath(cfg)
	if cfg.StoreDriver == config.DriverSQLite {
		for _, suffix := range []string{"-wal", "-shm"} {
			if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return os.RemoveAll(path)
}

// confirm asks a yes/no question on stdout and reads the answer from stdin.
func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	var response string
	fmt.Scanln(&response)
	return strings.EqualFold(response, "y")
}
