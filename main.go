package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"blogquery/app/config"
	"blogquery/app/logger"
	"blogquery/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the command line. Tests replace exit to observe the
// exit code.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("blogquery version %s\n", CliVersion)
	case "serve":
		cfg, log, err := setup()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			exit(1)
			return
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := service.Serve(ctx, cfg, log); err != nil {
			log.Error("Query service stopped", "error", err)
			log.Sync()
			exit(1)
			return
		}
	case "store":
		cfg, log, err := setup()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			exit(1)
			return
		}
		defer log.Sync()

		if code := service.HandleCommand(os.Args[2:], cfg, log); code != 0 {
			log.Sync()
			exit(code)
			return
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func printHelp() {
	helpText := `Usage: blogquery <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve                          Run the query service (POST /events, GET /posts).
  store <command>                Manage the store: init, clean, backup, restore <file>, help.

Configuration is read from the environment and an optional .env file:
  HOST, PORT, STORE_DRIVER, BADGER_PATH, SQLITE_PATH, BACKUP_DIR,
  LOG_MODE, REQUEST_TIMEOUT, SHUTDOWN_TIMEOUT, CORS_ORIGINS
`
	fmt.Println(helpText)
}
