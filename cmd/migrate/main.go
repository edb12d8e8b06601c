// Command migrate applies or reverts the signup store schema.
//
// Usage:
//
//	migrate [-database-url URL] up
//	migrate [-database-url URL] [-steps N] down
//	migrate [-database-url URL] version
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nawabco/waitlist/internal/migrate"
	"github.com/nawabco/waitlist/migrations"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		steps       = flag.Int("steps", 1, "Number of migrations to revert with down")
		timeout     = flag.Duration("timeout", time.Minute, "Overall timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, command, *databaseURL, *steps, logger); err != nil {
		logger.Error("migrate failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command, databaseURL string, steps int, logger *slog.Logger) error {
	migs, err := migrate.Load(migrations.FS)
	if err != nil {
		return err
	}

	db, err := migrate.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	m := migrate.New(db, migs, logger)

	switch command {
	case "up":
		n, err := m.Up(ctx)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "count", n)
	case "down":
		if steps < 1 {
			return fmt.Errorf("steps must be at least 1, got %d", steps)
		}
		n, err := m.Down(ctx, steps)
		if err != nil {
			return err
		}
		logger.Info("migrations reverted", "count", n)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", command)
	}
	return nil
}
