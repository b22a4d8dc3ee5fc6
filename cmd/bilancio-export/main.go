package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/config"
	"bilancio/internal/export"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentExport})
	applog.SetDefault(logger)

	cfg := config.Load()

	dbPath := flag.String("db", cfg.SQLiteDBPath, "path to the SQLite database")
	userID := flag.String("user", cfg.DefaultUserID, "user whose transactions to export")
	out := flag.String("out", "", "output file (default expenses_<date>.csv, \"-\" for stdout)")
	flag.Parse()

	if err := run(*dbPath, *userID, *out); err != nil {
		fmt.Fprintln(os.Stderr, "export failed:", err)
		os.Exit(1)
	}
}

func run(dbPath, userID, out string) error {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()

	txs, err := repo.ListTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	cats, err := repo.ListCategories(ctx, userID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	if out == "-" {
		return export.WriteCSV(os.Stdout, txs, cats)
	}

	if out == "" {
		out = export.Filename(time.Now())
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, txs, cats); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %d transactions to %s\n", len(txs), out)
	return nil
}
