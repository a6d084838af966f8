package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pulseboard/pulseboard-backend/internal/config"
	gdb "github.com/pulseboard/pulseboard-backend/internal/db"
	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/importer"
	"github.com/pulseboard/pulseboard-backend/internal/log"
)

var (
	file      = flag.String("file", "", "CSV file with one post per row (required)")
	backend   = flag.String("backend", "", "database backend; defaults to PB_DB_BACKEND")
	batchSize = flag.Int("batch", 1000, "posts per Seed call")
	migrate   = flag.Bool("migrate", true, "apply migrations before importing")
	timeout   = flag.Duration("timeout", 10*time.Minute, "overall timeout")
)

func main() {
	flag.Parse()
	if *file == "" || *batchSize <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: import -file posts.csv [-backend postgres] [-batch 1000]")
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
}

// run imports the file, releasing every resource before main decides the exit status
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	dbCfg := cfg.DB()
	if *backend != "" {
		dbCfg.Backend = *backend
	}
	if dbCfg.Backend == gdb.BackendMemory {
		return errors.New("importing into the memory backend would be lost on exit; choose postgres, clickhouse, or mongo")
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	db, err := gdb.NewDatabase(dbCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := gdb.ConnectAndMigrate(ctx, db, *migrate); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Disconnect(context.Background())

	start := time.Now()
	total, err := importPosts(ctx, f, *batchSize, db.Seed)
	if err != nil {
		logger.Errorw("Import failed", "imported", total, "error", err)
		return err
	}

	logger.Infow("Import complete",
		"file", *file,
		"backend", dbCfg.Backend,
		"posts", total,
		"duration", time.Since(start),
	)
	return nil
}

// importPosts streams posts from r into seed in batches and returns how many were stored
func importPosts(ctx context.Context, r io.Reader, batchSize int, seed func(context.Context, []entities.Post) error) (int, error) {
	reader, err := importer.NewReader(r)
	if err != nil {
		return 0, err
	}

	total := 0
	batch := make([]entities.Post, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := seed(ctx, batch); err != nil {
			return fmt.Errorf("failed to seed batch at post %d: %w", total, err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		p, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, err
		}
		batch = append(batch, p)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	return total, flush()
}
