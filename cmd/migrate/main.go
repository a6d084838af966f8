package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/pulseboard/pulseboard-backend/internal/config"
	gdb "github.com/pulseboard/pulseboard-backend/internal/db"
	"github.com/pulseboard/pulseboard-backend/internal/db/backends/sqldb"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
)

var (
	flags   = flag.NewFlagSet("migrate", flag.ExitOnError)
	backend = flags.String("backend", "", "database backend (postgres, clickhouse, mongo); defaults to PB_DB_BACKEND")
	timeout = flags.Duration("timeout", time.Minute, "overall timeout")
)

func main() {
	flag.Parse()
	flags.Parse(flag.Args())
	args := flags.Args()

	if len(args) < 1 {
		log.Fatal("Usage: migrate [-backend name] COMMAND\n\nCommands:\n  up\n  down\n  status\n  version")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	dbCfg := cfg.DB()
	if *backend != "" {
		dbCfg.Backend = *backend
	}
	if dbCfg.Backend == gdb.BackendMemory {
		log.Fatal("The memory backend has no schema to migrate; set PB_DB_BACKEND or -backend")
	}

	db, err := gdb.NewDatabase(dbCfg, nil)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Disconnect(context.Background())

	if err := run(ctx, db, args[0]); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

func run(ctx context.Context, db interfaces.Database, command string) error {
	if sqlDB, ok := db.(*sqldb.Database); ok {
		return sqlDB.Goose(ctx, command)
	}

	// Document stores only know how to build their indexes
	if command != "up" {
		return fmt.Errorf("command %q is only supported for SQL backends", command)
	}
	return db.Migrate(ctx)
}
