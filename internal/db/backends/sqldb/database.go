package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/interfaces"
	"github.com/pulseboard/pulseboard-backend/internal/db/migrations"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// goose keeps its dialect and filesystem in package globals
var gooseMu sync.Mutex

// Options tune the connection pool
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Database implements interfaces.Database on top of database/sql
type Database struct {
	dialect Dialect
	dsn     string
	opts    Options
	logger  *zap.SugaredLogger

	mu sync.RWMutex
	db *sql.DB
}

// NewDatabase creates a database that opens dsn on Connect
func NewDatabase(dialect Dialect, dsn string, opts Options, logger *zap.SugaredLogger) *Database {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Database{
		dialect: dialect,
		dsn:     dsn,
		opts:    opts,
		logger:  logger,
	}
}

// NewWithDB wraps an already opened handle. Connect only pings it.
func NewWithDB(dialect Dialect, db *sql.DB, logger *zap.SugaredLogger) *Database {
	d := NewDatabase(dialect, "", Options{}, logger)
	d.db = db
	return d
}

// Dialect returns the SQL dialect in use
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// DB returns the underlying handle, or nil before Connect
func (d *Database) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Connect opens the pool and verifies it with a ping
func (d *Database) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		if d.dsn == "" {
			return fmt.Errorf("%s: empty dsn", d.dialect.Name)
		}
		db, err := sql.Open(d.dialect.Driver, d.dsn)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", d.dialect.Name, err)
		}
		if d.opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(d.opts.MaxOpenConns)
		}
		if d.opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(d.opts.MaxIdleConns)
		}
		if d.opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(d.opts.ConnMaxLifetime)
		}
		d.db = db
	}

	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", d.dialect.Name, err)
	}

	d.logger.Infow("Connected to database", "dialect", d.dialect.Name)
	return nil
}

// Disconnect closes the pool
func (d *Database) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	d.logger.Infow("Disconnected from database", "dialect", d.dialect.Name)
	return err
}

// IsHealthy checks if the database connection is healthy
func (d *Database) IsHealthy(ctx context.Context) bool {
	db := d.DB()
	if db == nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

// Migrate applies the embedded goose migrations for the dialect
func (d *Database) Migrate(ctx context.Context) error {
	return d.Goose(ctx, "up")
}

// Goose runs a goose command (up, down, status, version) against the embedded migrations
func (d *Database) Goose(ctx context.Context, command string) error {
	db := d.DB()
	if db == nil {
		return interfaces.ErrDatabaseNotConnected
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(d.dialect.Name); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	dir := migrations.Dir(d.dialect.Name)
	var err error
	switch command {
	case "up":
		err = goose.Up(db, dir)
	case "down":
		err = goose.Down(db, dir)
	case "status":
		err = goose.Status(db, dir)
	case "version":
		err = goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}

func (d *Database) Seed(ctx context.Context, posts []entities.Post) error {
	if len(posts) == 0 {
		return nil
	}
	db := d.DB()
	if db == nil {
		return interfaces.ErrDatabaseNotConnected
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.insertSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range posts {
		if _, err := stmt.ExecContext(ctx, posts[i].Values()...); err != nil {
			return fmt.Errorf("failed to insert post %s: %w", posts[i].PostID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	d.logger.Infow("Seeded posts", "count", len(posts), "dialect", d.dialect.Name)
	return nil
}

func (d *Database) insertSQL() string {
	marks := make([]string, len(entities.Columns))
	for i := range marks {
		marks[i] = d.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		entities.TableName,
		strings.Join(entities.Columns, ", "),
		strings.Join(marks, ", "),
		d.dialect.InsertSuffix,
	)
}
