package sqldb

import (
	"fmt"

	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/db/query"
)

// Dialect describes how one SQL engine is reached and spoken to
type Dialect struct {
	// Name is the goose dialect and migration directory
	Name string
	// Driver is the database/sql driver name
	Driver string
	// Placeholder renders positional parameters
	Placeholder query.Placeholder
	// InsertSuffix is appended to the seed INSERT statement
	InsertSuffix string
	// ReadModifier follows the table name in reads
	ReadModifier string
}

// from renders the table reference reads select from
func (d Dialect) from() string {
	if d.ReadModifier == "" {
		return entities.TableName
	}
	return entities.TableName + " " + d.ReadModifier
}

var (
	// Postgres is reached through the pgx stdlib driver
	Postgres = Dialect{
		Name:         "postgres",
		Driver:       "pgx",
		Placeholder:  query.Dollar,
		InsertSuffix: " ON CONFLICT (post_id) DO NOTHING",
	}

	// ClickHouse is reached through the clickhouse-go database/sql driver.
	// Duplicate post IDs only collapse on merge (ReplacingMergeTree), so reads use FINAL.
	ClickHouse = Dialect{
		Name:         "clickhouse",
		Driver:       "clickhouse",
		Placeholder:  query.Question,
		ReadModifier: "FINAL",
	}
)

// DialectFor returns the dialect registered under name
func DialectFor(name string) (Dialect, error) {
	switch name {
	case Postgres.Name, "postgresql":
		return Postgres, nil
	case ClickHouse.Name:
		return ClickHouse, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql dialect: %s", name)
}
