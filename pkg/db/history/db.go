package history

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/canopy-network/stakewatch/pkg/db/clickhouse"
)

// DefaultDBName is the database holding the snapshot archive.
const DefaultDBName = "stakewatch"

// DB is the snapshot archive: every published account snapshot lands here so
// the API can answer "what did this account look like over time".
type DB struct {
	clickhouse.Client
	Name string
}

// New connects to ClickHouse and ensures the archive database and tables exist.
func New(ctx context.Context, logger *zap.Logger, dbName string) (*DB, error) {
	sanitized := clickhouse.SanitizeName(dbName)

	client, err := clickhouse.New(ctx, logger.With(zap.String("db", sanitized)), sanitized)
	if err != nil {
		return nil, err
	}

	db := &DB{
		Client: client,
		Name:   sanitized,
	}

	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// InitializeDB creates the archive database and its tables when missing.
func (db *DB) InitializeDB(ctx context.Context) error {
	if err := db.CreateDbIfNotExists(ctx, db.Name); err != nil {
		return fmt.Errorf("failed to create database %s: %w", db.Name, err)
	}

	if err := db.initSnapshots(ctx); err != nil {
		return fmt.Errorf("init account_snapshots: %w", err)
	}

	return nil
}

// Close terminates the underlying ClickHouse connection.
func (db *DB) Close() error {
	return db.Db.Close()
}
