package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/db"
)

// openStore opens and migrates the configured store. The returned func
// releases it.
func openStore(cfg *config.AppConfig) (db.Querier, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := connectToDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.MigratePostgres(context.Background(), pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrating postgres: %w", err)
		}
		return db.New(pool), pool.Close, nil
	case config.StoreSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.MigrateSQLite(context.Background(), conn); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("migrating sqlite: %w", err)
		}
		slog.Info("SQLite store opened", slog.String("path", cfg.SQLitePath))
		return db.NewSQLite(conn), func() { conn.Close() }, nil
	default:
		slog.Info("Using in-memory store")
		return db.NewMemory(), func() {}, nil
	}
}

func connectToDB(config *config.AppConfig) (*pgxpool.Pool, error) {
	dbconfig, err := pgxpool.ParseConfig(
		fmt.Sprintf("host=%s user=%s password=%s port=%d sslmode=%s dbname=%s pool_max_conns=%d pool_min_conns=%d",
			config.DBHost,
			config.DBUsername,
			config.DBPassword,
			config.DBPort,
			config.DBSSLMode,
			config.DBName,
			config.DBMaxConns,
			config.DBMinConns,
		),
	)
	if err != nil {
		slog.Error("Failed to parse database configuration", "error", err)
		return nil, err
	}
	slog.Info("Database connection pool established",
		slog.String("host", config.DBHost),
		slog.Int("port", config.DBPort),
		slog.String("dbname", config.DBName),
		slog.Int("max_conns", config.DBMaxConns),
	)
	pool, err := pgxpool.NewWithConfig(context.Background(), dbconfig)
	return pool, err
}

func (a *Application) Close() {
	a.closer()
}
