package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"ulasan/internal/config"
)

const sqliteScheme = "sqlite://"

// IsSQLite indica si DATABASE_URL apunta a un archivo SQLite local.
func IsSQLite(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, sqliteScheme)
}

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configuración razonable para ambientes iniciales.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         BIGSERIAL PRIMARY KEY,
	text       TEXT NOT NULL,
	sentiment  TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	correction TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_analyses_correction ON analyses (id) WHERE correction IS NOT NULL;
`

// Migrate crea la tabla de historial si no existe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, pgSchema)
	return err
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	text       TEXT NOT NULL,
	sentiment  TEXT NOT NULL,
	confidence REAL NOT NULL,
	correction TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenSQLite abre el archivo indicado en DATABASE_URL (sqlite://ruta) y asegura el esquema.
func OpenSQLite(databaseURL string) (*sql.DB, error) {
	path := strings.TrimPrefix(databaseURL, sqliteScheme)
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// SQLite serializa escrituras; una conexion evita SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
