package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/ponytojas/go-tempcheck/config"
	"github.com/ponytojas/go-tempcheck/internal/models"
)

// TimescaleDB records readings in a Timescale hypertable
type TimescaleDB struct {
	conn   *pgx.Conn
	config *config.Config
	log    *logrus.Logger
}

// NewTimescaleDB creates a new TimescaleDB instance
func NewTimescaleDB(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*TimescaleDB, error) {
	log.Debugf("Connecting to database at 'host=%s port=%d user=%s dbname=%s sslmode=%s'",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.DBName, cfg.Database.SSLMode)

	conn, err := pgx.Connect(ctx, cfg.GetDBConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &TimescaleDB{
		conn:   conn,
		config: cfg,
		log:    log,
	}, nil
}

// Name implements sink.Sink.
func (db *TimescaleDB) Name() string { return "timescale" }

// Close closes the database connection
func (db *TimescaleDB) Close() error {
	return db.conn.Close(context.Background())
}

// tableIdent returns the configured table name quoted for SQL.
func tableIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE %s (
			time TIMESTAMPTZ NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			device_id TEXT NOT NULL,
			hostname TEXT,
			source TEXT
		)
	`, tableIdent(table))
}

func insertSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (time, temperature, device_id, hostname, source)
		VALUES ($1, $2, $3, $4, $5)
	`, tableIdent(table))
}

// InitializeTable checks if the table exists and creates it if it doesn't
func (db *TimescaleDB) InitializeTable(ctx context.Context) error {
	tableName := db.config.Timescale.TableName

	var exists bool
	err := db.conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}

	if exists {
		db.log.Debugf("Table %s already exists", tableName)
		return nil
	}

	db.log.Infof("Creating table %s...", tableName)
	if _, err := db.conn.Exec(ctx, createTableSQL(tableName)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Convert to hypertable
	if _, err := db.conn.Exec(ctx, `SELECT create_hypertable($1::regclass, 'time')`, tableIdent(tableName)); err != nil {
		return fmt.Errorf("failed to convert table to hypertable: %w", err)
	}

	db.log.Infof("Table %s created and converted to hypertable", tableName)
	return nil
}

// Send implements sink.Sink by inserting the reading.
func (db *TimescaleDB) Send(ctx context.Context, data *models.SensorData) error {
	_, err := db.conn.Exec(ctx, insertSQL(db.config.Timescale.TableName),
		data.Timestamp, data.Temperature, data.DeviceID, data.Hostname, data.Source)
	if err != nil {
		return fmt.Errorf("failed to insert sensor data: %w", err)
	}
	return nil
}
