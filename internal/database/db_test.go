package database

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponytojas/go-tempcheck/config"
	"github.com/ponytojas/go-tempcheck/internal/logging"
	"github.com/ponytojas/go-tempcheck/internal/models"
)

func TestTableIdent(t *testing.T) {
	assert.Equal(t, `"cpu_temperature"`, tableIdent("cpu_temperature"))
	assert.Equal(t, `"readings"";drop"`, tableIdent(`readings";drop`))
}

func TestInsertSQL(t *testing.T) {
	sql := strings.Join(strings.Fields(insertSQL("cpu_temperature")), " ")
	assert.Equal(t,
		`INSERT INTO "cpu_temperature" (time, temperature, device_id, hostname, source) VALUES ($1, $2, $3, $4, $5)`,
		sql)
}

func TestCreateTableSQL(t *testing.T) {
	sql := createTableSQL("cpu_temperature")
	assert.Contains(t, sql, `CREATE TABLE "cpu_temperature"`)
	assert.Contains(t, sql, "time TIMESTAMPTZ NOT NULL")
	assert.Contains(t, sql, "device_id TEXT NOT NULL")
}

func TestNewTimescaleDB_Unreachable(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewTimescaleDB(ctx, cfg, logging.Discard())
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestNewTimescaleDB_ContextTimeout(t *testing.T) {
	// A server that accepts connections and never answers the startup message.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	cfg := config.GetDefaultConfig()
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = addr.Port

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	db, err := NewTimescaleDB(ctx, cfg, logging.Discard())

	require.Error(t, err)
	assert.Nil(t, db)
	assert.Less(t, time.Since(start), 5*time.Second)
}

// TestTimescaleDB_RoundTrip needs a TimescaleDB instance, e.g.
// TEMPCHECK_TEST_DATABASE_HOST=localhost with the default postgres credentials.
func TestTimescaleDB_RoundTrip(t *testing.T) {
	dbHost := os.Getenv("TEMPCHECK_TEST_DATABASE_HOST")
	if dbHost == "" {
		t.Skip("TEMPCHECK_TEST_DATABASE_HOST not set")
	}

	cfg := config.GetDefaultConfig()
	cfg.Database.Host = dbHost
	if port, err := strconv.Atoi(os.Getenv("TEMPCHECK_TEST_DATABASE_PORT")); err == nil {
		cfg.Database.Port = port
	}
	cfg.Timescale.TableName = "tempcheck_test_" + strconv.FormatInt(time.Now().UnixNano(), 36)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewTimescaleDB(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer func() {
		_, _ = db.conn.Exec(context.Background(), "DROP TABLE IF EXISTS "+tableIdent(cfg.Timescale.TableName))
		db.Close()
	}()

	require.NoError(t, db.InitializeTable(ctx))
	require.NoError(t, db.InitializeTable(ctx), "second call finds the existing table")

	data, err := models.NewSensorData("42.5", "host-id", "macbook", "tempcheck", time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Send(ctx, data))

	var count int
	var temperature float64
	err = db.conn.QueryRow(ctx,
		"SELECT count(*), max(temperature) FROM "+tableIdent(cfg.Timescale.TableName)).Scan(&count, &temperature)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 42.5, temperature)
}
