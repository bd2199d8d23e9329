package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConnect_SQLiteMemory(t *testing.T) {
	db, err := Connect(Config{}, nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var count int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM sqlite_master").Scan(&count).Error)
}

func TestConnect_SQLiteFile(t *testing.T) {
	dsn := t.TempDir() + "/store.db"
	db, err := Connect(Config{Driver: DriverSQLite, DSN: dsn, MaxOpenConns: 4}, hclog.NewNullLogger())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 4, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_Errors(t *testing.T) {
	_, err := Connect(Config{Driver: "mysql"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")

	_, err = Connect(Config{Driver: DriverPostgres}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN is required")
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	log := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Trace})
	l := NewGormLogger(log)

	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, errors.New("no such table"))
	assert.Contains(t, buf.String(), "query failed")

	buf.Reset()
	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	l.LogMode(logger.Info).Trace(context.Background(), time.Now(), sql, nil)
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Empty(t, buf.String())
}
