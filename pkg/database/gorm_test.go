package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"sqlite://chat.db", "sqlite"},
		{"host=localhost user=app dbname=devguide sslmode=disable", "postgres"},
		{"postgres://app@localhost/devguide", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			if got := Dialector(tt.dsn).Name(); got != tt.want {
				t.Errorf("Dialector(%q).Name() = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}

func TestNewGormDBFromDSNSqlite(t *testing.T) {
	db, err := NewGormDBFromDSN(sqlitePrefix + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Ping())
}
