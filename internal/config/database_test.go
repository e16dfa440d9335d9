package config

import (
	"context"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{
		Host:        "db.internal",
		Port:        "3307",
		User:        "sacco",
		Password:    "p@ss:word",
		DBName:      "devroots_sacco",
		DialTimeout: 5 * time.Second,
	})

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sacco", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "devroots_sacco", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
	assert.Equal(t, "utf8mb4_unicode_ci", parsed.Collation)
}

type poolSpy struct {
	open, idle int
	lifetime   time.Duration
}

func (p *poolSpy) SetMaxOpenConns(n int)              { p.open = n }
func (p *poolSpy) SetMaxIdleConns(n int)              { p.idle = n }
func (p *poolSpy) SetConnMaxLifetime(d time.Duration) { p.lifetime = d }

func TestApplyPool(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want poolSpy
	}{
		{"Configured", DatabaseConfig{MaxOpenConns: 30, MaxIdleConns: 5, ConnMaxLifetime: time.Hour}, poolSpy{30, 5, time.Hour}},
		{"Defaults", DatabaseConfig{}, poolSpy{50, 0, 0}},
		{"IdleAboveOpen", DatabaseConfig{MaxOpenConns: 8, MaxIdleConns: 20}, poolSpy{8, 8, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spy poolSpy
			applyPool(&spy, tt.cfg)
			assert.Equal(t, tt.want, spy)
		})
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	prev := DB
	DB = nil
	t.Cleanup(func() { DB = prev })

	assert.ErrorIs(t, HealthCheck(context.Background()), ErrDatabaseNotInitialized)
	assert.NoError(t, CloseDatabase())
}
