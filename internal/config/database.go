package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// ErrDatabaseNotInitialized is returned by HealthCheck before ConnectDatabase succeeds
var ErrDatabaseNotInitialized = errors.New("database not initialized")

// ConnectDatabase opens the MySQL pool, sizes it from cfg.Database and
// verifies it with a ping.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	d := cfg.Database

	db, err := gorm.Open(mysql.Open(buildDSN(d)), &gorm.Config{
		Logger: gormLogger(cfg),
		// ledger writes open their own transactions
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	applyPool(sqlDB, d)

	ctx, cancel := context.WithTimeout(context.Background(), d.DialTimeout+5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db

	logrus.WithFields(logrus.Fields{
		"host":      d.Host,
		"port":      d.Port,
		"database":  d.DBName,
		"max_open":  d.MaxOpenConns,
		"max_idle":  d.MaxIdleConns,
		"life_time": d.ConnMaxLifetime.String(),
	}).Info("✅ Database connected successfully")

	return db, nil
}

// pool is the part of *sql.DB that applyPool configures
type pool interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

// applyPool sizes the connection pool. Idle connections never exceed open ones.
func applyPool(p pool, d DatabaseConfig) {
	maxOpen := d.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 50
	}
	maxIdle := d.MaxIdleConns
	if maxIdle < 0 || maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	p.SetMaxOpenConns(maxOpen)
	p.SetMaxIdleConns(maxIdle)
	if d.ConnMaxLifetime > 0 {
		p.SetConnMaxLifetime(d.ConnMaxLifetime)
	}
}

// gormLogger routes SQL logging through logrus; development logs every
// statement, other modes only errors and slow queries.
func gormLogger(cfg *Config) logger.Interface {
	level := logger.Warn
	if cfg.IsDev() {
		level = logger.Info
	}
	slow := cfg.Database.SlowQuery
	if slow <= 0 {
		slow = 500 * time.Millisecond
	}
	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// buildDSN returns the driver connection string. Times are read and
// written as UTC so loan dates don't shift with the server's zone.
func buildDSN(d DatabaseConfig) string {
	c := gomysql.NewConfig()
	c.User = d.User
	c.Passwd = d.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(d.Host, d.Port)
	c.DBName = d.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.Collation = "utf8mb4_unicode_ci"
	if d.DialTimeout > 0 {
		c.Timeout = d.DialTimeout
	}
	return c.FormatDSN()
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// HealthCheck pings the database within ctx
func HealthCheck(ctx context.Context) error {
	if DB == nil {
		return ErrDatabaseNotInitialized
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
