// Package db owns database connections, migration, and seed data.
package db

import (
	"fmt"

	"github.com/askelund/storyrank/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN from config.
func DSN(c config.MySQLConfig) string {
	cred := c.User
	if c.Password != "" {
		cred += ":" + c.Password
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", cred, c.Host, c.Port, c.Database)
}

// Open connects to the configured database backend.
func Open(c config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	switch c.Driver {
	case "mysql":
		gdb, err := gorm.Open(mysql.Open(DSN(c.MySQL)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to mysql %s:%d/%s: %w", c.MySQL.Host, c.MySQL.Port, c.MySQL.Database, err)
		}
		return gdb, nil
	case "sqlite", "":
		gdb, err := gorm.Open(sqlite.Open(c.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", c.Path, err)
		}
		// sqlite allows a single writer; serialize through one connection.
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("db: sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return gdb, nil
	default:
		return nil, fmt.Errorf("db: unknown driver %q", c.Driver)
	}
}

// Ping verifies the connection is alive.
func Ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}
