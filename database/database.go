package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensetracker/config"
	"expensetracker/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector 根据连接串选择驱动
// 支持 mysql://、postgres://（postgresql://）、sqlite://；URL 为空时按 MySQL 字段拼接 DSN
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	url := strings.TrimSpace(cfg.URL)
	switch {
	case url == "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		return mysql.Open(dsn), nil
	case strings.HasPrefix(url, "mysql://"):
		return mysql.Open(withParseTime(strings.TrimPrefix(url, "mysql://"))), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), nil
	default:
		return nil, fmt.Errorf("unsupported database url: %s", config.RedactURL(url))
	}
}

// withParseTime MySQL 需要 parseTime 才能扫描 DATETIME 到 time.Time
func withParseTime(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "parsetime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=True"
	}
	return dsn + "?parseTime=True"
}

// gormLogLevel 将配置中的级别映射为 gorm 日志级别
func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Open 建立数据库连接并自动迁移表结构，返回的句柄由调用方注入各层
func Open(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if IsSQLite(db) {
		// 内存库每个连接都是独立的库，SQLite 本身也只允许单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if log != nil {
		log.Info("database ready", "dialect", db.Dialector.Name())
	}
	return db, nil
}

// Migrate 自动迁移 users、budgets、expenses 三张表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Budget{},
		&models.Expense{},
	)
}

// IsSQLite 当前连接是否为 SQLite
func IsSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == "sqlite"
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
