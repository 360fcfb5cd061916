package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"wavely/internal/config"
	"wavely/internal/logging"
	"wavely/internal/models"
)

// Open 根据驱动打开数据库连接：生产使用 postgres，本地开发和测试使用 sqlite
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.URL)
	case "sqlite":
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite 单写者，所有事务串行走同一个连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return conn, nil
}

// Migrate 自动迁移所有表结构
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Wave{},
		&models.Post{},
		&models.PostMedia{},
		&models.Comment{},
		&models.Vote{},
	)
}

// Init 打开并迁移数据库，供 main 使用
func Init(cfg config.DatabaseConfig, logger logging.Logger) (*gorm.DB, error) {
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	logger.WithField("driver", cfg.Driver).Info("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("Database migration completed")
	return conn, nil
}
