package database

import (
	"context"
	"fmt"
	"time"

	"github.com/LittleGragon/coffee-shop-sub000/config"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the application's database client. It is created once by Open,
// passed to whoever needs it, and released with Close.
type DB struct {
	gorm    *gorm.DB
	Queries *QueryLogger
	log     *logrus.Entry
}

// GormConfig returns the gorm settings shared by Open and the test helpers.
// Driver constraint errors are translated to gorm.ErrDuplicatedKey and
// gorm.ErrForeignKeyViolated.
func GormConfig(gormLogger logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	}
}

// Open connects to PostgreSQL and configures the pool
func Open(cfg *config.DatabaseConfig, log logrus.FieldLogger) (*DB, error) {
	queries := NewQueryLogger(100)

	// Configure GORM with custom logger
	var gormLogger logger.Interface
	if cfg.LogQueries {
		gormLogger = &RecordingLogger{
			Interface: logger.Default.LogMode(logger.Warn),
			Queries:   queries,
		}
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(postgres.Open(cfg.GetDSN()), GormConfig(gormLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(30 * time.Second)

	db := New(gdb, queries, log)
	db.log.WithFields(logrus.Fields{
		"host":           cfg.Host,
		"database":       cfg.DBName,
		"max_open_conns": cfg.MaxOpenConns,
	}).Info("Database connection established")
	return db, nil
}

// New wraps an already opened gorm handle
func New(gdb *gorm.DB, queries *QueryLogger, log logrus.FieldLogger) *DB {
	if queries == nil {
		queries = NewQueryLogger(100)
	}
	return &DB{
		gorm:    gdb,
		Queries: queries,
		log:     logging.Component(log, "database"),
	}
}

// Conn returns a gorm session bound to ctx for single-statement work
func (d *DB) Conn(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

// WithTransaction runs work inside one database transaction. The transaction
// is committed when work returns nil and rolled back when it returns an error
// or panics. The error from work is returned unchanged; nothing is retried.
func (d *DB) WithTransaction(ctx context.Context, work func(tx *gorm.DB) error) error {
	tx := d.gorm.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := work(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			d.log.WithError(rbErr).Error("Rollback failed")
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks that the database answers
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the database connection pool
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
