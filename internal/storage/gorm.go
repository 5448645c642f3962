package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvRecord is the row layout for the gorm-backed drivers. The column is not
// named "key" because that is reserved in MySQL.
type kvRecord struct {
	Key       string    `gorm:"column:kv_key;primaryKey;size:128"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (kvRecord) TableName() string { return "kv_records" }

// Gorm stores values through gorm; used for the sqlite and mysql drivers.
type Gorm struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a sqlite database file. Use
// "file::memory:?cache=shared" for an in-memory database.
func OpenSQLite(path string) (*Gorm, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty path")
	}
	return NewGorm(sqlite.Open(path))
}

func OpenMySQL(dsn string) (*Gorm, error) {
	return NewGorm(mysql.Open(dsn))
}

// NewGorm opens dialector and auto-migrates the kv_records table.
func NewGorm(dialector gorm.Dialector) (*Gorm, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: open: %w", err)
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("gorm: migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, error) {
	var rec kvRecord
	err := g.db.WithContext(ctx).First(&rec, "kv_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gorm: get %s: %w", key, err)
	}
	return rec.Value, nil
}

func (g *Gorm) Put(ctx context.Context, key string, value []byte) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	rec := kvRecord{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("gorm: put %s: %w", key, err)
	}
	return nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
