// Package propertystore persists per-index properties such as the time and
// size of the last commit.
package propertystore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hashicorp-forge/contentsearch/pkg/database"
)

// Property names written by RecordCommit.
const (
	LastCommitAt   = "last_commit_at"
	LastCommitSize = "last_commit_size"
	LastError      = "last_error"
)

// ErrNotFound is returned by Get when the property has never been set.
var ErrNotFound = errors.New("property not found")

// IndexProperty is one named value for an index key.
type IndexProperty struct {
	ID uint `gorm:"primaryKey" json:"-"`

	// Key is the property store key of the index.
	Key string `gorm:"column:index_key;type:varchar(255);not null;uniqueIndex:idx_index_property" json:"key"`

	// Name of the property.
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_index_property" json:"name"`

	Value string `gorm:"type:text" json:"value"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (IndexProperty) TableName() string {
	return "index_properties"
}

// Store reads and writes index properties.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the database and migrates the property table. driver is
// "sqlite" or "postgres".
func Open(driver, dsn string, log hclog.Logger) (*Store, error) {
	db, err := database.Connect(database.Config{Driver: driver, DSN: dsn}, log)
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New wraps an open database and migrates the property table.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&IndexProperty{}); err != nil {
		return nil, fmt.Errorf("failed to migrate index properties: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Get returns the value of property name for key.
func (s *Store) Get(ctx context.Context, key, name string) (string, error) {
	var p IndexProperty
	err := s.db.WithContext(ctx).
		Where("index_key = ? AND name = ?", key, name).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get property %s/%s: %w", key, name, err)
	}
	return p.Value, nil
}

// Set creates or replaces property name for key.
func (s *Store) Set(ctx context.Context, key, name, value string) error {
	return s.set(s.db.WithContext(ctx), key, name, value)
}

func (s *Store) set(tx *gorm.DB, key, name, value string) error {
	p := IndexProperty{
		Key:       key,
		Name:      name,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "index_key"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to set property %s/%s: %w", key, name, err)
	}
	return nil
}

// All returns every property stored for key, by name.
func (s *Store) All(ctx context.Context, key string) (map[string]string, error) {
	var props []IndexProperty
	if err := s.db.WithContext(ctx).Where("index_key = ?", key).Find(&props).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties for %s: %w", key, err)
	}
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[p.Name] = p.Value
	}
	return out, nil
}

// RecordCommit stores the outcome of a commit. A successful commit updates
// the commit time and size and clears the last error. A failed commit only
// sets the last error.
func (s *Store) RecordCommit(ctx context.Context, key string, size int, commitErr error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if commitErr != nil {
			return s.set(tx, key, LastError, commitErr.Error())
		}
		if err := s.set(tx, key, LastCommitAt, s.now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		if err := s.set(tx, key, LastCommitSize, strconv.Itoa(size)); err != nil {
			return err
		}
		return s.set(tx, key, LastError, "")
	})
}
