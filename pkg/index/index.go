// Package index is the durable metadata index keyed by content SHA-1,
// backed by an embedded sqlite database.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/fileserver/pkg/models"
)

// ErrNotFound is returned when no record exists for a fingerprint.
var ErrNotFound = errors.New("file not found")

// ErrNotInitialized is returned when the index is used before Open; it
// signals a startup-ordering bug in the caller.
var ErrNotInitialized = errors.New("index is not initialized")

// CatalogEntry is one upload-month bucket with its record count. The bucket
// is selected under the alias name_ so it cannot collide with the fileinfo
// name column when grouping.
type CatalogEntry struct {
	Name  string `gorm:"column:name_" json:"name"`
	Count int64  `gorm:"column:count" json:"count"`
}

// Index wraps the fileinfo table.
type Index struct {
	db *gorm.DB
}

// Open creates dataDir if needed, opens the sqlite database inside it and
// migrates the fileinfo table. Must complete before any other method is
// called.
func Open(dataDir string) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "data.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&models.FileRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Index{db: db}, nil
}

func (idx *Index) ready() error {
	if idx == nil || idx.db == nil {
		return ErrNotInitialized
	}
	return nil
}

// Upsert inserts the record or, when the fingerprint already exists, updates
// every non-key column. Re-uploading identical content therefore refreshes
// name, url, path, size and time on the existing row.
func (idx *Index) Upsert(ctx context.Context, rec *models.FileRecord) error {
	if err := idx.ready(); err != nil {
		return err
	}
	err := idx.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sha1"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "name", "path", "size", "time"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Get returns the record for sha1, or ErrNotFound.
func (idx *Index) Get(ctx context.Context, sha1 string) (*models.FileRecord, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	var rec models.FileRecord
	err := idx.db.WithContext(ctx).First(&rec, "sha1 = ?", sha1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	return &rec, nil
}

// Delete removes the record for sha1. Deleting an unknown fingerprint is not
// an error. The blob on disk is deliberately left alone.
func (idx *Index) Delete(ctx context.Context, sha1 string) error {
	if err := idx.ready(); err != nil {
		return err
	}
	err := idx.db.WithContext(ctx).Delete(&models.FileRecord{}, "sha1 = ?", sha1).Error
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Catalog returns one entry per upload month, ascending by bucket name.
func (idx *Index) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	entries := []CatalogEntry{}
	err := idx.db.WithContext(ctx).
		Model(&models.FileRecord{}).
		Select("strftime('%Y%m', time/1000, 'unixepoch') AS name_, COUNT(*) AS count").
		Group("name_").
		Order("name_").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	return entries, nil
}

// ListMonth returns the records uploaded during the YYYYMM month, ascending
// by upload time.
func (idx *Index) ListMonth(ctx context.Context, month string) ([]models.FileRecord, error) {
	if err := idx.ready(); err != nil {
		return nil, err
	}
	from, err := time.ParseInLocation("200601", month, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	to := from.AddDate(0, 1, 0)

	records := []models.FileRecord{}
	err = idx.db.WithContext(ctx).
		Where("time >= ? AND time < ?", from.UnixMilli(), to.UnixMilli()).
		Order("time").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query month listing: %w", err)
	}
	return records, nil
}
