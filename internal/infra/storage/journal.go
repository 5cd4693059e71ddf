package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"market_go/internal/domain"
	"market_go/internal/event"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Journal is the persistent, append-only record of marketplace activity:
// every domain event, plus collection metadata. External observers can
// reconstruct engine state from the event log alone.
type Journal struct {
	db *gorm.DB
}

// NewJournal opens (or creates) the journal database at path.
func NewJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.AutoMigrate(&domain.EventRecord{}, &domain.CollectionInfo{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	return &Journal{db: db}, nil
}

// Emit appends ev to the journal. Journal satisfies event.Sink; emission
// happens inside the engine's transaction, so a write failure is logged
// loudly rather than failing the already-settled operation.
func (j *Journal) Emit(ev event.Event) {
	if err := j.Append(ev); err != nil {
		slog.Error("JOURNAL_APPEND_FAILED",
			slog.String("kind", ev.GetKind().String()),
			slog.Any("error", err))
	}
}

// Append persists one event.
func (j *Journal) Append(ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	rec := domain.EventRecord{
		Kind:    ev.GetKind().String(),
		Ts:      ev.GetTs(),
		Payload: payload,
	}
	return j.db.Create(&rec).Error
}

// Recent returns the latest n events, newest first.
func (j *Journal) Recent(n int) ([]domain.EventRecord, error) {
	var recs []domain.EventRecord
	err := j.db.Order("id desc").Limit(n).Find(&recs).Error
	return recs, err
}

// EventsSince returns all events with id > afterID, oldest first, for
// observers replaying the log.
func (j *Journal) EventsSince(afterID uint) ([]domain.EventRecord, error) {
	var recs []domain.EventRecord
	err := j.db.Where("id > ?", afterID).Order("id asc").Find(&recs).Error
	return recs, err
}

// UpsertCollection creates or updates collection metadata.
func (j *Journal) UpsertCollection(info *domain.CollectionInfo) error {
	info.UpdatedAt = time.Now()
	return j.db.Save(info).Error
}

// GetCollection retrieves collection metadata by registry id.
func (j *Journal) GetCollection(registry string) (*domain.CollectionInfo, error) {
	var info domain.CollectionInfo
	err := j.db.First(&info, "registry = ?", registry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &info, err
}

// AllCollections retrieves every known collection.
func (j *Journal) AllCollections() ([]domain.CollectionInfo, error) {
	var infos []domain.CollectionInfo
	err := j.db.Find(&infos).Error
	return infos, err
}
