package domain

import (
	"time"
)

// CollectionInfo represents metadata for an asset collection (registry)
type CollectionInfo struct {
	Registry     string    `gorm:"primaryKey" json:"registry"`
	Name         string    `json:"name"`
	ThumbPath    string    `json:"thumb_path"`
	IsVerified   bool      `json:"is_verified" gorm:"index"` // Passed the asset-interface guard
	LastSyncedAt time.Time `json:"last_synced_at"`           // Last thumbnail sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EventRecord is the persisted form of one domain event (append-only journal).
type EventRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      string `gorm:"index" json:"kind"`
	Ts        int64  `gorm:"index" json:"ts"`
	Payload   []byte `json:"payload"`
	CreatedAt time.Time
}
