package model

import "time"

// SyncCursor holds the high-water mark of one stream as an RFC 3339 string.
type SyncCursor struct {
	Stream    string    `gorm:"primaryKey;size:64" json:"stream"`
	Mark      string    `gorm:"size:64;not null" json:"mark"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting is a row of the application's key-value settings store.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
