package db

import "time"

// Tables below belong to the surrounding application. The matching engine only
// reads them through the catalog package.

// Profile holds the public fields shown next to a match or candidate.
type Profile struct {
	UserID    string    `gorm:"size:36;primaryKey"`
	Name      string    `gorm:"size:128;not null"`
	AvatarURL string    `gorm:"size:512"`
	Bio       string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Event struct {
	ID         string    `gorm:"size:36;primaryKey"`
	Title      string    `gorm:"size:255;not null"`
	ArtistName string    `gorm:"size:255"`
	VenueName  string    `gorm:"size:255"`
	StartsAt   time.Time `gorm:"index"`
}

// EventInterest marks a user as interested in attending an event.
// Composite PK: (EventID, UserID)
type EventInterest struct {
	EventID   string    `gorm:"size:36;primaryKey"`
	UserID    string    `gorm:"size:36;primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type SignalKind string

const (
	SignalArtist SignalKind = "artist"
	SignalGenre  SignalKind = "genre"
)

// PreferenceSignal is a weighted artist or genre taste entry.
type PreferenceSignal struct {
	ID     uint64     `gorm:"primaryKey;autoIncrement"`
	UserID string     `gorm:"size:36;not null;index"`
	Kind   SignalKind `gorm:"size:16;not null"`
	Value  string     `gorm:"size:255;not null"`
	Weight float64    `gorm:"not null;default:1"`
}

// UserBlock records that BlockedByUserID blocked UserID.
// Composite PK: (UserID, BlockedByUserID)
type UserBlock struct {
	UserID          string    `gorm:"size:36;primaryKey"`
	BlockedByUserID string    `gorm:"size:36;primaryKey"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

// CatalogModels are the collaborator tables the engine reads from.
func CatalogModels() []any {
	return []any{
		&Profile{}, &Event{}, &EventInterest{}, &PreferenceSignal{}, &UserBlock{},
	}
}

// AllModels returns every table the service migrates.
func AllModels() []any {
	return append(CoreModels(), CatalogModels()...)
}
