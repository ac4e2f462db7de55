package gorm

import "time"

// ManualFlight is the persisted row for one tracked manual flight. The full
// FlightRecord travels as an opaque JSON payload; the indexed columns exist
// for lookups and due-time scans only.
type ManualFlight struct {
	ID            uint   `gorm:"primaryKey"`
	FlightKey     string `gorm:"uniqueIndex;size:64"`
	AirlineCode   string `gorm:"size:8;index"`
	FlightNumber  string `gorm:"size:8"`
	DepartureDate string `gorm:"size:10"`
	Status        string `gorm:"size:16;index"`
	NextDueAt     *time.Time
	Payload       string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PreviewSlot holds the single staged add-flight preview. There is at most
// one row.
type PreviewSlot struct {
	ID        uint   `gorm:"primaryKey"`
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}

// UIInput keeps the last raw add-flight input so the UI can restore it.
// Pure convenience; the engine never reads it back.
type UIInput struct {
	ID        uint   `gorm:"primaryKey"`
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}
