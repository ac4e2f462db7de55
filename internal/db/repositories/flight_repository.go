package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skydeck/flightdeck/internal/models"
	gormModels "skydeck/flightdeck/internal/models/gorm"
)

// FlightRepository persists manual flight records. Each record is written as
// one atomic row replace, so readers never observe a half-merged record.
type FlightRepository struct {
	db *gorm.DB
}

// NewFlightRepository creates a new GORM-based flight repository
func NewFlightRepository(db *gorm.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// GetAll returns every stored manual flight. A row whose payload fails to
// decode is skipped and logged instead of failing the whole load; flights can
// always be re-added.
func (r *FlightRepository) GetAll(ctx context.Context) ([]*models.FlightRecord, error) {
	var rows []gormModels.ManualFlight
	if err := r.db.WithContext(ctx).Order("departure_date, flight_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch manual flights: %w", err)
	}

	records := make([]*models.FlightRecord, 0, len(rows))
	for _, row := range rows {
		var rec models.FlightRecord
		if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
			log.Printf("[FlightRepository] Skipping corrupt record %s: %v", row.FlightKey, err)
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}

// GetByKey fetches one flight by its canonical key. Returns nil when absent.
func (r *FlightRepository) GetByKey(ctx context.Context, key string) (*models.FlightRecord, error) {
	var row gormModels.ManualFlight
	err := r.db.WithContext(ctx).Where("flight_key = ?", key).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch flight %s: %w", key, err)
	}

	var rec models.FlightRecord
	if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
		// Corrupt row: drop it rather than propagate; caller sees a miss.
		log.Printf("[FlightRepository] Dropping corrupt record %s: %v", key, err)
		r.db.WithContext(ctx).Where("flight_key = ?", key).Delete(&gormModels.ManualFlight{})
		return nil, nil
	}
	return &rec, nil
}

// Upsert stores a record, replacing any existing row with the same key.
// Confirm/add on a duplicate key replaces, never duplicates.
func (r *FlightRepository) Upsert(ctx context.Context, rec *models.FlightRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize flight %s: %w", rec.Key.String(), err)
	}

	row := gormModels.ManualFlight{
		FlightKey:     rec.Key.String(),
		AirlineCode:   rec.Key.AirlineCode,
		FlightNumber:  rec.Key.FlightNumber,
		DepartureDate: rec.Key.DepartureDate,
		Status:        string(rec.Status),
		NextDueAt:     rec.NextDueAt,
		Payload:       string(payload),
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "flight_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"airline_code", "flight_number", "departure_date",
			"status", "next_due_at", "payload", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert flight %s: %w", rec.Key.String(), err)
	}
	return nil
}

// Delete removes one flight by key. Returns whether a row existed.
func (r *FlightRepository) Delete(ctx context.Context, key string) (bool, error) {
	res := r.db.WithContext(ctx).Where("flight_key = ?", key).Delete(&gormModels.ManualFlight{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete flight %s: %w", key, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteAll clears the store and returns the number of removed flights.
func (r *FlightRepository) DeleteAll(ctx context.Context) (int, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&gormModels.ManualFlight{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear manual flights: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Count returns the number of tracked flights.
func (r *FlightRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&gormModels.ManualFlight{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count manual flights: %w", err)
	}
	return n, nil
}

// GetDue returns flights whose next_due_at is unset or at/before now.
// Terminal flights are excluded; they are refresh-inert.
func (r *FlightRepository) GetDue(ctx context.Context, now time.Time) ([]*models.FlightRecord, error) {
	var rows []gormModels.ManualFlight
	err := r.db.WithContext(ctx).
		Where("(next_due_at IS NULL OR next_due_at <= ?) AND status NOT IN ?",
			now, []string{
				string(models.StatusLanded),
				string(models.StatusCancelled),
				string(models.StatusDiverted),
			}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due flights: %w", err)
	}

	records := make([]*models.FlightRecord, 0, len(rows))
	for _, row := range rows {
		var rec models.FlightRecord
		if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
			log.Printf("[FlightRepository] Skipping corrupt record %s: %v", row.FlightKey, err)
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}
