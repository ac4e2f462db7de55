package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skydeck/flightdeck/internal/models"
	gormModels "skydeck/flightdeck/internal/models/gorm"
)

// previewSlotID pins the staged preview to a single row.
const previewSlotID = 1

// PreviewRepository persists the single staged add-flight preview and the
// last raw UI input.
type PreviewRepository struct {
	db *gorm.DB
}

// NewPreviewRepository creates a new GORM-based preview repository
func NewPreviewRepository(db *gorm.DB) *PreviewRepository {
	return &PreviewRepository{db: db}
}

// Load returns the persisted preview, or nil when none is staged. A corrupt
// payload is treated as empty rather than fatal.
func (r *PreviewRepository) Load(ctx context.Context) (*models.PreviewState, error) {
	var row gormModels.PreviewSlot
	err := r.db.WithContext(ctx).Where("id = ?", previewSlotID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load preview: %w", err)
	}

	var state models.PreviewState
	if err := json.Unmarshal([]byte(row.Payload), &state); err != nil {
		log.Printf("[PreviewRepository] Dropping corrupt preview: %v", err)
		r.db.WithContext(ctx).Where("id = ?", previewSlotID).Delete(&gormModels.PreviewSlot{})
		return nil, nil
	}
	return &state, nil
}

// Save replaces the staged preview.
func (r *PreviewRepository) Save(ctx context.Context, state *models.PreviewState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize preview: %w", err)
	}

	row := gormModels.PreviewSlot{ID: previewSlotID, Payload: string(payload)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}

// Clear removes any staged preview.
func (r *PreviewRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("id = ?", previewSlotID).Delete(&gormModels.PreviewSlot{}).Error; err != nil {
		return fmt.Errorf("failed to clear preview: %w", err)
	}
	return nil
}

// SaveLastInput keeps the most recent raw add-flight input for UI restore.
func (r *PreviewRepository) SaveLastInput(ctx context.Context, input *models.PreviewInput) error {
	payload, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to serialize input: %w", err)
	}

	row := gormModels.UIInput{ID: previewSlotID, Payload: string(payload)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save last input: %w", err)
	}
	return nil
}
