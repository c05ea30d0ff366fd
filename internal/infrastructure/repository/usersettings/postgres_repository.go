package usersettings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "parlance/services/chat-api/internal/domain/usersettings"
	"parlance/services/chat-api/internal/infrastructure/database/entities"
	"parlance/services/chat-api/internal/infrastructure/metrics"
)

// Repository persists per-user settings.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a user settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ensure interface compliance.
var _ domain.Repository = (*Repository)(nil)

// Get returns the owner's settings, or nil when none are stored.
func (r *Repository) Get(ctx context.Context, ownerID string) (*domain.Settings, error) {
	defer observe("get_settings", time.Now())

	var entity entities.UserSettings
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entity.EtoD(), nil
}

// Upsert writes the settings, replacing the stored key set.
func (r *Repository) Upsert(ctx context.Context, settings *domain.Settings) error {
	defer observe("upsert_settings", time.Now())

	entity := entities.NewSchemaUserSettings(settings)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"api_keys", "updated_at"}),
		}).
		Create(entity).Error
}

func observe(queryType string, start time.Time) {
	metrics.RecordDBQuery(queryType, time.Since(start).Seconds())
}
