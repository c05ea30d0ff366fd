package entities

import (
	"time"

	"parlance/services/chat-api/internal/domain/usersettings"
)

// UserSettings represents the database schema for per-user settings
type UserSettings struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OwnerID string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	APIKeys JSONMap `gorm:"type:jsonb"`
}

// TableName specifies the table name for UserSettings.
func (UserSettings) TableName() string {
	return "user_settings"
}

// EtoD converts database entity to domain model
func (s *UserSettings) EtoD() *usersettings.Settings {
	keys := make(map[string]string, len(s.APIKeys))
	for name, value := range s.APIKeys {
		keys[name] = value
	}
	return &usersettings.Settings{
		OwnerID:   s.OwnerID,
		APIKeys:   keys,
		UpdatedAt: s.UpdatedAt,
	}
}

// NewSchemaUserSettings creates a database entity from domain model
func NewSchemaUserSettings(s *usersettings.Settings) *UserSettings {
	return &UserSettings{
		OwnerID: s.OwnerID,
		APIKeys: JSONMap(s.APIKeys),
	}
}
