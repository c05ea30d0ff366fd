package usersettings

import (
	"context"
	"time"
)

// Known per-provider API key names. These mirror the provider registry's
// credential key names.
const (
	KeyGemini    = "gemini"
	KeyOpenAI    = "openai"
	KeyAnthropic = "claude"
	KeyGrok      = "grok"
)

func ValidateKeyName(input string) bool {
	switch input {
	case KeyGemini, KeyOpenAI, KeyAnthropic, KeyGrok:
		return true
	default:
		return false
	}
}

// Settings holds a principal's provider API key overrides.
type Settings struct {
	OwnerID   string            `json:"owner_id"`
	APIKeys   map[string]string `json:"api_keys"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Repository persists per-user settings.
type Repository interface {
	// Get returns the owner's settings, or nil when none are stored.
	Get(ctx context.Context, ownerID string) (*Settings, error)
	Upsert(ctx context.Context, settings *Settings) error
}

// Service exposes settings reads and key updates and doubles as the
// registry's per-user credential source.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the owner's settings, defaulting to an empty key set.
func (s *Service) Get(ctx context.Context, ownerID string) (*Settings, error) {
	settings, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &Settings{OwnerID: ownerID, APIKeys: map[string]string{}}
	}
	if settings.APIKeys == nil {
		settings.APIKeys = map[string]string{}
	}
	return settings, nil
}

// SetAPIKeys replaces the stored key set. An empty value removes a key.
func (s *Service) SetAPIKeys(ctx context.Context, ownerID string, keys map[string]string) (*Settings, error) {
	settings, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for name, value := range keys {
		if !ValidateKeyName(name) {
			continue
		}
		if value == "" {
			delete(settings.APIKeys, name)
			continue
		}
		settings.APIKeys[name] = value
	}
	settings.UpdatedAt = time.Now()
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// APIKey implements provider.CredentialSource: the per-user override for
// one provider, empty when unset.
func (s *Service) APIKey(ctx context.Context, ownerID, keyName string) (string, error) {
	settings, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if settings == nil {
		return "", nil
	}
	return settings.APIKeys[keyName], nil
}
