package provider

import (
	"context"
	"fmt"
)

// ===============================================
// Model Identifiers
// ===============================================

// ModelID is a symbolic model identifier selectable by the user.
type ModelID string

const (
	ModelGeminiFlash ModelID = "gemini-1.5-flash"
	ModelGPT4o       ModelID = "gpt-4o"
	ModelClaudeOpus  ModelID = "claude-3-opus"
	ModelGrok        ModelID = "grok-1"
)

// DefaultModel is selected at session start.
const DefaultModel = ModelGeminiFlash

func ValidateModelID(input string) bool {
	switch ModelID(input) {
	case ModelGeminiFlash, ModelGPT4o, ModelClaudeOpus, ModelGrok:
		return true
	default:
		return false
	}
}

// ModelIDs lists the fixed enumeration of known models.
func ModelIDs() []ModelID {
	return []ModelID{ModelGeminiFlash, ModelGPT4o, ModelClaudeOpus, ModelGrok}
}

// ===============================================
// Registry
// ===============================================

// CredentialSource yields a principal's override API key for a provider,
// empty when the user has not configured one.
type CredentialSource interface {
	APIKey(ctx context.Context, ownerID, keyName string) (string, error)
}

// Entry binds a model identifier to its adapter and credentials.
type Entry struct {
	Adapter Adapter
	// KeyName is the per-user settings key holding the override
	// credential (e.g. "gemini", "openai").
	KeyName string
	// DefaultKey is the deployment-wide credential used when the user
	// has no override.
	DefaultKey string
	// Variant is the backend wire-level model name invoked for this ID.
	Variant string
}

// Resolution is the outcome of a successful registry lookup.
type Resolution struct {
	Adapter    Adapter
	Credential string
	Variant    string
}

// Registry maps model identifiers to adapters and credentials. The set of
// providers is fixed at construction; adding one means adding an adapter
// and an entry, never dynamic loading.
type Registry struct {
	entries  map[ModelID]Entry
	userKeys CredentialSource
}

// NewRegistry builds a registry over the given per-user credential source.
func NewRegistry(userKeys CredentialSource) *Registry {
	return &Registry{
		entries:  make(map[ModelID]Entry),
		userKeys: userKeys,
	}
}

// Register installs the entry for a model identifier.
func (r *Registry) Register(id ModelID, entry Entry) {
	r.entries[id] = entry
}

// Resolve returns the adapter and credential for the model. It fails fast
// with an auth-classified error when no credential exists, before any
// network activity.
func (r *Registry) Resolve(ctx context.Context, ownerID string, id ModelID) (Resolution, error) {
	entry, ok := r.entries[id]
	if !ok {
		return Resolution{}, NewGenericError(string(id), fmt.Sprintf("model %s is not supported", id), 0, nil)
	}

	credential, err := r.credential(ctx, ownerID, entry)
	if err != nil {
		return Resolution{}, err
	}
	if credential == "" {
		return Resolution{}, NewAuthError(entry.Adapter.Name(),
			fmt.Sprintf("%s API key not found. Please add it in settings.", entry.Adapter.Name()), nil)
	}

	return Resolution{Adapter: entry.Adapter, Credential: credential, Variant: entry.Variant}, nil
}

// IsConfigured reports whether a usable credential exists for the model.
func (r *Registry) IsConfigured(ctx context.Context, ownerID string, id ModelID) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	credential, err := r.credential(ctx, ownerID, entry)
	return err == nil && credential != ""
}

// credential applies the precedence order: per-user override first, then
// the deployment default.
func (r *Registry) credential(ctx context.Context, ownerID string, entry Entry) (string, error) {
	if r.userKeys != nil && ownerID != "" {
		key, err := r.userKeys.APIKey(ctx, ownerID, entry.KeyName)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	return entry.DefaultKey, nil
}
