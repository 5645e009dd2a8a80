package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces the per-session settings keys in Redis.
const sessionKeyPrefix = "settings:session:"

// sessionTTL is how long stored session overrides live without being
// rewritten. Every update refreshes the TTL.
const sessionTTL = 720 * time.Hour // 30 days

// SettingsRepository defines the storage contract for per-session settings
// overrides. Redis specifics stay in the concrete implementation.
type SettingsRepository interface {
	// Get returns the stored settings for a session, or (nil, nil) when the
	// session has no stored overrides.
	Get(ctx context.Context, sessionID string) (*storedSettings, error)

	// Save overwrites the stored settings for a session and refreshes the TTL.
	Save(ctx context.Context, sessionID string, row *storedSettings) error

	// Delete removes the stored settings for a session. Deleting a session
	// that has no settings is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// settingsRepository implements SettingsRepository with Redis.
type settingsRepository struct {
	rdb *redis.Client
}

// NewSettingsRepository creates a new settings repository backed by Redis.
func NewSettingsRepository(rdb *redis.Client) SettingsRepository {
	return &settingsRepository{rdb: rdb}
}

// Get retrieves and decodes the stored settings for a session.
func (r *settingsRepository) Get(ctx context.Context, sessionID string) (*storedSettings, error) {
	raw, err := r.rdb.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session settings: %w", err)
	}

	row := &storedSettings{}
	if err := json.Unmarshal([]byte(raw), row); err != nil {
		return nil, fmt.Errorf("decoding session settings: %w", err)
	}
	return row, nil
}

// Save serializes and stores the settings for a session.
func (r *settingsRepository) Save(ctx context.Context, sessionID string, row *storedSettings) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding session settings: %w", err)
	}

	if err := r.rdb.Set(ctx, sessionKeyPrefix+sessionID, payload, sessionTTL).Err(); err != nil {
		return fmt.Errorf("writing session settings: %w", err)
	}
	return nil
}

// Delete removes the stored settings for a session.
func (r *settingsRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("deleting session settings: %w", err)
	}
	return nil
}
