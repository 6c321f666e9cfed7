package hallsettings

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	redisclient "github.com/KirkDiggler/hall-runner/internal/redis"
)

const (
	// Key pattern: hall_settings:{account_id}
	settingsKeyPrefix = "hall_settings:"

	errAccountIDEmpty = "account ID cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
}

// NewRedisRepository creates a new Redis repository for hall settings
func NewRedisRepository(cfg *Config) (Repository, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{client: cfg.Client}, nil
}

var _ Repository = (*redisRepository)(nil)

// Get loads an account's settings
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.AccountID == "" {
		return nil, errors.InvalidArgument(errAccountIDEmpty)
	}

	data, err := r.client.Get(ctx, buildKey(input.AccountID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("hall settings for account %s not found", input.AccountID).
				WithMeta("account_id", input.AccountID)
		}
		return nil, errors.Wrapf(err, "failed to get hall settings from Redis")
	}

	var settings hall.AccountSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal hall settings")
	}

	return &GetOutput{Settings: &settings}, nil
}

// Save replaces an account's settings
func (r *redisRepository) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if input.AccountID == "" {
		return nil, errors.InvalidArgument(errAccountIDEmpty)
	}
	if input.Settings == nil {
		return nil, errors.InvalidArgument("settings cannot be nil")
	}

	data, err := json.Marshal(input.Settings)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal hall settings")
	}

	if err := r.client.Set(ctx, buildKey(input.AccountID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to store hall settings in Redis")
	}

	return &SaveOutput{}, nil
}

// Delete removes an account's settings
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.AccountID == "" {
		return nil, errors.InvalidArgument(errAccountIDEmpty)
	}

	if err := r.client.Del(ctx, buildKey(input.AccountID)).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to delete hall settings from Redis")
	}
	return &DeleteOutput{}, nil
}

func buildKey(accountID string) string {
	return settingsKeyPrefix + accountID
}
