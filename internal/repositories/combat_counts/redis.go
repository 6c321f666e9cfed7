package combatcounts

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/hall-runner/internal/redis"
)

const (
	// Key pattern: combat_counts:{week}:{account_id}
	countsKeyPrefix = "combat_counts:"
	// keep a week's record a little past the week itself
	countsTTL = 8 * 24 * time.Hour

	fieldCounts    = "counts"
	fieldUpdatedAt = "updated_at"

	errAccountIDEmpty = "account ID cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for weekly counts
func NewRedisRepository(cfg *Config) (Repository, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

var _ Repository = (*redisRepository)(nil)

// Get loads this week's count
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.AccountID == "" {
		return nil, errors.InvalidArgument(errAccountIDEmpty)
	}

	week := WeekOf(r.clock.Now())
	values, err := r.client.HGetAll(ctx, buildKey(week, input.AccountID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get combat counts from Redis")
	}
	if len(values) == 0 {
		return nil, errors.NotFoundf("no combat counts for account %s in %s", input.AccountID, week).
			WithMeta("account_id", input.AccountID).
			WithMeta("week", week)
	}

	used, total, err := ParseCounts(values[fieldCounts])
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt combat counts for account %s", input.AccountID)
	}

	count := &WeeklyCount{
		AccountID: input.AccountID,
		Week:      week,
		Used:      used,
		Total:     total,
	}
	if ts, err := strconv.ParseInt(values[fieldUpdatedAt], 10, 64); err == nil {
		count.UpdatedAt = time.Unix(ts, 0).UTC()
	}

	return &GetOutput{Count: count}, nil
}

// Record stores this week's count
func (r *redisRepository) Record(ctx context.Context, input RecordInput) (*RecordOutput, error) {
	if input.AccountID == "" {
		return nil, errors.InvalidArgument(errAccountIDEmpty)
	}
	if input.Used < 0 || input.Total < 0 {
		return nil, errors.InvalidArgumentf("invalid counts %d/%d", input.Used, input.Total)
	}

	now := r.clock.Now()
	week := WeekOf(now)
	key := buildKey(week, input.AccountID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldCounts, FormatCounts(input.Used, input.Total),
		fieldUpdatedAt, strconv.FormatInt(now.Unix(), 10),
	)
	pipe.Expire(ctx, key, countsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to store combat counts in Redis")
	}

	return &RecordOutput{Count: &WeeklyCount{
		AccountID: input.AccountID,
		Week:      week,
		Used:      input.Used,
		Total:     input.Total,
		UpdatedAt: now.UTC().Truncate(time.Second),
	}}, nil
}

// Reset clears this week's count
func (r *redisRepository) Reset(ctx context.Context, input ResetInput) (*ResetOutput, error) {
	if input.AccountID == "" {
		return nil, errors.InvalidArgument(errAccountIDEmpty)
	}

	key := buildKey(WeekOf(r.clock.Now()), input.AccountID)
	if err := r.client.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to reset combat counts in Redis")
	}
	return &ResetOutput{}, nil
}

// WeekOf returns the ISO week label of t
func WeekOf(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// FormatCounts renders counts in the "used/total" form the UI shows
func FormatCounts(used, total int) string {
	return fmt.Sprintf("%d/%d", used, total)
}

// ParseCounts reads the "used/total" form
func ParseCounts(s string) (used, total int, err error) {
	u, t, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, errors.InvalidArgumentf("counts %q are not in used/total form", s)
	}
	if used, err = strconv.Atoi(strings.TrimSpace(u)); err != nil {
		return 0, 0, errors.InvalidArgumentf("invalid used count %q", u)
	}
	if total, err = strconv.Atoi(strings.TrimSpace(t)); err != nil {
		return 0, 0, errors.InvalidArgumentf("invalid total count %q", t)
	}
	return used, total, nil
}

func buildKey(week, accountID string) string {
	return countsKeyPrefix + week + ":" + accountID
}
