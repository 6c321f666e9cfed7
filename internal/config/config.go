// Package config loads server settings from HALL_ prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/hall-runner/internal/errors"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the full server configuration
type Config struct {
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`
	GRPCPort int `env:"GRPC_PORT" envDefault:"50051"`

	// RedisEndpoints with more than one entry selects cluster mode
	RedisEndpoints []string      `env:"REDIS_ENDPOINTS" envDefault:"localhost:6379" envSeparator:","`
	RedisPoolSize  int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisTLS       bool          `env:"REDIS_TLS"`
	HistoryPath    string        `env:"HISTORY_PATH" envDefault:"hall-history.db"`
	WorkerPoolSize int           `env:"WORKER_POOL_SIZE" envDefault:"8"`
	StopWait       time.Duration `env:"STOP_WAIT" envDefault:"30s"`
	Heartbeat      time.Duration `env:"HEARTBEAT" envDefault:"15s"`

	PaceBase        time.Duration `env:"PACE_BASE" envDefault:"500ms"`
	PaceJitterStep  time.Duration `env:"PACE_JITTER_STEP" envDefault:"100ms"`
	PaceJitterSides int           `env:"PACE_JITTER_SIDES" envDefault:"6"`

	MaxResurrections int `env:"MAX_RESURRECTIONS" envDefault:"3"`
	RepairEvery      int `env:"REPAIR_EVERY" envDefault:"10"`

	// SkillBookPath overrides the embedded skill book with a YAML file
	SkillBookPath string `env:"SKILL_BOOK_PATH"`

	// SimAccounts seeds the simulated game as id:career pairs
	SimAccounts []string `env:"SIM_ACCOUNTS" envSeparator:","`
	SimTopFloor int      `env:"SIM_TOP_FLOOR" envDefault:"50"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment into a validated Config
func Load() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "HALL_"})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and formats
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidatePort("HTTPPort", c.HTTPPort, false, vb)
	errors.ValidatePort("GRPCPort", c.GRPCPort, true, vb)
	if len(c.RedisEndpoints) == 0 {
		vb.RequiredField("RedisEndpoints")
	}
	errors.ValidateRequired("HistoryPath", c.HistoryPath, vb)
	errors.ValidateMin("WorkerPoolSize", c.WorkerPoolSize, 1, vb)
	errors.ValidateMin("PaceJitterSides", c.PaceJitterSides, 0, vb)
	errors.ValidateMin("MaxResurrections", c.MaxResurrections, 0, vb)
	errors.ValidateMin("RepairEvery", c.RepairEvery, 0, vb)
	for _, acct := range c.SimAccounts {
		if _, _, ok := SplitSimAccount(acct); !ok {
			vb.Field("SimAccounts", "entries must be id:career")
			break
		}
	}
	errors.ValidateEnum("LogFormat", c.LogFormat, []string{LogFormatText, LogFormatJSON}, vb)
	return vb.Build()
}

// SplitSimAccount splits an id:career entry
func SplitSimAccount(entry string) (id, career string, ok bool) {
	id, career, ok = strings.Cut(strings.TrimSpace(entry), ":")
	if !ok || id == "" || career == "" {
		return "", "", false
	}
	return id, career, true
}
