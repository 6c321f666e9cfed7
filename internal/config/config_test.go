package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/config"
	"github.com/KirkDiggler/hall-runner/internal/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := config.Load()
	s.Require().NoError(err)

	s.Assert().Equal(8080, cfg.HTTPPort)
	s.Assert().Equal(50051, cfg.GRPCPort)
	s.Assert().Equal([]string{"localhost:6379"}, cfg.RedisEndpoints)
	s.Assert().Equal(8, cfg.WorkerPoolSize)
	s.Assert().Equal(30*time.Second, cfg.StopWait)
	s.Assert().Equal(15*time.Second, cfg.Heartbeat)
	s.Assert().Equal(3, cfg.MaxResurrections)
	s.Assert().Equal(10, cfg.RepairEvery)
	s.Assert().Equal(config.LogFormatText, cfg.LogFormat)
	s.Assert().Empty(cfg.OTELEndpoint)
}

func (s *ConfigTestSuite) TestOverrides() {
	s.T().Setenv("HALL_HTTP_PORT", "9090")
	s.T().Setenv("HALL_REDIS_ENDPOINTS", "r1:6379,r2:6379,r3:6379")
	s.T().Setenv("HALL_WORKER_POOL_SIZE", "2")
	s.T().Setenv("HALL_STOP_WAIT", "5s")
	s.T().Setenv("HALL_SIM_ACCOUNTS", "a1:武神,a2:天师")
	s.T().Setenv("HALL_LOG_FORMAT", "json")

	cfg, err := config.Load()
	s.Require().NoError(err)

	s.Assert().Equal(9090, cfg.HTTPPort)
	s.Assert().Len(cfg.RedisEndpoints, 3)
	s.Assert().Equal(2, cfg.WorkerPoolSize)
	s.Assert().Equal(5*time.Second, cfg.StopWait)
	s.Assert().Equal([]string{"a1:武神", "a2:天师"}, cfg.SimAccounts)
	s.Assert().Equal(config.LogFormatJSON, cfg.LogFormat)
}

func (s *ConfigTestSuite) TestInvalidValues() {
	s.T().Setenv("HALL_WORKER_POOL_SIZE", "0")
	s.T().Setenv("HALL_LOG_FORMAT", "xml")

	_, err := config.Load()
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))
	s.Assert().Contains(err.Error(), "WorkerPoolSize")
	s.Assert().Contains(err.Error(), "LogFormat")
}

func (s *ConfigTestSuite) TestUnparsableValue() {
	s.T().Setenv("HALL_HTTP_PORT", "eighty")

	_, err := config.Load()
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *ConfigTestSuite) TestBadSimAccount() {
	s.T().Setenv("HALL_SIM_ACCOUNTS", "a1")

	_, err := config.Load()
	s.Require().Error(err)
	s.Assert().Contains(err.Error(), "SimAccounts")
}

func (s *ConfigTestSuite) TestSplitSimAccount() {
	id, career, ok := config.SplitSimAccount(" a1:武神 ")
	s.Assert().True(ok)
	s.Assert().Equal("a1", id)
	s.Assert().Equal("武神", career)

	_, _, ok = config.SplitSimAccount("a1:")
	s.Assert().False(ok)
}
