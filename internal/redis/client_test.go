package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/redis"
)

type ClientTestSuite struct {
	suite.Suite
	mr *miniredis.Miniredis
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
}

func (s *ClientTestSuite) TestNewClientRequiresEndpoint() {
	_, err := redis.NewClient("", nil)
	s.Assert().Error(err)
}

func (s *ClientTestSuite) TestConnectSingleNode() {
	client, err := redis.Connect(context.Background(), []string{s.mr.Addr()}, &redis.Options{PoolSize: 2})
	s.Require().NoError(err)
	defer func() { _ = client.Close() }()

	s.Require().NoError(client.Set(context.Background(), "k", "v", 0).Err())
	got, err := s.mr.Get("k")
	s.Require().NoError(err)
	s.Assert().Equal("v", got)
}

func (s *ClientTestSuite) TestConnectNoEndpoints() {
	_, err := redis.Connect(context.Background(), nil, nil)
	s.Assert().Error(err)
}

func (s *ClientTestSuite) TestConnectUnreachable() {
	addr := s.mr.Addr()
	s.mr.Close()

	_, err := redis.Connect(context.Background(), []string{addr}, &redis.Options{MaxRetries: -1})
	s.Assert().Error(err)
}
