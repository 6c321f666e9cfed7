package combatcounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/hall-runner/internal/redis"
	combatcounts "github.com/KirkDiggler/hall-runner/internal/repositories/combat_counts"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	clock *clock.Manual
	repo  combatcounts.Repository
	ctx   context.Context
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.ctx = context.Background()
	// Monday of ISO week 10
	s.clock = clock.NewManual(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	client, err := redisclient.NewClient(s.mr.Addr(), nil)
	s.Require().NoError(err)

	repo, err := combatcounts.NewRedisRepository(&combatcounts.Config{Client: client, Clock: s.clock})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RedisRepositoryTestSuite) TestNewRedisRepositoryValidates() {
	_, err := combatcounts.NewRedisRepository(&combatcounts.Config{})
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *RedisRepositoryTestSuite) TestRecordAndGet() {
	out, err := s.repo.Record(s.ctx, combatcounts.RecordInput{AccountID: "a1", Used: 20, Total: 20})
	s.Require().NoError(err)
	s.Assert().Equal("2026-W10", out.Count.Week)
	s.Assert().True(out.Count.QuotaReached())

	s.Assert().Equal("20/20", s.mr.HGet("combat_counts:2026-W10:a1", "counts"))
	s.Assert().Greater(s.mr.TTL("combat_counts:2026-W10:a1"), 7*24*time.Hour)

	got, err := s.repo.Get(s.ctx, combatcounts.GetInput{AccountID: "a1"})
	s.Require().NoError(err)
	s.Assert().Equal(20, got.Count.Used)
	s.Assert().Equal(20, got.Count.Total)
	s.Assert().Equal(s.clock.Now(), got.Count.UpdatedAt)
}

func (s *RedisRepositoryTestSuite) TestNewWeekStartsEmpty() {
	_, err := s.repo.Record(s.ctx, combatcounts.RecordInput{AccountID: "a1", Used: 5, Total: 20})
	s.Require().NoError(err)

	s.clock.Advance(7 * 24 * time.Hour)
	_, err = s.repo.Get(s.ctx, combatcounts.GetInput{AccountID: "a1"})
	s.Require().Error(err)
	s.Assert().True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestReset() {
	_, err := s.repo.Record(s.ctx, combatcounts.RecordInput{AccountID: "a1", Used: 5, Total: 20})
	s.Require().NoError(err)

	_, err = s.repo.Reset(s.ctx, combatcounts.ResetInput{AccountID: "a1"})
	s.Require().NoError(err)

	_, err = s.repo.Get(s.ctx, combatcounts.GetInput{AccountID: "a1"})
	s.Assert().True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestQuotaReached() {
	testCases := []struct {
		used, total int
		reached     bool
	}{
		{0, 0, false},
		{5, 20, false},
		{20, 20, true},
		{21, 20, true},
	}
	for _, tc := range testCases {
		c := &combatcounts.WeeklyCount{Used: tc.used, Total: tc.total}
		s.Assert().Equal(tc.reached, c.QuotaReached(), combatcounts.FormatCounts(tc.used, tc.total))
	}
}

func (s *RedisRepositoryTestSuite) TestParseCounts() {
	used, total, err := combatcounts.ParseCounts(" 3 / 20 ")
	s.Require().NoError(err)
	s.Assert().Equal(3, used)
	s.Assert().Equal(20, total)

	_, _, err = combatcounts.ParseCounts("3-20")
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *RedisRepositoryTestSuite) TestInputValidation() {
	_, err := s.repo.Record(s.ctx, combatcounts.RecordInput{AccountID: "a1", Used: -1})
	s.Assert().True(errors.IsInvalidArgument(err))

	_, err = s.repo.Get(s.ctx, combatcounts.GetInput{})
	s.Assert().True(errors.IsInvalidArgument(err))
}
