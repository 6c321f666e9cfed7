package pacing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/pkg/pacing"
)

type fixedRoller struct{ value int }

func (r fixedRoller) Roll(_ int) (int, error)       { return r.value, nil }
func (r fixedRoller) RollN(_, _ int) ([]int, error) { return []int{r.value}, nil }

type PacingTestSuite struct {
	suite.Suite
}

func TestPacingSuite(t *testing.T) {
	suite.Run(t, new(PacingTestSuite))
}

func (s *PacingTestSuite) TestDelayUsesRoll() {
	p := pacing.New(pacing.Config{
		Base:        time.Second,
		JitterStep:  100 * time.Millisecond,
		JitterSides: 6,
		Roller:      fixedRoller{value: 4},
	})
	s.Assert().Equal(1300*time.Millisecond, p.Delay())
}

func (s *PacingTestSuite) TestNoneNeverWaits() {
	p := pacing.None()
	s.Assert().Equal(time.Duration(0), p.Delay())
	s.Assert().True(p.Wait(context.Background(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Assert().False(p.Wait(ctx, nil))
}

func (s *PacingTestSuite) TestWaitInterruptedByStop() {
	p := pacing.New(pacing.Config{Base: time.Hour})
	stop := make(chan struct{})
	close(stop)

	start := time.Now()
	s.Assert().False(p.Wait(context.Background(), stop))
	s.Assert().Less(time.Since(start), time.Second)
}

func (s *PacingTestSuite) TestWaitElapses() {
	p := pacing.New(pacing.Config{Base: 5 * time.Millisecond})
	s.Assert().True(p.Wait(context.Background(), make(chan struct{})))
}
