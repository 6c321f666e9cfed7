package game_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/clients/game"
	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
)

// fixedRoller always rolls the same value
type fixedRoller struct {
	value int
}

func (r *fixedRoller) Roll(_ int) (int, error) { return r.value, nil }
func (r *fixedRoller) RollN(count, _ int) ([]int, error) {
	out := make([]int, count)
	for i := range out {
		out[i] = r.value
	}
	return out, nil
}

type SimulatorTestSuite struct {
	suite.Suite
	ctx    context.Context
	roller *fixedRoller
	sim    *game.Simulator
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (s *SimulatorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.roller = &fixedRoller{value: 20}
	s.sim = game.NewSimulator(&game.SimulatorConfig{
		Roller:          s.roller,
		AttemptsPerWeek: 3,
		TopFloor:        2,
		AttemptPrice:    1000,
	})
	s.sim.AddAccount(game.SimAccount{ID: "a1", Career: "武神", Score: 10000})
}

func (s *SimulatorTestSuite) TestUnknownAccount() {
	_, err := s.sim.Status(s.ctx, "nobody")
	s.Require().Error(err)
	s.Assert().True(errors.IsNotFound(err))
}

func (s *SimulatorTestSuite) TestClimbAndClear() {
	s.Require().NoError(s.sim.SwitchHall(s.ctx, "a1", hall.NameSanGuo))

	status, err := s.sim.Status(s.ctx, "a1")
	s.Require().NoError(err)
	s.Assert().Equal(hall.NameSanGuo, status.Hall)
	s.Assert().Equal(1, status.Floor)
	s.Assert().Equal("武神", status.Career)

	res, err := s.sim.ChallengeFloor(s.ctx, &game.ChallengeInput{AccountID: "a1", Hall: hall.NameSanGuo, Floor: 1})
	s.Require().NoError(err)
	s.Assert().True(res.Victory)
	s.Assert().False(res.HallCleared)

	res, err = s.sim.ChallengeFloor(s.ctx, &game.ChallengeInput{AccountID: "a1", Hall: hall.NameSanGuo, Floor: 2})
	s.Require().NoError(err)
	s.Assert().True(res.HallCleared)

	status, err = s.sim.Status(s.ctx, "a1")
	s.Require().NoError(err)
	s.Assert().Equal(2, status.AttemptsUsed)
	s.Assert().Equal(1, status.AttemptsRemaining())
}

func (s *SimulatorTestSuite) TestDefeatKillsCharacter() {
	s.roller.value = 1
	s.Require().NoError(s.sim.SwitchHall(s.ctx, "a1", hall.NameSanGuo))

	res, err := s.sim.ChallengeFloor(s.ctx, &game.ChallengeInput{AccountID: "a1", Hall: hall.NameSanGuo, Floor: 1, Target: hall.TargetNPCBattle})
	s.Require().NoError(err)
	s.Assert().False(res.Victory)

	_, err = s.sim.ChallengeFloor(s.ctx, &game.ChallengeInput{AccountID: "a1", Hall: hall.NameSanGuo, Floor: 1})
	s.Require().Error(err)
	s.Assert().True(errors.IsFailedPrecondition(err))

	s.Require().NoError(s.sim.Resurrect(s.ctx, "a1"))
	status, err := s.sim.Status(s.ctx, "a1")
	s.Require().NoError(err)
	s.Assert().False(status.Dead)
	s.Assert().Equal(1, status.Floor)
}

func (s *SimulatorTestSuite) TestAttemptsAndPurchase() {
	s.sim.AddAccount(game.SimAccount{ID: "a2", Score: 1500, AttemptsUsed: 3})
	s.Require().NoError(s.sim.SwitchHall(s.ctx, "a2", hall.NameWuLin))

	_, err := s.sim.ChallengeFloor(s.ctx, &game.ChallengeInput{AccountID: "a2", Hall: hall.NameWuLin, Floor: 1})
	s.Require().Error(err)
	s.Assert().True(errors.IsResourceExhausted(err))

	s.Require().NoError(s.sim.BuyAttempt(s.ctx, "a2"))
	status, err := s.sim.Status(s.ctx, "a2")
	s.Require().NoError(err)
	s.Assert().False(status.AttemptsExhausted())
	s.Assert().Equal(500, status.Score)

	err = s.sim.BuyAttempt(s.ctx, "a2")
	s.Require().Error(err)
	s.Assert().True(errors.IsResourceExhausted(err))
}

func (s *SimulatorTestSuite) TestBuyItem() {
	s.Require().NoError(s.sim.BuyItem(s.ctx, &game.BuyItemInput{AccountID: "a1", Item: game.ItemBlackIron, Quantity: 2}))
	s.Assert().Equal(2, s.sim.Items("a1", game.ItemBlackIron.Name))

	err := s.sim.BuyItem(s.ctx, &game.BuyItemInput{AccountID: "a1", Item: game.ItemInsight, Quantity: 100})
	s.Require().Error(err)
	s.Assert().True(errors.IsResourceExhausted(err))

	err = s.sim.BuyItem(s.ctx, &game.BuyItemInput{AccountID: "a1", Item: game.ItemInsight})
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *SimulatorTestSuite) TestHallProgressIsSavedPerHall() {
	s.Require().NoError(s.sim.SwitchHall(s.ctx, "a1", hall.NameLuanShi))
	_, err := s.sim.ChallengeFloor(s.ctx, &game.ChallengeInput{AccountID: "a1", Hall: hall.NameLuanShi, Floor: 1})
	s.Require().NoError(err)

	s.Require().NoError(s.sim.LeaveHall(s.ctx, "a1"))
	s.Require().NoError(s.sim.SwitchHall(s.ctx, "a1", hall.NameJueDai))
	status, err := s.sim.Status(s.ctx, "a1")
	s.Require().NoError(err)
	s.Assert().Equal(1, status.Floor)

	s.Require().NoError(s.sim.SwitchHall(s.ctx, "a1", hall.NameLuanShi))
	status, err = s.sim.Status(s.ctx, "a1")
	s.Require().NoError(err)
	s.Assert().Equal(2, status.Floor)
}

func (s *SimulatorTestSuite) TestEquipSkills() {
	s.Require().NoError(s.sim.EquipSkills(s.ctx, "a1", hall.SkillOverride{Primary: "力破千钧0天", Support: []string{"伏虎势"}}))
	s.Assert().Equal("力破千钧0天", s.sim.Skills("a1").Primary)

	err := s.sim.EquipSkills(s.ctx, "a1", hall.SkillOverride{})
	s.Assert().True(errors.IsInvalidArgument(err))
}
