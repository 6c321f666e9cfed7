package challenge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/hall-runner/internal/clients/game"
	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	"github.com/KirkDiggler/hall-runner/internal/pkg/idgen"
	combatcounts "github.com/KirkDiggler/hall-runner/internal/repositories/combat_counts"
	combatcountsmock "github.com/KirkDiggler/hall-runner/internal/repositories/combat_counts/mock"
	hallsettings "github.com/KirkDiggler/hall-runner/internal/repositories/hall_settings"
	hallsettingsmock "github.com/KirkDiggler/hall-runner/internal/repositories/hall_settings/mock"
	runhistory "github.com/KirkDiggler/hall-runner/internal/repositories/run_history"
	runhistorymock "github.com/KirkDiggler/hall-runner/internal/repositories/run_history/mock"
	"github.com/KirkDiggler/hall-runner/internal/services/progress"
	"github.com/KirkDiggler/hall-runner/internal/services/runguard"
	"github.com/KirkDiggler/hall-runner/internal/testutils"
)

// StorageTestSuite covers how the orchestrator reacts to its stores
type StorageTestSuite struct {
	suite.Suite
	ctx          context.Context
	ctrl         *gomock.Controller
	mockSettings *hallsettingsmock.MockRepository
	mockCounts   *combatcountsmock.MockRepository
	mockHistory  *runhistorymock.MockRepository
	svc          challenge.Service
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func (s *StorageTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mockSettings = hallsettingsmock.NewMockRepository(s.ctrl)
	s.mockCounts = combatcountsmock.NewMockRepository(s.ctrl)
	s.mockHistory = runhistorymock.NewMockRepository(s.ctrl)

	clk := clock.NewManual(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	sim := game.NewSimulator(&game.SimulatorConfig{Roller: testutils.WinRoller, TopFloor: 2})
	sim.AddAccount(game.SimAccount{ID: "a1", Career: "武神"})

	runner, err := challenge.NewRunner(&challenge.RunnerConfig{Client: sim, Clock: clk})
	s.Require().NoError(err)
	guard, err := runguard.New(&runguard.Config{Clock: clk})
	s.Require().NoError(err)
	broadcaster, err := progress.New(&progress.Config{Clock: clk, IDGenerator: idgen.NewSequential("ev")})
	s.Require().NoError(err)

	s.svc, err = challenge.NewOrchestrator(&challenge.Config{
		Runner:          runner,
		Client:          sim,
		Guard:           guard,
		Broadcaster:     broadcaster,
		Settings:        s.mockSettings,
		Counts:          s.mockCounts,
		History:         s.mockHistory,
		Clock:           clk,
		IDGenerator:     idgen.NewSequential("sess"),
		WorkerPoolSize:  2,
		StopWaitTimeout: waitTimeout,
	})
	s.Require().NoError(err)
}

func (s *StorageTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *StorageTestSuite) waitDone(sess *challenge.Session) {
	ctx, cancel := context.WithTimeout(s.ctx, waitTimeout)
	defer cancel()
	s.Require().NoError(sess.Wait(ctx))
}

func (s *StorageTestSuite) TestSettingsOutageRejectsAccount() {
	s.mockSettings.EXPECT().
		Get(gomock.Any(), hallsettings.GetInput{AccountID: "a1"}).
		Return(nil, errors.Unavailable("redis down"))

	out, err := s.svc.StartSession(s.ctx, &challenge.StartSessionInput{User: "alice", AccountIDs: []string{"a1"}})
	s.Require().NoError(err)
	s.waitDone(out.Session)

	s.Require().Len(out.Rejected, 1)
	s.Assert().Equal(hall.OutcomeInvalid, out.Rejected[0].Status)
	s.Assert().Equal(hall.ReasonSettingsMissing, out.Rejected[0].Reason)
}

func (s *StorageTestSuite) TestCountsOutageStillRunsAndRecords() {
	s.mockSettings.EXPECT().
		Get(gomock.Any(), hallsettings.GetInput{AccountID: "a1"}).
		Return(&hallsettings.GetOutput{Settings: &hall.AccountSettings{
			Strategies: map[hall.Name]string{hall.NameSanGuo: ""},
		}}, nil)
	s.mockCounts.EXPECT().
		Get(gomock.Any(), combatcounts.GetInput{AccountID: "a1"}).
		Return(nil, errors.Unavailable("redis down"))
	s.mockCounts.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in combatcounts.RecordInput) (*combatcounts.RecordOutput, error) {
			s.Assert().Equal("a1", in.AccountID)
			return &combatcounts.RecordOutput{}, nil
		})

	var journaled *runhistory.Entry
	s.mockHistory.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in runhistory.AppendInput) (*runhistory.AppendOutput, error) {
			journaled = in.Entry
			return &runhistory.AppendOutput{Entry: in.Entry}, nil
		})

	out, err := s.svc.StartSession(s.ctx, &challenge.StartSessionInput{
		User:             "alice",
		AccountIDs:       []string{"a1"},
		CheckWeeklyQuota: true,
	})
	s.Require().NoError(err)
	s.waitDone(out.Session)

	s.Assert().Empty(out.Rejected)
	outcome, ok := out.Session.Outcome("a1")
	s.Require().True(ok)
	s.Assert().Equal(hall.StatusCompleted, outcome.Status)

	s.Require().NotNil(journaled)
	s.Assert().Equal("alice", journaled.User)
	s.Assert().Equal(out.Session.ID, journaled.SessionID)
	s.Assert().Equal(hall.StatusCompleted, journaled.Status)
}

func (s *StorageTestSuite) TestJournalFailureDoesNotFailRun() {
	s.mockSettings.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(&hallsettings.GetOutput{Settings: &hall.AccountSettings{
			Strategies: map[hall.Name]string{hall.NameSanGuo: ""},
		}}, nil)
	s.mockCounts.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil, errors.Unavailable("redis down"))
	s.mockHistory.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil, errors.Internal("disk full"))

	out, err := s.svc.StartSession(s.ctx, &challenge.StartSessionInput{User: "alice", AccountIDs: []string{"a1"}})
	s.Require().NoError(err)
	s.waitDone(out.Session)

	outcome, ok := out.Session.Outcome("a1")
	s.Require().True(ok)
	s.Assert().Equal(hall.StatusCompleted, outcome.Status)
}

func (s *StorageTestSuite) TestGetSettingsKeepsStoreCode() {
	s.mockSettings.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(nil, errors.Unavailable("redis down"))

	_, err := s.svc.GetSettings(s.ctx, &challenge.GetSettingsInput{AccountID: "a1"})
	s.Require().Error(err)
	s.Assert().True(errors.IsUnavailable(err))
}

func (s *StorageTestSuite) TestSaveSettingsSkipsStoreWhenInvalid() {
	// no Save expectation: an invalid strategy never reaches the store
	_, err := s.svc.SaveSettings(s.ctx, &challenge.SaveSettingsInput{
		AccountID: "a1",
		Settings: &hall.AccountSettings{
			Strategies: map[hall.Name]string{hall.NameSanGuo: "abc:NPC"},
		},
	})
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *StorageTestSuite) TestSaveSettingsStoreFailure() {
	s.mockSettings.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		Return(nil, errors.Unavailable("redis down"))

	_, err := s.svc.SaveSettings(s.ctx, &challenge.SaveSettingsInput{
		AccountID: "a1",
		Settings: &hall.AccountSettings{
			Strategies: map[hall.Name]string{hall.NameSanGuo: "5:空蓝"},
		},
	})
	s.Require().Error(err)
	s.Assert().True(errors.IsUnavailable(err))
}

func (s *StorageTestSuite) TestListHistoryPassesFilters() {
	entries := []*runhistory.Entry{{ID: "run-1", AccountID: "a1", Status: hall.StatusCompleted}}
	s.mockHistory.EXPECT().
		List(gomock.Any(), runhistory.ListInput{User: "alice", AccountID: "a1", Limit: 5}).
		Return(&runhistory.ListOutput{Entries: entries}, nil)

	out, err := s.svc.ListHistory(s.ctx, &challenge.ListHistoryInput{User: "alice", AccountID: "a1", Limit: 5})
	s.Require().NoError(err)
	s.Assert().Equal(entries, out.Entries)
}

func (s *StorageTestSuite) TestListHistoryFailure() {
	s.mockHistory.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(nil, errors.Internal("disk full"))

	_, err := s.svc.ListHistory(s.ctx, &challenge.ListHistoryInput{User: "alice"})
	s.Require().Error(err)
	s.Assert().True(errors.IsInternal(err))
}
