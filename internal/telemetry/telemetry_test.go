package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/KirkDiggler/hall-runner/internal/clients/game"
	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	"github.com/KirkDiggler/hall-runner/internal/services/runguard"
	"github.com/KirkDiggler/hall-runner/internal/telemetry"
	"github.com/KirkDiggler/hall-runner/internal/testutils"
)

type TelemetryTestSuite struct {
	suite.Suite
}

func TestTelemetrySuite(t *testing.T) {
	suite.Run(t, new(TelemetryTestSuite))
}

func (s *TelemetryTestSuite) TestSetupWithoutEndpointIsNoop() {
	shutdown, err := telemetry.Setup(context.Background(), "hall-runner", "")
	s.Require().NoError(err)
	s.Assert().NoError(shutdown(context.Background()))
}

func (s *TelemetryTestSuite) TestRunnerRecordsHallAndFloorSpans() {
	exporter := tracetest.NewInMemoryExporter()
	tp := telemetry.NewProvider(nil, sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	clk := clock.NewManual(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	sim := game.NewSimulator(&game.SimulatorConfig{Roller: testutils.WinRoller, TopFloor: 2})
	sim.AddAccount(game.SimAccount{ID: "a1", Career: "武神"})

	runner, err := challenge.NewRunner(&challenge.RunnerConfig{
		Client: sim,
		Clock:  clk,
		Tracer: tp.Tracer("test"),
	})
	s.Require().NoError(err)

	guard, err := runguard.New(&runguard.Config{Clock: clk})
	s.Require().NoError(err)
	handle, err := guard.TryAcquire(runguard.AcquireInput{AccountID: "a1", Owner: "alice", SessionID: "s1"})
	s.Require().NoError(err)
	defer handle.Release()

	out, err := runner.Run(context.Background(), &challenge.RunInput{
		AccountID: "a1",
		Plan:      hall.Plan{Hall: hall.NameSanGuo},
		Settings:  &hall.AccountSettings{},
		Handle:    handle,
	})
	s.Require().NoError(err)
	s.Require().Equal(hall.StatusCompleted, out.State.Status)

	names := map[string]int{}
	for _, span := range exporter.GetSpans() {
		names[span.Name]++
	}
	s.Assert().Equal(1, names["challenge.hall"])
	s.Assert().Equal(2, names["challenge.floor"])
}
