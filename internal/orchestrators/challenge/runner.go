package challenge

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KirkDiggler/hall-runner/internal/clients/game"
	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	"github.com/KirkDiggler/hall-runner/internal/pkg/pacing"
	"github.com/KirkDiggler/hall-runner/internal/services/skillbook"
)

const (
	tracerName = "github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge"

	defaultMaxResurrections = 3
	defaultRepairEvery      = 10

	// failure switching only leaves the hall with more than four attempts left
	minAttemptsToLeave = 5
)

// SpendPolicy controls the best-effort hall point spend at run start
type SpendPolicy struct {
	Material    game.Item
	MaterialQty int
	Boost       game.Item
	// BoostReserve is the balance kept back from boost purchases
	BoostReserve int
}

// DefaultSpendPolicy buys two black iron then spends everything above
// 100000 points on insight.
func DefaultSpendPolicy() SpendPolicy {
	return SpendPolicy{
		Material:     game.ItemBlackIron,
		MaterialQty:  2,
		Boost:        game.ItemInsight,
		BoostReserve: 100000,
	}
}

// RunnerConfig holds the dependencies of the hall run state machine
type RunnerConfig struct {
	Client game.Client
	Clock  clock.Clock
	// Skills supplies default loadouts; nil leaves skills untouched
	Skills *skillbook.Book
	// Pacer spaces out floors; nil never waits
	Pacer *pacing.Pacer
	// Tracer defaults to the global otel tracer
	Tracer           trace.Tracer
	MaxResurrections int
	RepairEvery      int
	// Spend defaults to DefaultSpendPolicy
	Spend *SpendPolicy
}

// Validate ensures all required dependencies are provided
func (c *RunnerConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Client == nil {
		vb.RequiredField("Client")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.MaxResurrections < 0 {
		vb.Field("MaxResurrections", "must not be negative")
	}
	if c.RepairEvery < 0 {
		vb.Field("RepairEvery", "must not be negative")
	}
	return vb.Build()
}

// Runner drives one account through one hall
type Runner struct {
	client           game.Client
	clock            clock.Clock
	skills           *skillbook.Book
	pacer            *pacing.Pacer
	tracer           trace.Tracer
	maxResurrections int
	repairEvery      int
	spend            SpendPolicy
}

// NewRunner creates a Runner
func NewRunner(cfg *RunnerConfig) (*Runner, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	r := &Runner{
		client:           cfg.Client,
		clock:            cfg.Clock,
		skills:           cfg.Skills,
		pacer:            cfg.Pacer,
		tracer:           cfg.Tracer,
		maxResurrections: cfg.MaxResurrections,
		repairEvery:      cfg.RepairEvery,
		spend:            DefaultSpendPolicy(),
	}
	if r.pacer == nil {
		r.pacer = pacing.None()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	if r.maxResurrections == 0 {
		r.maxResurrections = defaultMaxResurrections
	}
	if r.repairEvery == 0 {
		r.repairEvery = defaultRepairEvery
	}
	if cfg.Spend != nil {
		r.spend = *cfg.Spend
	}
	return r, nil
}

// Run plays input.Plan until the hall ends. Game failures end the run in a
// terminal state rather than returning an error; an error means the input
// itself was unusable.
func (r *Runner) Run(ctx context.Context, input *RunInput) (*RunOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.AccountID == "" {
		return nil, errors.InvalidArgument("account id is required")
	}
	if !input.Plan.Hall.Valid() {
		return nil, errors.InvalidArgumentf("unknown hall %q", string(input.Plan.Hall))
	}
	if input.Settings == nil {
		return nil, errors.InvalidArgument("settings are required")
	}

	ctx, span := r.tracer.Start(ctx, "challenge.hall", trace.WithAttributes(
		attribute.String("account_id", input.AccountID),
		attribute.String("hall", string(input.Plan.Hall)),
	))
	defer span.End()

	now := r.clock.Now()
	run := &hallRun{
		Runner: r,
		input:  input,
		state: hall.RunState{
			AccountID:    input.AccountID,
			Hall:         input.Plan.Hall,
			CurrentFloor: 1,
			Status:       hall.StatusRunning,
			StartedAt:    now,
			UpdatedAt:    now,
		},
	}
	run.play(ctx)

	span.SetAttributes(
		attribute.String("status", string(run.state.Status)),
		attribute.String("reason", run.state.Reason),
		attribute.Int("floor", run.state.CurrentFloor),
		attribute.Int("victories", run.state.Victories),
	)
	if run.state.Status == hall.StatusFailed {
		span.SetStatus(codes.Error, run.state.Reason)
	}

	slog.Info("Hall run finished",
		"account_id", input.AccountID,
		"hall", input.Plan.Hall,
		"status", run.state.Status,
		"reason", run.state.Reason,
		"floor", run.state.CurrentFloor,
		"victories", run.state.Victories,
		"resurrections", run.state.Resurrections,
	)

	return &RunOutput{State: run.state}, nil
}

// hallRun is the state of a single Run call
type hallRun struct {
	*Runner
	input    *RunInput
	state    hall.RunState
	equipped *hall.SkillOverride
	warned   bool
}

func (h *hallRun) play(ctx context.Context) {
	h.transition(hall.StatusRunning, "", hall.LevelInfo, "开始挑战")

	h.spendPoints(ctx)

	if err := h.client.SwitchHall(ctx, h.input.AccountID, h.input.Plan.Hall); err != nil {
		h.transition(hall.StatusFailed, hall.ReasonEnterFailed, hall.LevelError,
			fmt.Sprintf("进入大厅失败: %v", err))
		return
	}

	status, err := h.client.Status(ctx, h.input.AccountID)
	if err != nil {
		h.transition(hall.StatusFailed, hall.ReasonEnterFailed, hall.LevelError,
			fmt.Sprintf("读取状态失败: %v", err))
		return
	}
	if status.Hall == h.input.Plan.Hall && status.Floor > 0 {
		h.state.CurrentFloor = status.Floor
	}

	if status.Dead {
		h.transition(hall.StatusResurrecting, "", hall.LevelWarn, "角色已死亡，先复活")
		if err := h.client.Resurrect(ctx, h.input.AccountID); err != nil {
			h.transition(hall.StatusFailed, hall.ReasonDefeated, hall.LevelError,
				fmt.Sprintf("复活失败: %v", err))
			return
		}
		h.transition(hall.StatusRunning, "", hall.LevelInfo, "复活成功")
	}

	for {
		if h.stopRequested(ctx) {
			h.transition(hall.StatusStopped, hall.ReasonStopRequested, hall.LevelWarn, "已停止")
			return
		}

		if done := h.playFloor(ctx); done {
			return
		}

		if !h.pacer.Wait(ctx, h.stopChan()) {
			h.transition(hall.StatusStopped, hall.ReasonStopRequested, hall.LevelWarn, "已停止")
			return
		}
	}
}

// playFloor runs one iteration of the floor loop and reports whether the
// run has reached a terminal state.
func (h *hallRun) playFloor(ctx context.Context) bool {
	floor := h.state.CurrentFloor
	directive := h.input.Plan.Strategy.DirectiveAt(floor)

	switch directive.Target {
	case hall.TargetExit:
		h.transition(hall.StatusCompleted, hall.ReasonExitDirective, hall.LevelInfo, "到达退出层，结束挑战")
		return true
	case hall.TargetSwitchHall:
		h.leaveHall(ctx, !h.input.LastHall, 1)
		h.transition(hall.StatusSwitching, hall.ReasonSwitchDirective, hall.LevelInfo, "到达切换层，切换大厅")
		return true
	}

	ctx, span := h.tracer.Start(ctx, "challenge.floor", trace.WithAttributes(
		attribute.Int("floor", floor),
		attribute.String("target", directive.Target.String()),
	))
	defer span.End()

	status, err := h.client.Status(ctx, h.input.AccountID)
	if err != nil {
		span.RecordError(err)
		return h.failFloor(ctx, fmt.Sprintf("读取状态失败: %v", err))
	}

	if status.AttemptsExhausted() {
		if !h.input.Settings.AutoBuyAttempts {
			h.transition(hall.StatusFailed, hall.ReasonAttemptsExhausted, hall.LevelError, "挑战次数已用完")
			return true
		}
		if err := h.client.BuyAttempt(ctx, h.input.AccountID); err != nil {
			span.RecordError(err)
			h.transition(hall.StatusFailed, hall.ReasonPurchaseFailed, hall.LevelError,
				(&PurchaseFailedError{Item: "挑战次数", Err: err}).Error())
			return true
		}
		h.emit(hall.LevelInfo, "购买挑战次数成功")
	}

	if err := h.prepare(ctx, floor, directive, status.Career); err != nil {
		span.RecordError(err)
		return h.failFloor(ctx, err.Error())
	}

	result, err := h.client.ChallengeFloor(ctx, &game.ChallengeInput{
		AccountID: h.input.AccountID,
		Hall:      h.input.Plan.Hall,
		Floor:     floor,
		Target:    directive.Target,
	})
	if err != nil {
		span.RecordError(err)
		return h.failFloor(ctx, fmt.Sprintf("挑战出错: %v", err))
	}
	if !result.Victory {
		span.SetAttributes(attribute.Bool("victory", false))
		return h.failFloor(ctx, "战斗失败")
	}
	span.SetAttributes(attribute.Bool("victory", true))

	h.state.Victories++
	h.state.ConsecutiveFailures = 0
	if result.HallCleared {
		h.transition(hall.StatusCompleted, hall.ReasonHallCleared, hall.LevelInfo, "挑战成功，大厅已通关")
		return true
	}

	h.emit(hall.LevelInfo, "挑战成功")
	h.state.CurrentFloor++

	if h.state.Victories%h.repairEvery == 0 {
		if err := h.client.RepairEquipment(ctx, h.input.AccountID); err != nil {
			h.emit(hall.LevelWarn, fmt.Sprintf("修理装备失败: %v", err))
		} else {
			h.emit(hall.LevelInfo, "修理装备")
		}
	}
	return false
}

// prepare applies the pre-battle effects for a floor
func (h *hallRun) prepare(ctx context.Context, floor int, directive hall.FloorDirective, career string) error {
	if h.input.Settings.LodgeHealEvery10Floors && floor%10 == 0 {
		if err := h.client.LodgeHeal(ctx, h.input.AccountID); err != nil {
			return fmt.Errorf("客房补血失败: %w", err)
		}
		h.emit(hall.LevelInfo, "客房补血")
	}

	switch directive.Target {
	case hall.TargetOddHealth:
		if err := h.client.AdjustHealthParity(ctx, h.input.AccountID); err != nil {
			return fmt.Errorf("调整奇数血失败: %w", err)
		}
		h.emit(hall.LevelInfo, "已调整为奇数血")
	case hall.TargetBlankMana:
		if err := h.client.EmptyMana(ctx, h.input.AccountID); err != nil {
			return fmt.Errorf("清空蓝量失败: %w", err)
		}
		h.emit(hall.LevelInfo, "已清空蓝量")
	}

	want := directive.Skills
	if want == nil && h.skills != nil {
		loadout, ok := h.skills.Lookup(career, h.input.Plan.Hall, floor)
		if !ok && !h.warned {
			h.warned = true
			h.emit(hall.LevelWarn, fmt.Sprintf("未知职业 %q，保持当前技能", career))
		}
		want = loadout
	}
	if want == nil || want.Equal(h.equipped) {
		return nil
	}

	if err := h.client.EquipSkills(ctx, h.input.AccountID, *want); err != nil {
		return fmt.Errorf("切换技能失败: %w", err)
	}
	h.equipped = want
	h.emit(hall.LevelInfo, fmt.Sprintf("切换技能: %s", want.Primary))
	return nil
}

// failFloor applies the failure policy and reports whether the run ended
func (h *hallRun) failFloor(ctx context.Context, cause string) bool {
	h.state.ConsecutiveFailures++
	h.emit(hall.LevelWarn, fmt.Sprintf("挑战失败: %s", cause))

	if h.input.Settings.AutoResurrect && h.state.Resurrections < h.maxResurrections {
		h.state.Resurrections++
		h.transition(hall.StatusResurrecting, "", hall.LevelInfo,
			fmt.Sprintf("复活重打 (%d/%d)", h.state.Resurrections, h.maxResurrections))
		if err := h.client.Resurrect(ctx, h.input.AccountID); err != nil {
			h.transition(hall.StatusFailed, hall.ReasonDefeated, hall.LevelError,
				fmt.Sprintf("复活失败: %v", err))
			return true
		}
		h.transition(hall.StatusRunning, "", hall.LevelInfo, "复活成功，重新挑战")
		return false
	}

	if h.input.Settings.SwitchOnFailure {
		h.leaveHall(ctx, h.input.Plan.Hall != hall.NameJueDai, minAttemptsToLeave)
		h.transition(hall.StatusSwitching, hall.ReasonSwitchOnFailure, hall.LevelWarn, "挑战失败，切换大厅")
		return true
	}

	h.transition(hall.StatusFailed, hall.ReasonDefeated, hall.LevelError, "挑战失败，结束")
	return true
}

// leaveHall abandons the hall when allowed and at least minRemaining
// attempts are left. Failures only warn: the run is ending either way.
func (h *hallRun) leaveHall(ctx context.Context, allowed bool, minRemaining int) {
	if !allowed {
		return
	}
	status, err := h.client.Status(ctx, h.input.AccountID)
	if err != nil {
		h.emit(hall.LevelWarn, fmt.Sprintf("读取状态失败，不离开大厅: %v", err))
		return
	}
	if status.AttemptsRemaining() < minRemaining {
		return
	}
	if err := h.client.LeaveHall(ctx, h.input.AccountID); err != nil {
		h.emit(hall.LevelWarn, fmt.Sprintf("离开大厅失败: %v", err))
		return
	}
	h.emit(hall.LevelInfo, "已离开大厅")
}

// spends reports whether the policy can buy anything at all
func (p SpendPolicy) spends() bool {
	return (p.MaterialQty > 0 && p.Material.Price > 0) || p.Boost.Price > 0
}

// spendPoints buys the material, then boosts with points above the reserve.
// Every hall run spends once before entering.
func (h *hallRun) spendPoints(ctx context.Context) {
	if !h.spend.spends() {
		return
	}
	status, err := h.client.Status(ctx, h.input.AccountID)
	if err != nil {
		h.emit(hall.LevelWarn, fmt.Sprintf("读取积分失败: %v", err))
		return
	}
	score := status.Score

	p := h.spend
	if p.MaterialQty > 0 && p.Material.Price > 0 && score >= p.Material.Price*p.MaterialQty {
		err := h.client.BuyItem(ctx, &game.BuyItemInput{
			AccountID: h.input.AccountID,
			Item:      p.Material,
			Quantity:  p.MaterialQty,
		})
		if err != nil {
			h.emit(hall.LevelWarn, (&PurchaseFailedError{Item: p.Material.Name, Err: err}).Error())
		} else {
			score -= p.Material.Price * p.MaterialQty
			h.emit(hall.LevelInfo, fmt.Sprintf("购买%s x%d", p.Material.Name, p.MaterialQty))
		}
	}

	if p.Boost.Price <= 0 || score <= p.BoostReserve {
		return
	}
	qty := (score - p.BoostReserve) / p.Boost.Price
	if qty <= 0 {
		return
	}
	err = h.client.BuyItem(ctx, &game.BuyItemInput{
		AccountID: h.input.AccountID,
		Item:      p.Boost,
		Quantity:  qty,
	})
	if err != nil {
		h.emit(hall.LevelWarn, (&PurchaseFailedError{Item: p.Boost.Name, Err: err}).Error())
		return
	}
	h.emit(hall.LevelInfo, fmt.Sprintf("购买%s x%d", p.Boost.Name, qty))
}

func (h *hallRun) stopRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return h.input.Handle != nil && h.input.Handle.StopRequested()
}

func (h *hallRun) stopChan() <-chan struct{} {
	if h.input.Handle == nil {
		return nil
	}
	return h.input.Handle.Stopped()
}

// transition moves the run to status and publishes exactly one event
func (h *hallRun) transition(status hall.Status, reason string, level hall.Level, message string) {
	h.state.Status = status
	h.state.Reason = reason
	h.state.UpdatedAt = h.clock.Now()
	if h.input.Handle != nil {
		h.input.Handle.Update(h.state)
	}
	h.emit(level, message)
}

func (h *hallRun) emit(level hall.Level, message string) {
	if h.input.Emit == nil {
		return
	}
	h.input.Emit(hall.ProgressEvent{
		AccountID: h.input.AccountID,
		Hall:      h.input.Plan.Hall,
		Floor:     h.state.CurrentFloor,
		Status:    h.state.Status,
		Level:     level,
		Message:   message,
		Timestamp: h.clock.Now(),
	})
}
