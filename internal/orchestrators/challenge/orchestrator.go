// Package challenge runs accounts through the hall challenge: the Runner
// plays one account through one hall, and the orchestrator fans a user's
// accounts out over a shared worker pool.
package challenge

//go:generate mockgen -destination=mock/mock_service.go -package=challengemock github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge Service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/KirkDiggler/hall-runner/internal/clients/game"
	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	"github.com/KirkDiggler/hall-runner/internal/pkg/idgen"
	combatcounts "github.com/KirkDiggler/hall-runner/internal/repositories/combat_counts"
	hallsettings "github.com/KirkDiggler/hall-runner/internal/repositories/hall_settings"
	runhistory "github.com/KirkDiggler/hall-runner/internal/repositories/run_history"
	"github.com/KirkDiggler/hall-runner/internal/services/progress"
	"github.com/KirkDiggler/hall-runner/internal/services/runguard"
	"github.com/KirkDiggler/hall-runner/internal/services/strategy"
)

const (
	defaultWorkerPoolSize  = 8
	defaultStopWaitTimeout = 30 * time.Second
	persistTimeout         = 5 * time.Second
)

// Service defines the interface for hall challenge sessions
type Service interface {
	// StartSession launches every runnable account of the request
	StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error)

	// StopSession signals every run of the user to stop
	StopSession(ctx context.Context, input *StopSessionInput) (*StopSessionOutput, error)

	// Status reports the user's active runs
	Status(ctx context.Context, input *StatusInput) (*StatusOutput, error)

	// GetSession returns the user's latest session
	GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error)

	// GetSettings loads an account's hall settings, defaulting when absent
	GetSettings(ctx context.Context, input *GetSettingsInput) (*GetSettingsOutput, error)

	// SaveSettings validates every strategy and stores the settings
	SaveSettings(ctx context.Context, input *SaveSettingsInput) (*SaveSettingsOutput, error)

	// ListHistory returns recent run outcomes
	ListHistory(ctx context.Context, input *ListHistoryInput) (*ListHistoryOutput, error)
}

// Config holds the dependencies for the challenge orchestrator
type Config struct {
	Runner      *Runner
	Client      game.Client
	Guard       *runguard.Guard
	Broadcaster *progress.Broadcaster
	Settings    hallsettings.Repository
	Counts      combatcounts.Repository
	History     runhistory.Repository
	Clock       clock.Clock
	IDGenerator idgen.Generator
	// WorkerPoolSize bounds how many accounts run at once across all sessions
	WorkerPoolSize int
	// StopWaitTimeout bounds how long a restart waits for the old session
	StopWaitTimeout time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Runner == nil {
		vb.RequiredField("Runner")
	}
	if c.Client == nil {
		vb.RequiredField("Client")
	}
	if c.Guard == nil {
		vb.RequiredField("Guard")
	}
	if c.Broadcaster == nil {
		vb.RequiredField("Broadcaster")
	}
	if c.Settings == nil {
		vb.RequiredField("Settings")
	}
	if c.Counts == nil {
		vb.RequiredField("Counts")
	}
	if c.History == nil {
		vb.RequiredField("History")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.WorkerPoolSize < 0 {
		vb.Field("WorkerPoolSize", "must not be negative")
	}

	return vb.Build()
}

type orchestrator struct {
	runner      *Runner
	client      game.Client
	guard       *runguard.Guard
	broadcaster *progress.Broadcaster
	settings    hallsettings.Repository
	counts      combatcounts.Repository
	history     runhistory.Repository
	clock       clock.Clock
	idGen       idgen.Generator
	pool        *semaphore.Weighted
	stopWait    time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	// startLocks serialize StartSession per user
	startLocks map[string]*sync.Mutex
}

// NewOrchestrator creates a new challenge orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	size := cfg.WorkerPoolSize
	if size == 0 {
		size = defaultWorkerPoolSize
	}
	stopWait := cfg.StopWaitTimeout
	if stopWait <= 0 {
		stopWait = defaultStopWaitTimeout
	}

	return &orchestrator{
		runner:      cfg.Runner,
		client:      cfg.Client,
		guard:       cfg.Guard,
		broadcaster: cfg.Broadcaster,
		settings:    cfg.Settings,
		counts:      cfg.Counts,
		history:     cfg.History,
		clock:       cfg.Clock,
		idGen:       cfg.IDGenerator,
		pool:        semaphore.NewWeighted(int64(size)),
		stopWait:    stopWait,
		sessions:    make(map[string]*Session),
		startLocks:  make(map[string]*sync.Mutex),
	}, nil
}

// accountJob is an accepted account waiting for a worker
type accountJob struct {
	accountID string
	settings  *hall.AccountSettings
	plans     []hall.Plan
	handle    *runguard.Handle
}

// StartSession launches every runnable account of the request
func (o *orchestrator) StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.User == "" {
		return nil, errors.InvalidArgument("user is required")
	}
	accounts := normalizeAccounts(input.AccountIDs)
	if len(accounts) == 0 {
		return nil, errors.InvalidArgument("at least one account is required")
	}
	if input.Hall != "" && !input.Hall.Valid() {
		return nil, errors.InvalidArgumentf("unknown hall %q", string(input.Hall)).
			WithMeta("hall", string(input.Hall))
	}

	sess, err := o.registerSession(ctx, input.User, accounts, input.Hall)
	if err != nil {
		return nil, err
	}

	slog.Info("Hall session starting",
		"session_id", sess.ID,
		"user", input.User,
		"account_count", len(accounts),
		"hall", input.Hall,
	)
	o.publish(sess, hall.ProgressEvent{Message: fmt.Sprintf("开始处理 %d 个账号", len(accounts))})

	var (
		jobs     []*accountJob
		rejected []hall.Outcome
	)
	for _, accountID := range accounts {
		job, outcome := o.admit(ctx, sess, accountID, input)
		if outcome != nil {
			rejected = append(rejected, *outcome)
			sess.record(*outcome)
			o.publish(sess, hall.ProgressEvent{
				AccountID: accountID,
				Status:    outcome.Status,
				Level:     hall.LevelWarn,
				Message:   fmt.Sprintf("跳过: %s", outcome.Reason),
			})
			continue
		}
		jobs = append(jobs, job)
	}

	// runs outlive the request that started them
	runCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job *accountJob) {
			defer wg.Done()
			o.runAccount(runCtx, sess, job)
		}(job)
	}

	go func() {
		wg.Wait()
		o.complete(sess)
	}()

	return &StartSessionOutput{Session: sess, Rejected: rejected}, nil
}

// registerSession replaces the user's current session with a new one. The
// check and the registration happen under the user's start lock.
func (o *orchestrator) registerSession(ctx context.Context, user string, accounts []string, h hall.Name) (*Session, error) {
	lock := o.startLock(user)
	lock.Lock()
	defer lock.Unlock()

	if err := o.replaceSession(ctx, user, accountSetKey(accounts, h)); err != nil {
		return nil, err
	}

	sess := newSession(o.idGen.Generate(), user, accounts, h, o.clock.Now())
	o.mu.Lock()
	o.sessions[user] = sess
	o.mu.Unlock()
	return sess, nil
}

func (o *orchestrator) startLock(user string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.startLocks[user]
	if !ok {
		lock = &sync.Mutex{}
		o.startLocks[user] = lock
	}
	return lock
}

// replaceSession refuses an identical running request and stops a running
// session with a different account set.
func (o *orchestrator) replaceSession(ctx context.Context, user, key string) error {
	o.mu.Lock()
	existing := o.sessions[user]
	o.mu.Unlock()

	if existing == nil || existing.IsDone() {
		return nil
	}
	if existing.key == key {
		return errors.AlreadyExistsf("session %s is already running these accounts", existing.ID).
			WithMeta("session_id", existing.ID).
			WithMeta("user", user)
	}

	slog.Info("Stopping previous hall session",
		"session_id", existing.ID,
		"user", user,
	)
	o.guard.RequestStopOwner(user)

	waitCtx, cancel := context.WithTimeout(ctx, o.stopWait)
	defer cancel()
	if err := existing.Wait(waitCtx); err != nil {
		slog.Warn("Previous hall session did not stop in time",
			"session_id", existing.ID,
			"user", user,
			"error", err,
		)
	}
	return nil
}

// admit loads and checks one account. A nil job comes with the outcome
// explaining why the account is not launched.
func (o *orchestrator) admit(ctx context.Context, sess *Session, accountID string, input *StartSessionInput) (*accountJob, *hall.Outcome) {
	reject := func(status hall.Status, reason string) (*accountJob, *hall.Outcome) {
		slog.Info("Account not launched",
			"session_id", sess.ID,
			"account_id", accountID,
			"status", status,
			"reason", reason,
		)
		return nil, &hall.Outcome{AccountID: accountID, Status: status, Reason: reason, Hall: input.Hall}
	}

	got, err := o.settings.Get(ctx, hallsettings.GetInput{AccountID: accountID})
	if err != nil {
		if !errors.IsNotFound(err) {
			slog.Error("Failed to load hall settings", "account_id", accountID, "error", err)
		}
		return reject(hall.OutcomeInvalid, hall.ReasonSettingsMissing)
	}

	plans, err := strategy.ParseSettings(got.Settings.Strategies)
	if err != nil {
		return reject(hall.OutcomeInvalid, fmt.Sprintf("%s: %v", hall.ReasonInvalidStrategy, err))
	}
	if input.Hall != "" {
		plans = filterPlans(plans, input.Hall)
	}
	if len(plans) == 0 {
		return reject(hall.OutcomeSkipped, hall.ReasonNoHalls)
	}

	if input.CheckWeeklyQuota {
		count, err := o.counts.Get(ctx, combatcounts.GetInput{AccountID: accountID})
		switch {
		case err == nil && count.Count.QuotaReached():
			return reject(hall.OutcomeSkipped, hall.ReasonQuotaReached)
		case err != nil && !errors.IsNotFound(err):
			slog.Warn("Failed to read weekly counts, running anyway", "account_id", accountID, "error", err)
		}
	}

	handle, err := o.guard.TryAcquire(runguard.AcquireInput{
		AccountID: accountID,
		Owner:     sess.User,
		SessionID: sess.ID,
	})
	if err != nil {
		return reject(hall.OutcomeSkipped, hall.ReasonAlreadyRunning)
	}

	return &accountJob{
		accountID: accountID,
		settings:  got.Settings,
		plans:     plans,
		handle:    handle,
	}, nil
}

func filterPlans(plans []hall.Plan, h hall.Name) []hall.Plan {
	for _, p := range plans {
		if p.Hall == h {
			return []hall.Plan{p}
		}
	}
	return nil
}

// runAccount takes a worker slot and plays the account's halls in order
func (o *orchestrator) runAccount(ctx context.Context, sess *Session, job *accountJob) {
	defer job.handle.Release()

	started := o.clock.Now()
	outcome := hall.Outcome{AccountID: job.accountID}
	emit := func(ev hall.ProgressEvent) { o.publish(sess, ev) }

	if err := o.acquireSlot(ctx, job.handle); err != nil {
		outcome.Status = hall.StatusStopped
		outcome.Reason = hall.ReasonStopRequested
		o.finishAccount(ctx, sess, job, outcome, started)
		return
	}
	defer o.pool.Release(1)

	for i, plan := range job.plans {
		out, err := o.runner.Run(ctx, &RunInput{
			AccountID: job.accountID,
			Plan:      plan,
			Settings:  job.settings,
			LastHall:  i == len(job.plans)-1,
			Handle:    job.handle,
			Emit:      emit,
		})
		if err != nil {
			slog.Error("Hall run rejected", "account_id", job.accountID, "hall", plan.Hall, "error", err)
			outcome.Status = hall.StatusFailed
			outcome.Reason = err.Error()
			outcome.Hall = plan.Hall
			break
		}

		st := out.State
		outcome.Halls = append(outcome.Halls, hall.HallResult{
			Hall:          st.Hall,
			Status:        st.Status,
			Reason:        st.Reason,
			Floor:         st.CurrentFloor,
			Victories:     st.Victories,
			Resurrections: st.Resurrections,
		})
		outcome.Status = st.Status
		outcome.Reason = st.Reason
		outcome.Hall = st.Hall
		outcome.Floor = st.CurrentFloor

		if !nextHall(st) {
			break
		}
	}

	// leaving the last hall still finishes the account's work
	if outcome.Status == hall.StatusSwitching {
		outcome.Status = hall.StatusCompleted
	}
	o.finishAccount(ctx, sess, job, outcome, started)
}

// nextHall reports whether the account moves on after a hall run
func nextHall(st hall.RunState) bool {
	switch st.Status {
	case hall.StatusSwitching:
		return true
	case hall.StatusCompleted:
		return st.Reason == hall.ReasonHallCleared
	default:
		return false
	}
}

// acquireSlot waits for a worker, giving up when the run is stopped
func (o *orchestrator) acquireSlot(ctx context.Context, handle *runguard.Handle) error {
	acquireCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-handle.Stopped():
			cancel()
		case <-acquireCtx.Done():
		}
	}()

	return o.pool.Acquire(acquireCtx, 1)
}

// finishAccount persists the account's counts and outcome and publishes its
// final line.
func (o *orchestrator) finishAccount(ctx context.Context, sess *Session, job *accountJob, outcome hall.Outcome, started time.Time) {
	finished := o.clock.Now()
	outcome.Duration = finished.Sub(started)

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if status, err := o.client.Status(persistCtx, job.accountID); err != nil {
		slog.Warn("Failed to read attempts after run", "account_id", job.accountID, "error", err)
	} else if _, err := o.counts.Record(persistCtx, combatcounts.RecordInput{
		AccountID: job.accountID,
		Used:      status.AttemptsUsed,
		Total:     status.AttemptsTotal,
	}); err != nil {
		slog.Warn("Failed to record weekly counts", "account_id", job.accountID, "error", err)
	}

	halls := outcome.Halls
	if halls == nil {
		halls = []hall.HallResult{}
	}
	if _, err := o.history.Append(persistCtx, runhistory.AppendInput{Entry: &runhistory.Entry{
		SessionID:  sess.ID,
		User:       sess.User,
		AccountID:  job.accountID,
		Status:     outcome.Status,
		Reason:     outcome.Reason,
		Hall:       outcome.Hall,
		Floor:      outcome.Floor,
		Halls:      halls,
		StartedAt:  started,
		FinishedAt: finished,
	}}); err != nil {
		slog.Warn("Failed to journal run outcome", "account_id", job.accountID, "error", err)
	}

	sess.record(outcome)

	level := hall.LevelInfo
	if outcome.Status == hall.StatusFailed {
		level = hall.LevelError
	}
	o.publish(sess, hall.ProgressEvent{
		AccountID: job.accountID,
		Status:    outcome.Status,
		Level:     level,
		Message:   outcomeLine(outcome),
	})
}

// complete publishes the session summary and marks the session done
func (o *orchestrator) complete(sess *Session) {
	sum := sess.Summary()
	o.publish(sess, hall.ProgressEvent{Message: "===== 挑战汇总 ====="})
	for _, outcome := range sum.Outcomes {
		o.publish(sess, hall.ProgressEvent{
			AccountID: outcome.AccountID,
			Status:    outcome.Status,
			Message:   outcomeLine(outcome),
		})
	}

	slog.Info("Hall session finished",
		"session_id", sess.ID,
		"user", sess.User,
		"accounts", len(sum.Outcomes),
	)
	sess.finish(o.clock.Now())
}

func outcomeLine(o hall.Outcome) string {
	line := string(o.Status)
	if o.Hall != "" {
		line += fmt.Sprintf(" %s 第%d层", o.Hall, o.Floor)
	}
	if o.Reason != "" {
		line += " (" + o.Reason + ")"
	}
	return line
}

// publish sends ev to the session stream and, for account events, to the
// account's own topic.
func (o *orchestrator) publish(sess *Session, ev hall.ProgressEvent) {
	ev.SessionID = sess.ID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = o.clock.Now()
	}
	o.broadcaster.Publish(sess.User, ev)
	if ev.AccountID != "" {
		o.broadcaster.Publish(progress.AccountTopic(ev.AccountID), ev)
	}
}

// StopSession signals every run of the user to stop
func (o *orchestrator) StopSession(ctx context.Context, input *StopSessionInput) (*StopSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.User == "" {
		return nil, errors.InvalidArgument("user is required")
	}

	stopped := o.guard.RequestStopOwner(input.User)
	out := &StopSessionOutput{Stopped: stopped}

	o.mu.Lock()
	sess := o.sessions[input.User]
	o.mu.Unlock()

	if sess != nil {
		out.SessionID = sess.ID
		if stopped > 0 {
			o.publish(sess, hall.ProgressEvent{
				Level:   hall.LevelWarn,
				Message: fmt.Sprintf("已请求停止 %d 个账号", stopped),
			})
		}
		if input.Wait {
			waitCtx, cancel := context.WithTimeout(ctx, o.stopWait)
			defer cancel()
			if err := sess.Wait(waitCtx); err != nil {
				return out, errors.WrapWithCode(err, errors.CodeUnavailable, "session did not stop in time").
					WithMeta("session_id", sess.ID)
			}
		}
	}

	slog.Info("Hall session stop requested",
		"user", input.User,
		"stopped", stopped,
	)
	return out, nil
}

// Status reports the user's active runs
func (o *orchestrator) Status(_ context.Context, input *StatusInput) (*StatusOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.User == "" {
		return nil, errors.InvalidArgument("user is required")
	}

	o.mu.Lock()
	sess := o.sessions[input.User]
	o.mu.Unlock()

	return &StatusOutput{
		Runs:    o.guard.ListOwner(input.User),
		Session: sess,
	}, nil
}

// GetSession returns the user's latest session
func (o *orchestrator) GetSession(_ context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.User == "" {
		return nil, errors.InvalidArgument("user is required")
	}

	o.mu.Lock()
	sess := o.sessions[input.User]
	o.mu.Unlock()

	if sess == nil {
		return nil, errors.NotFoundf("no session for user %s", input.User).
			WithMeta("user", input.User)
	}
	return &GetSessionOutput{Session: sess}, nil
}

// GetSettings loads an account's hall settings, defaulting when absent
func (o *orchestrator) GetSettings(ctx context.Context, input *GetSettingsInput) (*GetSettingsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.AccountID == "" {
		return nil, errors.InvalidArgument("account id is required")
	}

	got, err := o.settings.Get(ctx, hallsettings.GetInput{AccountID: input.AccountID})
	if err != nil {
		if errors.IsNotFound(err) {
			return &GetSettingsOutput{Settings: hall.DefaultSettings(), Defaulted: true}, nil
		}
		return nil, errors.Wrapf(err, "failed to load settings for %s", input.AccountID)
	}
	return &GetSettingsOutput{Settings: got.Settings}, nil
}

// SaveSettings validates every strategy and stores the settings
func (o *orchestrator) SaveSettings(ctx context.Context, input *SaveSettingsInput) (*SaveSettingsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.AccountID == "" {
		return nil, errors.InvalidArgument("account id is required")
	}
	if input.Settings == nil {
		return nil, errors.InvalidArgument("settings are required")
	}

	plans, err := strategy.ParseSettings(input.Settings.Strategies)
	if err != nil {
		return nil, err
	}

	if _, err := o.settings.Save(ctx, hallsettings.SaveInput{
		AccountID: input.AccountID,
		Settings:  input.Settings,
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to save settings for %s", input.AccountID)
	}

	slog.Info("Hall settings saved",
		"account_id", input.AccountID,
		"planned_halls", len(plans),
	)
	return &SaveSettingsOutput{Plans: plans}, nil
}

// ListHistory returns recent run outcomes
func (o *orchestrator) ListHistory(ctx context.Context, input *ListHistoryInput) (*ListHistoryOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Limit < 0 {
		return nil, errors.InvalidArgument("limit must not be negative")
	}

	out, err := o.history.List(ctx, runhistory.ListInput{
		User:      input.User,
		AccountID: input.AccountID,
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run history")
	}
	return &ListHistoryOutput{Entries: out.Entries}, nil
}
