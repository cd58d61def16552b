package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/backend"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/config"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/credentials"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// ErrClosed is returned by Wait once the orchestrator has been torn down.
var ErrClosed = errors.New("verification: orchestrator closed")

// storeTimeout bounds each credential store call.
const storeTimeout = 5 * time.Second

// Backend is the subset of the backend client the orchestrator drives.
type Backend interface {
	FetchResume(ctx context.Context, id string) (*types.ResumeData, error)
	LaunchVerification(ctx context.Context, id string, handles types.SocialHandles) error
	PollVerification(ctx context.Context, id string) (*types.VerificationStatus, error)
	FetchScore(ctx context.Context, id string) (*types.ScoreReport, error)
}

// Policy holds the retry and polling timings.
type Policy struct {
	ResumeRetryDelay time.Duration
	LaunchRetryDelay time.Duration
	PollInterval     time.Duration
	MaxRetries       int
	// PurgeOnEarlyFailure also clears stored handles when the attempt fails
	// before verification started. Off by default.
	PurgeOnEarlyFailure bool
}

// DefaultPolicy returns the standard timings.
func DefaultPolicy() Policy {
	return Policy{
		ResumeRetryDelay: time.Second,
		LaunchRetryDelay: 2 * time.Second,
		PollInterval:     time.Second,
		MaxRetries:       10,
	}
}

// PolicyFromConfig reads the timings from a merged config.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		ResumeRetryDelay:    cfg.ResumeRetryDelay.Std(),
		LaunchRetryDelay:    cfg.LaunchRetryDelay.Std(),
		PollInterval:        cfg.PollInterval.Std(),
		MaxRetries:          cfg.MaxRetries,
		PurgeOnEarlyFailure: cfg.PurgeOnEarlyFailure,
	}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithScheduler replaces the timer-based scheduler (primarily for tests).
func WithScheduler(s Scheduler) Option {
	return func(o *Orchestrator) { o.sched = s }
}

// WithPolicy sets retry and polling timings.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithOverrides sets request-scoped handles that win over stored and
// resume-extracted values.
func WithOverrides(h types.SocialHandles) Option {
	return func(o *Orchestrator) { o.overrides = h.Normalized() }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRules replaces the failure classification rules.
func WithRules(rules []Rule) Option {
	return func(o *Orchestrator) { o.rules = rules }
}

// Orchestrator runs the verification lifecycle for one resume id.
type Orchestrator struct {
	id      string
	backend Backend
	store   credentials.Store
	sched   Scheduler
	policy  Policy
	rules   []Rule
	logger  *log.Logger

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu          sync.Mutex
	gen         uint64
	attemptID   string
	step        Step
	closed      bool
	inflight    bool
	cancelCall  context.CancelFunc
	cancelTimer func()
	timerSeq    uint64
	budget      RetryBudget
	overrides   types.SocialHandles
	resume      *types.ResumeData
	handles     types.SocialHandles
	job         types.JobState
	score       *types.ScoreReport
	failure     *Failure
	verifying   bool
	polls       int
	purged      bool
	version     uint64
	subs        map[int]chan Snapshot
	nextSub     int
}

// New creates an idle orchestrator. Call Start (or Advance(Start{})) to begin.
func New(id string, b Backend, store credentials.Store, opts ...Option) (*Orchestrator, error) {
	if b == nil {
		return nil, fmt.Errorf("verification: backend is required")
	}
	if store == nil {
		return nil, fmt.Errorf("verification: credential store is required")
	}
	o := &Orchestrator{
		id:      id,
		backend: b,
		store:   store,
		sched:   TimerScheduler{},
		policy:  DefaultPolicy(),
		rules:   DefaultRules,
		logger:  log.Default(),
		step:    StepNotStarted,
		job:     types.JobNotStarted,
		subs:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.budget = NewRetryBudget(o.policy.MaxRetries)
	o.baseCtx, o.cancelBase = context.WithCancel(context.Background())
	return o, nil
}

// ResumeID returns the id this orchestrator verifies.
func (o *Orchestrator) ResumeID() string {
	return o.id
}

// Start begins the first attempt. It is a no-op once started.
func (o *Orchestrator) Start() { o.Advance(Start{}) }

// Retry discards the current attempt and starts over with corrected handles.
func (o *Orchestrator) Retry(h types.SocialHandles) { o.Advance(Retry{Handles: h}) }

// Teardown stops all activity and clears stored handles.
func (o *Orchestrator) Teardown() { o.Advance(Teardown{}) }

// Advance applies one event. It is the only place state changes.
func (o *Orchestrator) Advance(ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	var changed bool
	switch e := ev.(type) {
	case Start:
		changed = o.onStart()
	case Retry:
		changed = o.onRetry(e.Handles)
	case Teardown:
		changed = o.onTeardown()
	case resumeFetched:
		changed = o.settle(e.gen) && o.onResume(e)
	case launchFinished:
		changed = o.settle(e.gen) && o.onLaunch(e)
	case pollFinished:
		changed = o.settle(e.gen) && o.onPoll(e)
	case scoreFetched:
		changed = o.settle(e.gen) && o.onScore(e)
	case timerFired:
		changed = o.onTimer(e)
	}

	if changed {
		o.publish()
	}
	if o.closed {
		for id, ch := range o.subs {
			close(ch)
			delete(o.subs, id)
		}
	}
}

// settle marks the outstanding call as finished if it belongs to the current attempt.
func (o *Orchestrator) settle(gen uint64) bool {
	if gen != o.gen || !o.inflight {
		return false
	}
	o.inflight = false
	if o.cancelCall != nil {
		o.cancelCall()
		o.cancelCall = nil
	}
	return true
}

func (o *Orchestrator) onStart() bool {
	if o.step != StepNotStarted {
		return false
	}
	o.beginAttempt()
	return true
}

func (o *Orchestrator) onRetry(h types.SocialHandles) bool {
	o.stopTimer()
	o.abandonCall()

	h = h.Normalized()
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := o.store.Clear(ctx); err != nil {
		o.logf("credential clear failed: %v", err)
	}
	if err := credentials.Seed(ctx, o.store, h); err != nil {
		o.logf("credential seed failed: %v", err)
	}
	o.overrides = o.overrides.Overlay(h)

	o.beginAttempt()
	return true
}

func (o *Orchestrator) onTeardown() bool {
	o.stopTimer()
	o.abandonCall()
	o.cancelBase()
	if !o.purged {
		o.purge()
	}
	o.closed = true
	o.logf("torn down")
	return true
}

func (o *Orchestrator) beginAttempt() {
	o.gen++
	o.attemptID = uuid.NewString()
	o.budget = NewRetryBudget(o.policy.MaxRetries)
	o.resume = nil
	o.handles = types.SocialHandles{}
	o.job = types.JobNotStarted
	o.score = nil
	o.failure = nil
	o.verifying = false
	o.polls = 0
	o.purged = false
	o.logf("attempt started")
	o.fetchResume()
}

func (o *Orchestrator) fetchResume() {
	o.step = StepFetchingResume
	gen, id := o.gen, o.id
	o.dispatch(func(ctx context.Context) Event {
		resume, err := o.backend.FetchResume(ctx, id)
		return resumeFetched{gen: gen, resume: resume, err: err}
	})
}

func (o *Orchestrator) onResume(e resumeFetched) bool {
	switch {
	case e.err == nil:
		o.resume = e.resume
		o.budget.Reset()
		o.resolveHandles()
		o.launch()
	case errors.Is(e.err, backend.ErrStillProcessing):
		if !o.budget.Spend() {
			o.fail(budgetFailure(StageResume, o.budget.Attempts()), false)
			return true
		}
		o.step = StepAwaitingResume
		o.schedule(o.policy.ResumeRetryDelay, StepFetchingResume)
	default:
		o.fail(failureFromError(StageResume, e.err, o.rules), false)
	}
	return true
}

// resolveHandles merges override, stored and resume-extracted handles. A
// store that cannot be read counts as empty.
func (o *Orchestrator) resolveHandles() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	stored, err := credentials.Load(ctx, o.store)
	if err != nil {
		o.logf("credential load failed: %v", err)
	}
	o.handles = types.ResolveHandles(o.overrides, stored, o.resume.Handles())
}

func (o *Orchestrator) launch() {
	o.step = StepLaunching
	o.verifying = true
	gen, id, handles := o.gen, o.id, o.handles
	o.dispatch(func(ctx context.Context) Event {
		return launchFinished{gen: gen, err: o.backend.LaunchVerification(ctx, id, handles)}
	})
}

func (o *Orchestrator) onLaunch(e launchFinished) bool {
	switch {
	case e.err == nil:
		o.budget.Reset()
		o.job = types.JobProcessing
		o.poll()
	case errors.Is(e.err, backend.ErrStillProcessing):
		if !o.budget.Spend() {
			o.fail(budgetFailure(StageLaunch, o.budget.Attempts()), false)
			return true
		}
		o.step = StepAwaitingLaunch
		o.schedule(o.policy.LaunchRetryDelay, StepLaunching)
	case backend.KindOf(e.err) == backend.KindUpstream:
		// the backend ran verification and it failed
		o.job = types.JobFailed
		o.fail(failureFromError(StageLaunch, e.err, o.rules), true)
	default:
		o.fail(failureFromError(StageLaunch, e.err, o.rules), false)
	}
	return true
}

func (o *Orchestrator) poll() {
	o.step = StepPolling
	o.polls++
	gen, id := o.gen, o.id
	o.dispatch(func(ctx context.Context) Event {
		status, err := o.backend.PollVerification(ctx, id)
		return pollFinished{gen: gen, status: status, err: err}
	})
}

func (o *Orchestrator) onPoll(e pollFinished) bool {
	if e.err != nil {
		o.fail(failureFromError(StagePoll, e.err, o.rules), false)
		return true
	}

	switch e.status.Status {
	case types.JobProcessing:
		o.job = types.JobProcessing
		o.step = StepAwaitingPoll
		o.schedule(o.policy.PollInterval, StepPolling)
	case types.JobCompleted:
		o.job = types.JobCompleted
		o.fetchScore()
	case types.JobFailed:
		o.job = types.JobFailed
		o.fail(verificationFailure(StagePoll, e.status.Error, o.rules), true)
	default:
		o.fail(&Failure{Kind: KindMalformed, Stage: StagePoll, Message: msgMalformed, Detail: string(e.status.Status)}, false)
	}
	return true
}

func (o *Orchestrator) fetchScore() {
	o.step = StepFetchingScore
	gen, id := o.gen, o.id
	o.dispatch(func(ctx context.Context) Event {
		score, err := o.backend.FetchScore(ctx, id)
		return scoreFetched{gen: gen, score: score, err: err}
	})
}

func (o *Orchestrator) onScore(e scoreFetched) bool {
	if e.err != nil {
		o.fail(failureFromError(StageScore, e.err, o.rules), true)
		return true
	}
	o.score = e.score
	o.step = StepDone
	o.purge()
	o.logf("completed score=%.1f polls=%d", e.score.Score, o.polls)
	return true
}

func (o *Orchestrator) onTimer(e timerFired) bool {
	if e.gen != o.gen || e.seq != o.timerSeq || o.cancelTimer == nil {
		return false
	}
	o.cancelTimer = nil
	switch e.next {
	case StepFetchingResume:
		o.fetchResume()
	case StepLaunching:
		o.launch()
	case StepPolling:
		o.poll()
	default:
		return false
	}
	return true
}

// fail records the attempt's one error. Nothing further is scheduled until
// the next Retry. verificationEnded is true once the backend job reached a
// terminal state, which is when stored handles are purged.
func (o *Orchestrator) fail(f *Failure, verificationEnded bool) {
	o.stopTimer()
	o.failure = f
	o.step = StepFailed
	if verificationEnded || o.policy.PurgeOnEarlyFailure {
		o.purge()
	}
	o.logf("failed stage=%s kind=%s class=%s message=%q", f.Stage, f.Kind, f.Class, f.Message)
}

func (o *Orchestrator) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := o.store.Clear(ctx); err != nil {
		o.logf("credential clear failed: %v", err)
		return
	}
	o.purged = true
}

// dispatch runs call on its own goroutine and feeds the result back through
// Advance. Callers hold o.mu.
func (o *Orchestrator) dispatch(call func(ctx context.Context) Event) {
	if o.inflight {
		o.logf("dropping call: another request is outstanding")
		return
	}
	ctx, cancel := context.WithCancel(o.baseCtx)
	o.inflight = true
	o.cancelCall = cancel
	go func() {
		ev := call(ctx)
		o.Advance(ev)
	}()
}

func (o *Orchestrator) abandonCall() {
	if o.cancelCall != nil {
		o.cancelCall()
		o.cancelCall = nil
	}
	o.inflight = false
}

// schedule arms the single continuation timer, replacing any pending one.
func (o *Orchestrator) schedule(d time.Duration, next Step) {
	o.stopTimer()
	o.timerSeq++
	gen, seq := o.gen, o.timerSeq
	o.cancelTimer = o.sched.ScheduleAfter(d, func() {
		o.Advance(timerFired{gen: gen, seq: seq, next: next})
	})
}

func (o *Orchestrator) stopTimer() {
	if o.cancelTimer != nil {
		o.cancelTimer()
		o.cancelTimer = nil
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger == nil {
		return
	}
	o.logger.Printf("verification resume_id=%s attempt=%s "+format, append([]any{o.id, o.attemptID}, args...)...)
}
