// Package kiosk runs the questionnaire flow of one kiosk: welcome → form (two steps) → thank-you → welcome.
//
// Each [Session] owns a single event loop goroutine. User commands, timer expiries and persistence results are
// all closures executed on that goroutine one at a time, so session state is never shared and needs no locks.
// Timers are created through an injected [clock.WithDelayedExecution] and every timer callback carries a token;
// a callback whose token has been superseded is dropped, so cancelled timers can never fire a late reset.
package kiosk

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/models"
	"github.com/myrjola/totem/internal/persistence"
	"github.com/myrjola/totem/internal/questionnaire"
	"k8s.io/utils/clock"
)

var ErrClosed = errors.NewSentinel("kiosk session closed")

// Submitter persists a completed answer set. [persistence.Gateway] is the production implementation.
type Submitter interface {
	Submit(ctx context.Context, answers models.AnswerSet) persistence.Result
}

// Config holds the timings of a session.
type Config struct {
	// InactivityTimeout is how long the kiosk waits for input before returning to the welcome screen.
	InactivityTimeout time.Duration
	// Countdown is the number of ticks the thank-you screen stays up.
	Countdown int
	// CountdownTick is the duration of one countdown tick.
	CountdownTick time.Duration
	// SaveTimeout bounds a single persistence attempt.
	SaveTimeout time.Duration
}

// DefaultConfig returns the timings used on the kiosk floor.
func DefaultConfig() Config {
	return Config{
		InactivityTimeout: 3 * time.Minute, //nolint:mnd // 3 minutes
		Countdown:         15,              //nolint:mnd // 15 seconds
		CountdownTick:     time.Second,
		SaveTimeout:       15 * time.Second, //nolint:mnd // 15 seconds
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = d.InactivityTimeout
	}
	if c.Countdown <= 0 {
		c.Countdown = d.Countdown
	}
	if c.CountdownTick <= 0 {
		c.CountdownTick = d.CountdownTick
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = d.SaveTimeout
	}
	return c
}

// state is owned by the event loop goroutine.
type state struct {
	screen     Screen
	step       questionnaire.Step
	answers    models.AnswerSet
	errors     questionnaire.Errors
	saveStatus SaveStatus
	countdown  int
	// generation changes whenever an answer set is started or discarded. Persistence results of an older
	// generation are stale.
	generation uint64

	watchdog       clock.Timer
	watchdogToken  uint64
	countdownTimer clock.Timer
	countdownToken uint64
}

// Session is the state machine of one kiosk.
type Session struct {
	id        string
	cfg       Config
	clock     clock.WithDelayedExecution
	submitter Submitter
	metrics   *Metrics
	logger    *slog.Logger

	events   chan func()
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	// ctx lives as long as the session; in-flight persistence is cancelled on Close.
	ctx    context.Context
	cancel context.CancelFunc
	// lastSeen is the unix nano time of the last qualifying input event.
	lastSeen atomic.Int64
	// pristine mirrors whether the session sits on an untouched welcome screen.
	pristine atomic.Bool

	st state
}

// NewSession creates a session on the welcome screen and starts its event loop and inactivity watchdog.
// Call Close to release it.
func NewSession(
	id string,
	cfg Config,
	clk clock.WithDelayedExecution,
	submitter Submitter,
	metrics *Metrics,
	logger *slog.Logger,
) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		cfg:       cfg.withDefaults(),
		clock:     clk,
		submitter: submitter,
		metrics:   metrics,
		logger:    logger.With("source", "kiosk.Session", "kiosk_id", id),
		events:    make(chan func()),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		stopOnce:  sync.Once{},
		ctx:       ctx,
		cancel:    cancel,
		lastSeen:  atomic.Int64{},
		pristine:  atomic.Bool{},
		st: state{
			screen:     ScreenWelcome,
			step:       questionnaire.StepIdentity,
			errors:     questionnaire.Errors{},
			saveStatus: SaveIdle,
		},
	}
	// The loop is not running yet, so it is safe to touch state here.
	s.touch()
	s.pristine.Store(true)
	s.metrics.sessionOpened()
	go s.run()
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// LastSeen returns the time of the last qualifying input event.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Pristine reports whether the session is on the welcome screen with no answers and no save in flight.
// Evicting a pristine session loses nothing.
func (s *Session) Pristine() bool {
	return s.pristine.Load()
}

// Close stops the timers and the event loop. Results of in-flight submissions are discarded.
// Close is idempotent and blocks until the loop has exited.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			s.teardown()
			return
		case ev := <-s.events:
			ev()
			s.pristine.Store(s.isPristine())
		}
	}
}

func (s *Session) teardown() {
	s.stopCountdown()
	if s.st.watchdog != nil {
		s.st.watchdog.Stop()
		s.st.watchdog = nil
	}
	s.st.watchdogToken++
	s.cancel()
	s.metrics.sessionClosed()
	s.logger.Debug("session closed")
}

// post schedules fn on the event loop without waiting for it. It is used from timer callbacks and
// persistence goroutines, which must never block the caller.
func (s *Session) post(fn func()) {
	go func() {
		select {
		case s.events <- fn:
		case <-s.done:
		}
	}()
}

// dispatch runs fn on the event loop and returns the resulting view.
func (s *Session) dispatch(ctx context.Context, fn func()) (View, error) {
	reply := make(chan View, 1)
	ev := func() {
		fn()
		// Stored before replying so that callers observe it as soon as the command returns.
		s.pristine.Store(s.isPristine())
		reply <- s.view()
	}
	select {
	case s.events <- ev:
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, errors.Wrap(ctx.Err(), "dispatch")
	}
	// An accepted event always runs to completion before the loop can exit, so the reply is guaranteed.
	return <-reply, nil
}

func (s *Session) view() View {
	errs := make(questionnaire.Errors, len(s.st.errors))
	for k, v := range s.st.errors {
		errs[k] = v
	}
	return View{
		Screen:     s.st.screen,
		Step:       s.st.step,
		Answers:    s.st.answers,
		Errors:     errs,
		SaveStatus: s.st.saveStatus,
		Countdown:  s.st.countdown,
	}
}

// View returns the current projection. It is not an input event and does not rearm the watchdog.
func (s *Session) View(ctx context.Context) (View, error) {
	return s.dispatch(ctx, func() {})
}

// Touch records a qualifying input event such as a tap or key press.
func (s *Session) Touch(ctx context.Context) (View, error) {
	return s.dispatch(ctx, s.touch)
}

// Start leaves the welcome screen and begins a new, empty answer set.
func (s *Session) Start(ctx context.Context) (View, error) {
	return s.dispatch(ctx, func() {
		s.touch()
		if s.st.screen != ScreenWelcome {
			s.ignored("start")
			return
		}
		s.st.generation++
		s.st.screen = ScreenForm
		s.st.step = questionnaire.StepIdentity
		s.st.answers = models.AnswerSet{}
		s.st.errors = questionnaire.Errors{}
		s.st.saveStatus = SaveIdle
		s.logger.Info("questionnaire started")
	})
}

// SetField normalizes raw and stores it in field. The field's validation error is cleared right away.
// Invalid fields or options are rejected and leave the answer set unchanged.
func (s *Session) SetField(ctx context.Context, field models.Field, raw string) (View, error) {
	var setErr error
	v, err := s.dispatch(ctx, func() {
		s.touch()
		if s.st.screen != ScreenForm {
			s.ignored("set field")
			return
		}
		value, err := questionnaire.Normalize(field, raw)
		if err != nil {
			setErr = errors.Wrap(err, "set field", slog.String("field", string(field)))
			return
		}
		s.st.answers = s.st.answers.With(field, value)
		delete(s.st.errors, field)
	})
	if err != nil {
		return v, err
	}
	return v, setErr
}

// Advance moves from the first to the second form step if the first step validates.
func (s *Session) Advance(ctx context.Context) (View, error) {
	return s.dispatch(ctx, func() {
		s.touch()
		if s.st.screen != ScreenForm || s.st.step != questionnaire.StepIdentity {
			s.ignored("advance")
			return
		}
		s.st.errors = questionnaire.Validate(s.st.answers, questionnaire.StepIdentity)
		if len(s.st.errors) > 0 {
			return
		}
		s.st.step = questionnaire.StepConsultation
	})
}

// Back returns from the second to the first form step without validation.
func (s *Session) Back(ctx context.Context) (View, error) {
	return s.dispatch(ctx, func() {
		s.touch()
		if s.st.screen != ScreenForm || s.st.step != questionnaire.StepConsultation {
			s.ignored("back")
			return
		}
		s.st.step = questionnaire.StepIdentity
		s.st.errors = questionnaire.Errors{}
	})
}

// Submit validates the second step, shows the thank-you screen and persists the answers in the background.
// The screen does not wait for, nor roll back on, the persistence result; it only changes the save status.
func (s *Session) Submit(ctx context.Context) (View, error) {
	return s.dispatch(ctx, func() {
		s.touch()
		if s.st.saveStatus == SaveSaving {
			s.ignored("submit while saving")
			return
		}
		if s.st.screen != ScreenForm || s.st.step != questionnaire.StepConsultation {
			s.ignored("submit")
			return
		}
		s.st.errors = questionnaire.Validate(s.st.answers, questionnaire.StepConsultation)
		if len(s.st.errors) > 0 {
			return
		}
		s.st.screen = ScreenThankYou
		s.st.saveStatus = SaveSaving
		s.startCountdown()
		go s.persist(s.st.generation, s.st.answers)
	})
}

// Reset discards the answer set and returns to the welcome screen. It is a no-op on a pristine welcome screen.
func (s *Session) Reset(ctx context.Context) (View, error) {
	return s.dispatch(ctx, func() {
		s.touch()
		s.resetToWelcome(ResetUser)
	})
}

func (s *Session) persist(generation uint64, answers models.AnswerSet) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.SaveTimeout)
	defer cancel()
	start := s.clock.Now()
	res := s.submitter.Submit(ctx, answers)
	s.metrics.observeSave(res, s.clock.Since(start))
	s.post(func() {
		s.applyResult(generation, res)
	})
}

func (s *Session) applyResult(generation uint64, res persistence.Result) {
	if generation != s.st.generation || s.st.screen != ScreenThankYou || s.st.saveStatus != SaveSaving {
		s.logger.Info("discarded stale save result", slog.Bool("success", res.Success))
		return
	}
	if res.Success {
		s.st.saveStatus = SaveSuccess
		return
	}
	s.st.saveStatus = SaveError
	s.logger.Warn("save failed", slog.String("reason", res.Reason))
}

func (s *Session) isPristine() bool {
	return s.st.screen == ScreenWelcome && s.st.answers.IsEmpty() && s.st.saveStatus == SaveIdle
}

func (s *Session) resetToWelcome(reason ResetReason) {
	pristine := s.isPristine()
	s.stopCountdown()
	s.st.screen = ScreenWelcome
	s.st.step = questionnaire.StepIdentity
	s.st.answers = models.AnswerSet{}
	s.st.errors = questionnaire.Errors{}
	s.st.saveStatus = SaveIdle
	if pristine {
		return
	}
	s.st.generation++
	s.metrics.reset(reason)
	s.logger.Info("returned to welcome", slog.String("reason", string(reason)))
}

// touch rearms the inactivity watchdog.
func (s *Session) touch() {
	s.lastSeen.Store(s.clock.Now().UnixNano())
	s.armWatchdog()
}

func (s *Session) armWatchdog() {
	if s.st.watchdog != nil {
		s.st.watchdog.Stop()
	}
	s.st.watchdogToken++
	token := s.st.watchdogToken
	s.st.watchdog = s.clock.AfterFunc(s.cfg.InactivityTimeout, func() {
		s.post(func() {
			if token != s.st.watchdogToken {
				return
			}
			s.resetToWelcome(ResetInactivity)
			s.armWatchdog()
		})
	})
}

func (s *Session) startCountdown() {
	s.stopCountdown()
	s.st.countdown = s.cfg.Countdown
	s.scheduleTick()
}

func (s *Session) scheduleTick() {
	s.st.countdownToken++
	token := s.st.countdownToken
	s.st.countdownTimer = s.clock.AfterFunc(s.cfg.CountdownTick, func() {
		s.post(func() {
			if token != s.st.countdownToken {
				return
			}
			s.tick()
		})
	})
}

func (s *Session) tick() {
	s.st.countdown--
	if s.st.countdown > 0 {
		s.scheduleTick()
		return
	}
	s.resetToWelcome(ResetCountdown)
}

func (s *Session) stopCountdown() {
	if s.st.countdownTimer != nil {
		s.st.countdownTimer.Stop()
		s.st.countdownTimer = nil
	}
	s.st.countdownToken++
	s.st.countdown = 0
}

func (s *Session) ignored(command string) {
	s.logger.Debug("ignored command", slog.String("command", command), slog.String("screen", string(s.st.screen)))
}
