package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"taktsiv/internal/core"
)

// State is the intake lifecycle phase.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateConfirming State = "confirming"
)

// Poster posts the confirmed expense. Satisfied by the ledger service.
type Poster interface {
	PostExpense(ctx context.Context, category core.Category, amount core.Money, note string) (core.Expense, error)
}

// Options carries the intake timings. All of them are injectable so tests
// run in milliseconds; zero values fall back to the production defaults.
type Options struct {
	ListenTimeout  time.Duration // how long Listening waits for a transcript
	SettleDelay    time.Duration // pause before the countdown starts
	CountdownTick  time.Duration // granularity of the auto-confirm countdown
	CountdownTicks int           // ticks until auto-confirm
}

func (o Options) withDefaults() Options {
	if o.ListenTimeout <= 0 {
		o.ListenTimeout = 3 * time.Second
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 200 * time.Millisecond
	}
	if o.CountdownTick <= 0 {
		o.CountdownTick = time.Second
	}
	if o.CountdownTicks <= 0 {
		o.CountdownTicks = 3
	}
	return o
}

// Status is a point-in-time snapshot served to clients.
type Status struct {
	State     State             `json:"state"`
	Countdown int               `json:"countdown"`
	Parsed    ParsedTransaction `json:"parsed"`
	LastError string            `json:"lastError,omitempty"`
}

// Intake is the voice entry state machine: Idle -> Listening ->
// Confirming -> Idle. A single mutex orders every transition; timers carry
// the generation they were armed in and no-op when it has moved on, so a
// late countdown fire after an explicit Confirm or Cancel cannot double
// post.
type Intake struct {
	poster Poster
	logger *slog.Logger
	opts   Options

	mu        sync.Mutex
	state     State
	gen       uint64
	countdown int
	parsed    ParsedTransaction
	lastErr   string
	timer     *time.Timer
}

func NewIntake(poster Poster, logger *slog.Logger, opts Options) *Intake {
	return &Intake{
		poster: poster,
		logger: logger,
		opts:   opts.withDefaults(),
		state:  StateIdle,
	}
}

// StartListening arms the listen window. A transcript must arrive within
// ListenTimeout or the machine drops back to Idle with a transient error.
func (i *Intake) StartListening(ctx context.Context) Status {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.advance(StateListening)
	i.lastErr = ""
	gen := i.gen
	i.timer = time.AfterFunc(i.opts.ListenTimeout, func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		if i.gen != gen {
			return
		}
		i.advance(StateIdle)
		i.lastErr = "listening timed out"
		i.logger.InfoContext(ctx, "voice listen window expired", "component", "voice")
	})
	return i.statusLocked()
}

// SubmitTranscript parses the transcript and, when it yields a valid
// pending transaction, moves to Confirming and schedules the auto-confirm
// countdown after the settle delay.
func (i *Intake) SubmitTranscript(ctx context.Context, text string) (Status, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateConfirming {
		return i.statusLocked(), nil
	}

	parsed, err := ParseTranscript(text)
	i.parsed = parsed
	if err != nil {
		i.advance(StateIdle)
		i.lastErr = err.Error()
		i.logger.InfoContext(ctx, "voice transcript rejected",
			"component", "voice", "error", err)
		return i.statusLocked(), err
	}

	i.advance(StateConfirming)
	i.lastErr = ""
	i.countdown = i.opts.CountdownTicks
	gen := i.gen
	i.timer = time.AfterFunc(i.opts.SettleDelay, func() { i.tick(ctx, gen) })
	i.logger.InfoContext(ctx, "voice transaction pending",
		"component", "voice",
		"category", parsed.Category,
		"amount", parsed.Amount.String())
	return i.statusLocked(), nil
}

// tick decrements the countdown once per CountdownTick and auto-confirms
// when it reaches zero.
func (i *Intake) tick(ctx context.Context, gen uint64) {
	i.mu.Lock()
	if i.gen != gen || i.state != StateConfirming {
		i.mu.Unlock()
		return
	}
	i.countdown--
	if i.countdown > 0 {
		i.timer = time.AfterFunc(i.opts.CountdownTick, func() { i.tick(ctx, gen) })
		i.mu.Unlock()
		return
	}
	i.mu.Unlock()
	i.Confirm(ctx)
}

// Confirm posts the pending expense. It is idempotent: only the first call
// in a Confirming window posts, whether it came from the countdown or from
// an explicit request.
func (i *Intake) Confirm(ctx context.Context) (Status, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != StateConfirming {
		return i.statusLocked(), nil
	}
	parsed := i.parsed
	i.advance(StateIdle)

	_, err := i.poster.PostExpense(ctx, parsed.Category, parsed.Amount, parsed.Note)
	if err != nil {
		i.lastErr = err.Error()
		i.logger.ErrorContext(ctx, "voice expense post failed",
			"component", "voice", "error", err)
		return i.statusLocked(), err
	}
	i.lastErr = ""
	i.logger.InfoContext(ctx, "voice expense posted",
		"component", "voice",
		"category", parsed.Category,
		"amount", parsed.Amount.String())
	return i.statusLocked(), nil
}

// Cancel discards the pending transaction. The parsed values stay readable
// for manual form prefill.
func (i *Intake) Cancel(ctx context.Context) Status {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != StateIdle {
		i.advance(StateIdle)
		i.lastErr = ""
		i.logger.InfoContext(ctx, "voice transaction cancelled", "component", "voice")
	}
	return i.statusLocked()
}

// Status reports the current snapshot.
func (i *Intake) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.statusLocked()
}

// advance moves to the next state and invalidates every armed timer by
// bumping the generation. Callers hold the lock.
func (i *Intake) advance(next State) {
	i.gen++
	i.state = next
	if next != StateConfirming {
		i.countdown = 0
	}
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
}

func (i *Intake) statusLocked() Status {
	return Status{
		State:     i.state,
		Countdown: i.countdown,
		Parsed:    i.parsed,
		LastError: i.lastErr,
	}
}
