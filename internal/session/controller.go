// Package session runs the interactive console loop and the simulated
// message producer, dispatching each inbound message through the reply
// pipeline while keeping per-user histories in order.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flemzord/autoreply/internal/pipeline"
	"github.com/flemzord/autoreply/internal/prompt"
	"github.com/flemzord/autoreply/internal/telemetry"
	"github.com/flemzord/autoreply/pkg/message"
)

// State is the controller lifecycle position.
type State int32

// Controller states. Dispatching is reported while at least one message is
// in flight and the controller is still listening.
const (
	StateIdle State = iota
	StateListening
	StateDispatching
	StateStopped
)

// String returns the state label.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateDispatching:
		return "dispatching"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrNotIdle is returned by Run when the controller has already been started.
var ErrNotIdle = errors.New("session: controller already started")

// Store is the history backend. conversation.Store satisfies it.
type Store interface {
	Add(userID, displayName, content string, origin message.Origin) bool
	History(userID string) []message.Message
	ClearAll()
	UserCount() int
	Users() []string
	Len(userID string) int
	Capacity() int
}

// Generator produces replies. pipeline.Pipeline satisfies it.
type Generator interface {
	Generate(ctx context.Context, text, displayName string, history []message.Message) pipeline.Outcome
}

// Status is the snapshot shown by the status command and the gateway.
type Status struct {
	State     string `json:"state"`
	AutoReply bool   `json:"auto_reply"`
	Users     int    `json:"users"`
	InFlight  int64  `json:"in_flight"`

	HistoryCapacity int           `json:"history_capacity"`
	Histories       []UserHistory `json:"histories,omitempty"`
}

// UserHistory is the stored message count for one user.
type UserHistory struct {
	UserID   string `json:"user_id"`
	Messages int    `json:"messages"`
}

// Info is the snapshot shown by the config command.
type Info struct {
	Tier      string                  `json:"tier"`
	Model     string                  `json:"model,omitempty"`
	AutoReply bool                    `json:"auto_reply"`
	Profile   prompt.CharacterProfile `json:"character"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics records dispatch counters in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns the session lifecycle. It is single-use: Run may be called
// once.
type Controller struct {
	cfg   Config
	store Store
	gen   Generator
	sink  Sink
	in    io.Reader
	lanes *LaneLock

	logger  *slog.Logger
	metrics *telemetry.Metrics

	state     atomic.Int32
	inFlight  atomic.Int64
	autoReply atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}

	rngMu sync.Mutex
	rng   *rand.Rand

	// now and sleep are injectable for testing.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates an idle controller reading commands and messages from in.
func New(cfg Config, store Store, gen Generator, sink Sink, in io.Reader, opts ...Option) *Controller {
	cfg = cfg.withDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	c := &Controller{
		cfg:    cfg,
		store:  store,
		gen:    gen,
		sink:   sink,
		in:     in,
		lanes:  NewLaneLock(),
		stopCh: make(chan struct{}),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	c.autoReply.Store(cfg.AutoReply)
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.logger = c.logger.With("component", "session")
	return c
}

// Run starts listening and blocks until the session stops: quit, end of
// input, or ctx cancellation. Both the interactive loop and the simulated
// producer have exited when Run returns.
func (c *Controller) Run(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateListening)) {
		return ErrNotIdle
	}
	c.logger.Info("session started",
		"auto_reply", c.autoReply.Load(),
		"simulate", c.cfg.Simulate,
		"tier", c.cfg.Tier,
	)
	c.sink.Banner(c.Info())
	c.sink.Usage(Commands())

	done := make(chan struct{})
	defer close(done)
	lines := readLines(c.in, done)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.interactive(gctx, lines) })
	if c.cfg.Simulate {
		g.Go(func() error { return c.produce(gctx) })
	}
	err := g.Wait()

	c.Stop()
	c.logger.Info("session stopped")
	c.sink.Notice("👋 程序已退出")
	return err
}

// Stop ends the session. Loops observe it at their next iteration; an
// in-flight dispatch completes. Safe to call more than once.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.state.Store(int32(StateStopped))
		close(c.stopCh)
	})
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	s := State(c.state.Load())
	if s == StateListening && c.inFlight.Load() > 0 {
		return StateDispatching
	}
	return s
}

// AutoReply reports whether inbound messages are dispatched.
func (c *Controller) AutoReply() bool {
	return c.autoReply.Load()
}

// SetAutoReply turns dispatch on or off.
func (c *Controller) SetAutoReply(on bool) {
	c.autoReply.Store(on)
}

// Status returns the status command snapshot.
func (c *Controller) Status() Status {
	ids := c.store.Users()
	histories := make([]UserHistory, 0, len(ids))
	for _, id := range ids {
		histories = append(histories, UserHistory{UserID: id, Messages: c.store.Len(id)})
	}
	return Status{
		State:           c.State().String(),
		AutoReply:       c.autoReply.Load(),
		Users:           c.store.UserCount(),
		InFlight:        c.inFlight.Load(),
		HistoryCapacity: c.store.Capacity(),
		Histories:       histories,
	}
}

// Info returns the config command snapshot.
func (c *Controller) Info() Info {
	return Info{
		Tier:      c.cfg.Tier,
		Model:     c.cfg.Model,
		AutoReply: c.autoReply.Load(),
		Profile:   c.cfg.Profile,
	}
}

func (c *Controller) listening() bool {
	return State(c.state.Load()) == StateListening
}

// readLines feeds lines from r until EOF or done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// interactive consumes console lines until quit, end of input or ctx ends.
func (c *Controller) interactive(ctx context.Context, lines <-chan string) error {
	for c.listening() {
		c.sink.Prompt()
		select {
		case <-ctx.Done():
			c.sink.Notice("\n🛑 接收到停止信号...")
			c.Stop()
			return nil
		case <-c.stopCh:
			return nil
		case line, ok := <-lines:
			if !ok {
				c.logger.Info("end of input")
				c.Stop()
				return nil
			}
			c.handleLine(ctx, line)
		}
	}
	return nil
}

// handleLine routes one console line to a command or a dispatch.
func (c *Controller) handleLine(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if cmd, ok := lookupCommand(line); ok {
		cmd.run(c)
		return
	}
	if text, ok := parseUserPrefix(line); ok {
		if text == "" {
			c.sink.Notice("用法: user:消息")
			return
		}
		c.Dispatch(ctx, SourceInteractive, PrefixedUser, PrefixedUser, text)
		return
	}
	c.Dispatch(ctx, SourceInteractive, UnknownUser, c.syntheticName(), line)
}

// produce emits the demo script, one message per interval, while listening.
func (c *Controller) produce(ctx context.Context) error {
	timer := time.NewTimer(c.cfg.SimulateInterval)
	defer timer.Stop()

	for i, dm := range c.cfg.DemoScript {
		if !c.listening() {
			return nil
		}
		if i > 0 {
			timer.Reset(c.cfg.SimulateInterval)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-c.stopCh:
			return nil
		case <-timer.C:
		}
		if !c.listening() {
			return nil
		}
		c.sink.Simulated(dm.UserID, dm.Text)
		c.Dispatch(ctx, SourceSimulated, dm.UserID, dm.UserID, dm.Text)
	}
	c.logger.Debug("demo script finished")
	return nil
}

// Dispatch processes one inbound message: it snapshots the sender's
// history, records the message, generates a reply, waits the thinking
// delay, shows the reply and records it. Dispatches for the same user are
// serialized.
func (c *Controller) Dispatch(ctx context.Context, source, userID, displayName, text string) {
	if !c.autoReply.Load() {
		c.logger.Debug("auto reply off, message ignored", "user", userID, "source", source)
		return
	}

	c.inFlight.Add(1)
	c.metrics.DispatchStarted()
	defer func() {
		c.inFlight.Add(-1)
		c.metrics.DispatchDone()
	}()

	c.lanes.Acquire(userID)
	defer c.lanes.Release(userID)

	c.metrics.RecordMessage(source)
	c.sink.Inbound(displayName, text, c.now())

	history := c.store.History(userID)
	c.record(userID, displayName, text, message.OriginHuman)

	c.sink.Thinking()
	out := c.gen.Generate(ctx, text, displayName, history)
	c.logger.Debug("reply generated",
		"user", userID,
		"tier", out.Tier,
		"attempts", len(out.Attempts),
		"duration", out.Duration,
	)

	c.sleep(ctx, c.thinkDelay())

	c.sink.Reply(out.Text, string(out.Tier), c.now())
	c.record(userID, displayName, out.Text, message.OriginGenerated)
}

func (c *Controller) record(userID, displayName, text string, origin message.Origin) {
	if c.store.Add(userID, displayName, text, origin) {
		return
	}
	c.metrics.RecordStoreFault()
	c.logger.Warn("history append failed, continuing",
		"user", userID,
		"origin", origin,
	)
}

// syntheticName returns a display name of the form 用户_NNNN.
func (c *Controller) syntheticName() string {
	c.rngMu.Lock()
	n := 1000 + c.rng.IntN(9000)
	c.rngMu.Unlock()
	return fmt.Sprintf("用户_%d", n)
}

// thinkDelay draws uniformly from [ThinkMin, ThinkMax].
func (c *Controller) thinkDelay() time.Duration {
	lo, hi := c.cfg.ThinkMin, c.cfg.ThinkMax
	if hi <= lo {
		return lo
	}
	c.rngMu.Lock()
	d := lo + time.Duration(c.rng.Int64N(int64(hi-lo)+1))
	c.rngMu.Unlock()
	return d
}

// sleepCtx waits for d or until ctx ends.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
