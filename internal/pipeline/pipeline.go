// Package pipeline produces a reply for one inbound message by trying the
// remote model, then the keyword rules, then a fixed acknowledgment.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/flemzord/autoreply/internal/prompt"
	"github.com/flemzord/autoreply/internal/provider"
	"github.com/flemzord/autoreply/internal/rules"
	"github.com/flemzord/autoreply/internal/telemetry"
	"github.com/flemzord/autoreply/pkg/message"
)

// Tier names a reply strategy.
type Tier string

// Tiers in the order they are tried.
const (
	TierRemote    Tier = "remote"
	TierLocalRule Tier = "local_rule"
	TierFallback  Tier = "fallback"
)

// DefaultRemoteTimeout bounds a single remote attempt.
const DefaultRemoteTimeout = 30 * time.Second

// ErrRuleFault marks a failure or panic inside the rule engine.
var ErrRuleFault = errors.New("pipeline: rule engine fault")

// fallbackTemplates are the acknowledgments of last resort.
var fallbackTemplates = []string{
	"收到，{name}！",
	"好的，{name}！",
	"明白，{name}！",
	"OK，{name}！",
	"好的好的，{name}！",
}

// FallbackTemplates returns a copy of the acknowledgment templates.
func FallbackTemplates() []string {
	out := make([]string, len(fallbackTemplates))
	copy(out, fallbackTemplates)
	return out
}

// RuleEngine is the local-rule tier. rules.Engine satisfies it.
type RuleEngine interface {
	Reply(text, displayName string) (string, error)
}

// Attempt records one tier that was tried and why it fell through.
// Err is nil for the tier that produced the reply.
type Attempt struct {
	Tier Tier
	Err  error
}

// Outcome is the result of Generate. Text is never empty.
type Outcome struct {
	Text     string
	Tier     Tier
	Attempts []Attempt
	Duration time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRemote enables the remote tier. A nil provider leaves it disabled.
func WithRemote(p provider.Provider) Option {
	return func(pl *Pipeline) { pl.remote = p }
}

// WithHealth reports remote attempt outcomes to h.
func WithHealth(h *provider.Health) Option {
	return func(pl *Pipeline) { pl.health = h }
}

// WithProfile sets the character used to build remote prompts.
func WithProfile(p prompt.CharacterProfile) Option {
	return func(pl *Pipeline) { pl.profile = p.WithDefaults() }
}

// WithRemoteTimeout overrides DefaultRemoteTimeout. Non-positive values are ignored.
func WithRemoteTimeout(d time.Duration) Option {
	return func(pl *Pipeline) {
		if d > 0 {
			pl.timeout = d
		}
	}
}

// WithRand sets the source for the fallback tier.
func WithRand(r *rand.Rand) Option {
	return func(pl *Pipeline) { pl.rng = r }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// WithMetrics records tier outcomes in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

// WithTracer emits one span per Generate call.
func WithTracer(t trace.Tracer) Option {
	return func(pl *Pipeline) { pl.tracer = t }
}

// Pipeline is safe for concurrent use and holds no conversation state.
type Pipeline struct {
	remote  provider.Provider
	health  *provider.Health
	rules   RuleEngine
	profile prompt.CharacterProfile
	timeout time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// New creates a pipeline around the given rule engine.
func New(engine RuleEngine, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:   engine,
		profile: prompt.DefaultProfile(),
		timeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.tracer == nil {
		p.tracer = noop.NewTracerProvider().Tracer("")
	}
	return p
}

// RemoteConfigured reports whether the remote tier will be tried.
func (p *Pipeline) RemoteConfigured() bool {
	return p.remote != nil
}

// Profile returns the character used for remote prompts.
func (p *Pipeline) Profile() prompt.CharacterProfile {
	return p.profile
}

// Generate returns a non-empty reply for text. history is the sender's
// conversation before this message; it is read, never modified.
func (p *Pipeline) Generate(ctx context.Context, text, displayName string, history []message.Message) Outcome {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.Generate",
		trace.WithAttributes(
			attribute.Int("message.length", len(text)),
			attribute.Int("history.length", len(history)),
			attribute.Bool("remote.configured", p.remote != nil),
		),
	)
	defer span.End()

	out := p.generate(ctx, text, displayName, history)
	out.Duration = time.Since(start)

	for _, a := range out.Attempts {
		if a.Err == nil {
			continue
		}
		span.AddEvent("tier.failed", trace.WithAttributes(
			attribute.String("tier", string(a.Tier)),
			attribute.String("kind", failureKind(a.Err)),
		))
	}
	span.SetAttributes(
		attribute.String("reply.tier", string(out.Tier)),
		attribute.Int("reply.attempts", len(out.Attempts)),
	)
	p.metrics.RecordReply(string(out.Tier), out.Duration)
	return out
}

func (p *Pipeline) generate(ctx context.Context, text, displayName string, history []message.Message) Outcome {
	var attempts []Attempt

	if p.remote != nil {
		reply, err := p.tryRemote(ctx, text, displayName, history)
		attempts = append(attempts, Attempt{Tier: TierRemote, Err: err})
		if err == nil {
			return Outcome{Text: reply, Tier: TierRemote, Attempts: attempts}
		}
		p.fellThrough(TierRemote, err)
	}

	reply, err := p.tryRules(text, displayName)
	attempts = append(attempts, Attempt{Tier: TierLocalRule, Err: err})
	if err == nil {
		return Outcome{Text: reply, Tier: TierLocalRule, Attempts: attempts}
	}
	p.fellThrough(TierLocalRule, err)

	attempts = append(attempts, Attempt{Tier: TierFallback})
	return Outcome{Text: p.fallback(displayName), Tier: TierFallback, Attempts: attempts}
}

func (p *Pipeline) tryRemote(ctx context.Context, text, displayName string, history []message.Message) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline: remote panic: %v", r)
		}
		if p.health == nil {
			return
		}
		if err != nil {
			p.health.RecordFailure(err)
		} else {
			p.health.RecordSuccess()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.remote.Complete(ctx, provider.CompletionRequest{
		Messages: prompt.Build(p.profile, history, displayName, text),
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("pipeline: %w: empty content", provider.ErrParse)
	}
	return reply, nil
}

func (p *Pipeline) tryRules(text, displayName string) (reply string, err error) {
	if p.rules == nil {
		return "", fmt.Errorf("%w: no engine", ErrRuleFault)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrRuleFault, r)
		}
	}()

	reply, err = p.rules.Reply(text, displayName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRuleFault, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty reply", ErrRuleFault)
	}
	return reply, nil
}

func (p *Pipeline) fallback(displayName string) string {
	p.rngMu.Lock()
	i := p.rng.IntN(len(fallbackTemplates))
	p.rngMu.Unlock()
	return rules.Render(fallbackTemplates[i], displayName)
}

func (p *Pipeline) fellThrough(tier Tier, err error) {
	kind := failureKind(err)
	p.metrics.RecordTierFailure(string(tier), kind)
	p.logger.Warn("tier failed, falling through",
		"tier", tier,
		"kind", kind,
		"error", err,
	)
}

// failureKind labels err for logs, spans and metrics.
func failureKind(err error) string {
	if errors.Is(err, ErrRuleFault) {
		return "rule_fault"
	}
	return provider.Kind(err)
}
