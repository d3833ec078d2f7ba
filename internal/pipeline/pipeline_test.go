package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/flemzord/autoreply/internal/pipeline"
	"github.com/flemzord/autoreply/internal/provider"
	"github.com/flemzord/autoreply/internal/provider/providertest"
	"github.com/flemzord/autoreply/internal/rules"
	"github.com/flemzord/autoreply/modules/provider/openai"
	"github.com/flemzord/autoreply/pkg/message"
)

// faultyEngine is a rule engine that always fails.
type faultyEngine struct {
	panics bool
}

func (f faultyEngine) Reply(string, string) (string, error) {
	if f.panics {
		panic("template table corrupted")
	}
	return "", errors.New("engine offline")
}

// emptyEngine returns a blank reply.
type emptyEngine struct{}

func (emptyEngine) Reply(string, string) (string, error) { return "  ", nil }

func renderAll(tmpls []string, name string) []string {
	out := make([]string, len(tmpls))
	for i, t := range tmpls {
		out[i] = rules.Render(t, name)
	}
	return out
}

func tiers(o pipeline.Outcome) []pipeline.Tier {
	out := make([]pipeline.Tier, len(o.Attempts))
	for i, a := range o.Attempts {
		out[i] = a.Tier
	}
	return out
}

func newOpenAI(t *testing.T, handler http.Handler, timeout string) *openai.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := openai.New(openai.Config{APIKey: "sk-test", BaseURL: srv.URL, Timeout: timeout})
	if err != nil {
		t.Fatalf("openai.New() error: %v", err)
	}
	return p
}

func TestGenerate_RemoteSuccess(t *testing.T) {
	t.Parallel()

	mock := providertest.Reply("  今天阳光明媚！ ")
	p := pipeline.New(rules.NewSeeded(1), pipeline.WithRemote(mock))

	history := []message.Message{
		{Content: "你好！", Origin: message.OriginHuman},
		{Content: "你好 demo_user！", Origin: message.OriginGenerated},
	}
	out := p.Generate(context.Background(), "今天天气怎么样？", "demo_user", history)

	if out.Tier != pipeline.TierRemote {
		t.Fatalf("Tier = %s, want remote", out.Tier)
	}
	if out.Text != "今天阳光明媚！" {
		t.Errorf("Text = %q", out.Text)
	}
	if len(out.Attempts) != 1 || out.Attempts[0].Err != nil {
		t.Errorf("Attempts = %+v", out.Attempts)
	}

	req := mock.LastRequest()
	if len(req.Messages) != 4 {
		t.Fatalf("prompt len = %d, want 4", len(req.Messages))
	}
	if req.Messages[0].Role != provider.MessageRoleSystem {
		t.Errorf("first turn role = %s", req.Messages[0].Role)
	}
	if req.Messages[2].Role != provider.MessageRoleAssistant {
		t.Errorf("generated history should map to assistant, got %s", req.Messages[2].Role)
	}
	if last := req.Messages[3]; last.Content != "demo_user说: 今天天气怎么样？" {
		t.Errorf("current turn = %q", last.Content)
	}
}

func TestGenerate_RemoteHTTPSuccess(t *testing.T) {
	t.Parallel()

	remote := newOpenAI(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"在写代码呢"}}]}`))
	}), "")

	p := pipeline.New(rules.NewSeeded(1), pipeline.WithRemote(remote))
	out := p.Generate(context.Background(), "在干嘛呢？", "friend", nil)
	if out.Tier != pipeline.TierRemote || out.Text != "在写代码呢" {
		t.Errorf("Outcome = %+v", out)
	}
}

func TestGenerate_RemoteFailureFallsToRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		block   bool
		timeout string
		wantErr error
	}{
		{
			name: "http_500",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: provider.ErrRemoteStatus,
		},
		{
			name: "malformed_body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices": "nope"}`))
			},
			wantErr: provider.ErrParse,
		},
		{
			name:    "timeout",
			block:   true,
			timeout: "50ms",
			wantErr: provider.ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := tt.handler
			release := make(chan struct{})
			if tt.block {
				handler = func(_ http.ResponseWriter, r *http.Request) {
					select {
					case <-r.Context().Done():
					case <-release:
					}
				}
			}

			remote := newOpenAI(t, handler, tt.timeout)
			t.Cleanup(func() { close(release) })
			health := provider.NewHealth(0)
			p := pipeline.New(rules.NewSeeded(1),
				pipeline.WithRemote(remote),
				pipeline.WithHealth(health),
			)

			out := p.Generate(context.Background(), "你好！", "demo_user", nil)

			if out.Tier != pipeline.TierLocalRule {
				t.Fatalf("Tier = %s, want local_rule", out.Tier)
			}
			if out.Text == "" {
				t.Fatal("empty reply")
			}
			if !slices.Contains(renderAll(rules.Templates(rules.Greeting), "demo_user"), out.Text) {
				t.Errorf("Text = %q, not a greeting template", out.Text)
			}
			if got := tiers(out); !slices.Equal(got, []pipeline.Tier{pipeline.TierRemote, pipeline.TierLocalRule}) {
				t.Errorf("attempted tiers = %v", got)
			}
			if !errors.Is(out.Attempts[0].Err, tt.wantErr) {
				t.Errorf("remote error = %v, want %v", out.Attempts[0].Err, tt.wantErr)
			}
			if health.State() != provider.HealthDegraded {
				t.Errorf("health = %v, want degraded", health.State())
			}
		})
	}
}

func TestGenerate_EmptyRemoteContentFallsThrough(t *testing.T) {
	t.Parallel()

	p := pipeline.New(rules.NewSeeded(1), pipeline.WithRemote(providertest.Reply("   ")))
	out := p.Generate(context.Background(), "hello", "u", nil)
	if out.Tier != pipeline.TierLocalRule {
		t.Errorf("Tier = %s, want local_rule", out.Tier)
	}
	if !errors.Is(out.Attempts[0].Err, provider.ErrParse) {
		t.Errorf("remote error = %v, want ErrParse", out.Attempts[0].Err)
	}
}

func TestGenerate_RemotePanicFallsThrough(t *testing.T) {
	t.Parallel()

	mock := &providertest.MockProvider{
		CompleteFunc: func(context.Context, provider.CompletionRequest) (provider.CompletionResponse, error) {
			panic("driver bug")
		},
	}
	p := pipeline.New(rules.NewSeeded(1), pipeline.WithRemote(mock))
	if out := p.Generate(context.Background(), "hello", "u", nil); out.Tier != pipeline.TierLocalRule {
		t.Errorf("Tier = %s, want local_rule", out.Tier)
	}
}

func TestGenerate_NoRemoteStartsAtRules(t *testing.T) {
	t.Parallel()

	p := pipeline.New(rules.NewSeeded(1))
	if p.RemoteConfigured() {
		t.Fatal("RemoteConfigured() = true without a provider")
	}
	out := p.Generate(context.Background(), "明天有空吗？", "colleague", nil)
	if out.Tier != pipeline.TierLocalRule || len(out.Attempts) != 1 {
		t.Errorf("Outcome = %+v", out)
	}
	if !slices.Contains(renderAll(rules.Templates(rules.Question), "colleague"), out.Text) {
		t.Errorf("Text = %q, not a question template", out.Text)
	}
}

func TestGenerate_FallbackNeverFails(t *testing.T) {
	t.Parallel()

	engines := map[string]pipeline.RuleEngine{
		"error": faultyEngine{},
		"panic": faultyEngine{panics: true},
		"empty": emptyEngine{},
		"nil":   nil,
	}
	want := renderAll(pipeline.FallbackTemplates(), "friend")

	for name, engine := range engines {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := pipeline.New(engine,
				pipeline.WithRemote(providertest.Fail(&provider.StatusError{Code: 503})),
				pipeline.WithRand(rand.New(rand.NewPCG(1, 2))),
			)
			for range 20 {
				out := p.Generate(context.Background(), "在干嘛呢？", "friend", nil)
				if out.Tier != pipeline.TierFallback {
					t.Fatalf("Tier = %s, want fallback", out.Tier)
				}
				if !slices.Contains(want, out.Text) {
					t.Fatalf("Text = %q, not a fallback template", out.Text)
				}
				if !errors.Is(out.Attempts[1].Err, pipeline.ErrRuleFault) {
					t.Fatalf("rule error = %v, want ErrRuleFault", out.Attempts[1].Err)
				}
			}
		})
	}
}

func TestGenerate_DoesNotMutateHistory(t *testing.T) {
	t.Parallel()

	history := []message.Message{{Content: "a", Origin: message.OriginHuman}}
	p := pipeline.New(rules.NewSeeded(1), pipeline.WithRemote(providertest.Reply("ok")))
	p.Generate(context.Background(), "b", "u", history)
	if len(history) != 1 || history[0].Content != "a" {
		t.Errorf("history mutated: %+v", history)
	}
}

func TestGenerate_RemoteTimeoutOption(t *testing.T) {
	t.Parallel()

	mock := &providertest.MockProvider{
		CompleteFunc: func(ctx context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
			<-ctx.Done()
			return provider.CompletionResponse{}, fmt.Errorf("%w: %w", provider.ErrTransport, ctx.Err())
		},
	}
	p := pipeline.New(rules.NewSeeded(1),
		pipeline.WithRemote(mock),
		pipeline.WithRemoteTimeout(20*time.Millisecond),
	)

	start := time.Now()
	out := p.Generate(context.Background(), "hi", "u", nil)
	if out.Tier != pipeline.TierLocalRule {
		t.Errorf("Tier = %s, want local_rule", out.Tier)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("remote timeout not applied, took %v", elapsed)
	}
}

func TestGenerate_EmitsSpan(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p := pipeline.New(rules.NewSeeded(1),
		pipeline.WithRemote(providertest.Fail(&provider.StatusError{Code: 500})),
		pipeline.WithTracer(tp.Tracer("test")),
	)
	p.Generate(context.Background(), "hi", "u", nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "pipeline.Generate" {
		t.Errorf("span name = %q", span.Name())
	}

	attrs := make(map[string]string)
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["reply.tier"] != "local_rule" {
		t.Errorf("reply.tier = %q, want local_rule", attrs["reply.tier"])
	}
	if attrs["reply.attempts"] != "2" {
		t.Errorf("reply.attempts = %q, want 2", attrs["reply.attempts"])
	}

	events := span.Events()
	if len(events) != 1 || events[0].Name != "tier.failed" {
		t.Fatalf("events = %+v", events)
	}
}
