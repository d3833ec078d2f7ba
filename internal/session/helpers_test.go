package session

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/autoreply/internal/pipeline"
	"github.com/flemzord/autoreply/pkg/message"
)

// genCall captures one Generate invocation.
type genCall struct {
	text    string
	name    string
	history []message.Message
}

// fakeGen answers "re:<text>" unless fn is set.
type fakeGen struct {
	mu    sync.Mutex
	calls []genCall
	fn    func(ctx context.Context, text, name string) pipeline.Outcome
}

func (g *fakeGen) Generate(ctx context.Context, text, name string, history []message.Message) pipeline.Outcome {
	g.mu.Lock()
	g.calls = append(g.calls, genCall{text: text, name: name, history: history})
	fn := g.fn
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, text, name)
	}
	return pipeline.Outcome{Text: "re:" + text, Tier: pipeline.TierLocalRule}
}

func (g *fakeGen) Calls() []genCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]genCall(nil), g.calls...)
}

// recordingSink keeps every event and signals each reply on replies.
type recordingSink struct {
	mu        sync.Mutex
	inbound   []string
	simulated []string
	notices   []string
	statuses  []Status
	configs   int
	usages    int
	replies   chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{replies: make(chan string, 64)}
}

func (s *recordingSink) Banner(Info)         {}
func (s *recordingSink) Prompt()             {}
func (s *recordingSink) Thinking()           {}
func (s *recordingSink) Usage([]CommandHelp) { s.mu.Lock(); s.usages++; s.mu.Unlock() }
func (s *recordingSink) Config(Info)         { s.mu.Lock(); s.configs++; s.mu.Unlock() }

func (s *recordingSink) Simulated(userID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulated = append(s.simulated, userID+"|"+text)
}

func (s *recordingSink) Inbound(name, text string, _ time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = append(s.inbound, name+"|"+text)
}

func (s *recordingSink) Reply(text, _ string, _ time.Time) {
	s.replies <- text
}

func (s *recordingSink) Status(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st)
}

func (s *recordingSink) Notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
}

func (s *recordingSink) snapshot() (inbound, simulated, notices []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inbound...),
		append([]string(nil), s.simulated...),
		append([]string(nil), s.notices...)
}

// waitReplies collects n replies or fails after timeout.
func (s *recordingSink) waitReplies(n int, timeout time.Duration) ([]string, bool) {
	deadline := time.After(timeout)
	out := make([]string, 0, n)
	for len(out) < n {
		select {
		case r := <-s.replies:
			out = append(out, r)
		case <-deadline:
			return out, false
		}
	}
	return out, true
}

// testConfig disables simulation and the thinking delay.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Simulate = false
	cfg.ThinkMin = 0
	cfg.ThinkMax = 0
	cfg.Seed = 42
	return cfg
}
