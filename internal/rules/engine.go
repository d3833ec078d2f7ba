// Package rules implements the deterministic keyword-driven reply tier.
package rules

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
)

// Category is the rule class a message falls into.
type Category int

// Categories in precedence order: the first match wins.
const (
	Greeting Category = iota
	Question
	Emotion
	Default
)

// String returns the category label used in logs and metrics.
func (c Category) String() string {
	switch c {
	case Greeting:
		return "greeting"
	case Question:
		return "question"
	case Emotion:
		return "emotion"
	case Default:
		return "default"
	default:
		return "unknown"
	}
}

// NamePlaceholder is substituted with the sender's display name.
const NamePlaceholder = "{name}"

var (
	greetingKeywords = []string{"你好", "嗨", "hello", "hi", "早上好", "晚上好"}
	questionKeywords = []string{"?", "？", "怎么", "如何"}
	emotionKeywords  = []string{"开心", "高兴", "快乐", "难过", "生气", "郁闷"}
)

var templates = map[Category][]string{
	Greeting: {
		"你好 {name}！很高兴见到你！",
		"嗨 {name}，今天过得怎么样？",
		"你好啊！有什么想聊的吗？",
		"hi {name}！😊",
		"早上好 {name}！希望你今天开心！",
	},
	Question: {
		"这是个很好的问题，{name}！让我想想...",
		"关于这个问题，我觉得可以从几个角度考虑，{name}。",
		"这确实需要仔细思考呢，{name}。",
		"我觉得这取决于具体情况，{name}。",
		"这个问题很有趣，让我想想最佳答案！",
	},
	Emotion: {
		"我理解你的感受，{name}。希望你能一直保持好心情！",
		"每个人都会有这样的时候，{name}，重要的是保持积极的心态！",
		"相信明天会更好，{name}！💪",
		"无论遇到什么困难，都要相信自己的力量，{name}！",
		"你的感受我很理解，{name}，愿你每天都开心！",
	},
	Default: {
		"嗯嗯，{name}，这个话题很有意思！",
		"我明白了，{name}，能再详细说说吗？",
		"原来如此，{name}！这确实值得思考。",
		"听起来不错，{name}！😊",
		"我赞同你的想法，{name}！",
		"这确实是个不错的观点，{name}。",
		"有趣的分享，{name}！继续聊聊吧～",
		"好的好的，{name}！我很感兴趣呢！",
		"原来是这样，{name}！学到了新知识！",
		"这想法很棒，{name}！👏",
	},
}

// Classify returns the first category whose keywords appear in text.
// Matching is substring-based and case-insensitive.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, greetingKeywords):
		return Greeting
	case containsAny(lower, questionKeywords):
		return Question
	case containsAny(lower, emotionKeywords):
		return Emotion
	default:
		return Default
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Templates returns a copy of the reply templates for c.
func Templates(c Category) []string {
	return slices.Clone(templates[c])
}

// Render substitutes displayName into tmpl.
func Render(tmpl, displayName string) string {
	return strings.ReplaceAll(tmpl, NamePlaceholder, displayName)
}

// Engine picks a template for the message's category.
// It is safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an engine drawing from rng. A nil rng selects a randomly
// seeded source.
func New(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{rng: rng}
}

// NewSeeded creates an engine with a reproducible PCG source.
func NewSeeded(seed uint64) *Engine {
	return New(rand.New(rand.NewPCG(seed, seed)))
}

// Reply classifies text and returns one of its category's templates with
// displayName substituted. The error result is always nil for this engine;
// it exists so alternative engines can report faults to the pipeline.
func (e *Engine) Reply(text, displayName string) (string, error) {
	set := templates[Classify(text)]

	e.mu.Lock()
	i := e.rng.IntN(len(set))
	e.mu.Unlock()

	return Render(set[i], displayName), nil
}
