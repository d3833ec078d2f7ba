package session

import (
	"time"

	"github.com/flemzord/autoreply/internal/prompt"
)

// Identities used when the input does not name a sender.
const (
	UnknownUser  = "unknown_user"
	PrefixedUser = "user"
)

// Sources label where an inbound message came from.
const (
	SourceInteractive = "interactive"
	SourceSimulated   = "simulated"
)

// Defaults for Config.
const (
	DefaultSimulateInterval = 2 * time.Second
	DefaultThinkMin         = 500 * time.Millisecond
	DefaultThinkMax         = 2 * time.Second
)

// DemoMessage is one step of the simulated producer's script.
type DemoMessage struct {
	UserID string
	Text   string
}

// DefaultDemoScript is the built-in sequence the simulated producer emits.
func DefaultDemoScript() []DemoMessage {
	return []DemoMessage{
		{UserID: "demo_user", Text: "你好！"},
		{UserID: "demo_user", Text: "今天天气怎么样？"},
		{UserID: "friend", Text: "在干嘛呢？"},
		{UserID: "colleague", Text: "明天有空吗？"},
	}
}

// Config controls a Controller.
type Config struct {
	// AutoReply gates dispatch. When false, inbound messages are ignored.
	AutoReply bool

	// Simulate starts the demo producer alongside the interactive loop.
	Simulate         bool
	SimulateInterval time.Duration
	DemoScript       []DemoMessage

	// ThinkMin and ThinkMax bound the delay before a reply is shown.
	ThinkMin time.Duration
	ThinkMax time.Duration

	// Seed feeds the name synthesizer and think delay. Zero picks a random seed.
	Seed uint64

	// Tier and Model describe the reply setup for the config command.
	Tier    string
	Model   string
	Profile prompt.CharacterProfile
}

// DefaultConfig returns a configuration with auto-reply and simulation on.
func DefaultConfig() Config {
	return Config{
		AutoReply:        true,
		Simulate:         true,
		SimulateInterval: DefaultSimulateInterval,
		DemoScript:       DefaultDemoScript(),
		ThinkMin:         DefaultThinkMin,
		ThinkMax:         DefaultThinkMax,
		Tier:             "local",
		Profile:          prompt.DefaultProfile(),
	}
}

// withDefaults fills unset durations and the script. Zero ThinkMin and
// ThinkMax together mean "no delay".
func (c Config) withDefaults() Config {
	if c.SimulateInterval <= 0 {
		c.SimulateInterval = DefaultSimulateInterval
	}
	if c.DemoScript == nil {
		c.DemoScript = DefaultDemoScript()
	}
	if c.ThinkMin < 0 {
		c.ThinkMin = 0
	}
	if c.ThinkMax < c.ThinkMin {
		c.ThinkMax = c.ThinkMin
	}
	c.Profile = c.Profile.WithDefaults()
	return c
}
