package session

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Sink receives everything the session shows to the operator.
// Implementations must be safe for concurrent use: the interactive loop and
// the simulated producer write to it from different goroutines.
type Sink interface {
	Banner(info Info)
	Usage(cmds []CommandHelp)
	Prompt()
	Simulated(userID, text string)
	Inbound(displayName, text string, at time.Time)
	Thinking()
	Reply(text, tier string, at time.Time)
	Status(st Status)
	Config(info Info)
	Notice(msg string)
}

// Console renders session output as plain text lines.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole writes to w, usually os.Stdout.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Compile-time interface guard.
var _ Sink = (*Console)(nil)

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, format, args...)
}

const rule = "=================================================="

// Banner prints the startup header and active configuration.
func (c *Console) Banner(info Info) {
	c.printf("🚀 自动回复系统启动中...\n%s\n", rule)
	c.Config(info)
}

// Usage prints the command list.
func (c *Console) Usage(cmds []CommandHelp) {
	var b strings.Builder
	b.WriteString("📱 使用说明:\n")
	for _, h := range cmds {
		fmt.Fprintf(&b, "- %s: %s\n", h.Names, h.Help)
	}
	b.WriteString(rule + "\n")
	c.printf("%s", b.String())
}

// Prompt prints the input marker.
func (c *Console) Prompt() {
	c.printf("\n👤 您: ")
}

// Simulated announces a message from the demo producer.
func (c *Console) Simulated(userID, text string) {
	c.printf("\n📱 模拟消息: %s -> %s\n", userID, text)
}

// Inbound prints a received message.
func (c *Console) Inbound(displayName, text string, at time.Time) {
	c.printf("\n📨 收到消息:\n   用户: %s\n   内容: %s\n   时间: %s\n",
		displayName, text, at.Format(time.TimeOnly))
}

// Thinking prints the in-progress marker.
func (c *Console) Thinking() {
	c.printf("🤖 AI正在思考...\n")
}

// Reply prints a generated reply.
func (c *Console) Reply(text, tier string, at time.Time) {
	c.printf("\n🤖 AI回复 [%s]:\n   %s\n   时间: %s\n", tier, text, at.Format(time.TimeOnly))
}

// Status prints the status command output.
func (c *Console) Status(st Status) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n📊 运行状态:\n- 运行状态: %s\n- 自动回复: %s\n- 活跃用户数: %d\n- 处理中: %d\n",
		st.State, onOff(st.AutoReply), st.Users, st.InFlight)
	for _, h := range st.Histories {
		fmt.Fprintf(&b, "  · %s: %d/%d 条消息\n", h.UserID, h.Messages, st.HistoryCapacity)
	}
	c.printf("%s", b.String())
}

// Config prints the config command output.
func (c *Console) Config(info Info) {
	c.printf("📋 当前配置:\n   回复层级: %s\n   AI模型: %s\n   自动回复: %s\n   角色设定: 性格=%s 风格=%s 语言=%s 长度=%s\n\n",
		info.Tier, info.Model, onOff(info.AutoReply),
		info.Profile.Personality, info.Profile.Style, info.Profile.Language, info.Profile.ResponseLength)
}

// Notice prints a one-line message.
func (c *Console) Notice(msg string) {
	c.printf("%s\n", msg)
}

func onOff(b bool) string {
	if b {
		return "✅ 开启"
	}
	return "❌ 关闭"
}
