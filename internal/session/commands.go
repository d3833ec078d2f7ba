package session

import (
	"strings"
)

// CommandHelp describes one console command for the usage listing.
type CommandHelp struct {
	Names string
	Help  string
}

// command is an entry in the console command table.
type command struct {
	names []string
	help  string
	run   func(c *Controller)
}

// commands is matched against the trimmed, lower-cased input line.
// It is filled in init because the help entry lists the table itself.
var commands []command

func init() {
	commands = []command{
		{
			names: []string{"help"},
			help:  "显示帮助信息",
			run:   func(c *Controller) { c.sink.Usage(Commands()) },
		},
		{
			names: []string{"status"},
			help:  "查看运行状态",
			run:   func(c *Controller) { c.sink.Status(c.Status()) },
		},
		{
			names: []string{"config"},
			help:  "查看当前配置",
			run:   func(c *Controller) { c.sink.Config(c.Info()) },
		},
		{
			names: []string{"auto"},
			help:  "切换自动回复开关",
			run: func(c *Controller) {
				on := !c.AutoReply()
				c.SetAutoReply(on)
				c.logger.Info("auto reply toggled", "auto_reply", on)
				c.sink.Notice("自动回复: " + onOff(on))
			},
		},
		{
			names: []string{"clear"},
			help:  "清空所有对话历史",
			run: func(c *Controller) {
				c.store.ClearAll()
				c.logger.Info("histories cleared")
				c.sink.Notice("✅ 对话历史已清空")
			},
		},
		{
			names: []string{"quit", "exit", "退出"},
			help:  "退出程序",
			run:   func(c *Controller) { c.Stop() },
		},
	}
}

// Commands returns the usage listing, including the non-command inputs.
func Commands() []CommandHelp {
	out := make([]CommandHelp, 0, len(commands)+2)
	for _, cmd := range commands {
		out = append(out, CommandHelp{Names: strings.Join(cmd.names, "/"), Help: cmd.help})
	}
	return append(out,
		CommandHelp{Names: "user:消息", Help: "模拟用户 user 发送消息"},
		CommandHelp{Names: "直接输入", Help: "模拟收到消息"},
	)
}

// lookupCommand finds the command named by line, if any.
func lookupCommand(line string) (command, bool) {
	key := strings.ToLower(strings.TrimSpace(line))
	for _, cmd := range commands {
		for _, n := range cmd.names {
			if n == key {
				return cmd, true
			}
		}
	}
	return command{}, false
}

// parseUserPrefix splits "user:<text>" input. ok is false when the prefix is
// absent; text may be empty when it is present.
func parseUserPrefix(line string) (text string, ok bool) {
	if len(line) < len(PrefixedUser)+1 || !strings.EqualFold(line[:len(PrefixedUser)+1], PrefixedUser+":") {
		return "", false
	}
	return strings.TrimSpace(line[len(PrefixedUser)+1:]), true
}
