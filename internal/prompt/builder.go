package prompt

import (
	"github.com/flemzord/autoreply/internal/provider"
	"github.com/flemzord/autoreply/pkg/message"
)

// HistoryWindow is the number of most recent history entries included in a
// prompt.
const HistoryWindow = 10

// FormatInbound renders the current message the way the model sees it.
func FormatInbound(displayName, text string) string {
	return displayName + "说: " + text
}

// Role maps a message origin to the chat role it plays in a prompt.
func Role(o message.Origin) provider.MessageRole {
	if o == message.OriginGenerated {
		return provider.MessageRoleAssistant
	}
	return provider.MessageRoleUser
}

// Build assembles the message list for one remote request:
//  1. the system turn from profile
//  2. the last HistoryWindow entries of history, oldest first
//  3. the current message as a user turn
//
// history must not already contain the current message.
func Build(profile CharacterProfile, history []message.Message, displayName, text string) []provider.LLMMessage {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	msgs := make([]provider.LLMMessage, 0, len(history)+2)
	msgs = append(msgs, provider.LLMMessage{
		Role:    provider.MessageRoleSystem,
		Content: profile.SystemPrompt(),
	})
	for _, m := range history {
		msgs = append(msgs, provider.LLMMessage{Role: Role(m.Origin), Content: m.Content})
	}
	msgs = append(msgs, provider.LLMMessage{
		Role:    provider.MessageRoleUser,
		Content: FormatInbound(displayName, text),
	})
	return msgs
}
