// Package prompt turns a conversation history and the assistant's character
// profile into the role-tagged message list sent to the remote model.
package prompt

import "fmt"

// Default character traits.
const (
	DefaultPersonality    = "友善、幽默、聪明"
	DefaultStyle          = "自然对话风格"
	DefaultResponseLength = "适中回复"
	DefaultLanguage       = "中文"
)

// CharacterProfile describes how the assistant should sound. It is immutable
// for the lifetime of the process.
type CharacterProfile struct {
	Personality    string `yaml:"personality" json:"personality"`
	Style          string `yaml:"style" json:"style"`
	ResponseLength string `yaml:"response_length" json:"response_length"`
	Language       string `yaml:"language" json:"language"`
}

// DefaultProfile returns the built-in character.
func DefaultProfile() CharacterProfile {
	return CharacterProfile{
		Personality:    DefaultPersonality,
		Style:          DefaultStyle,
		ResponseLength: DefaultResponseLength,
		Language:       DefaultLanguage,
	}
}

// WithDefaults returns a copy with empty fields filled from DefaultProfile.
func (p CharacterProfile) WithDefaults() CharacterProfile {
	d := DefaultProfile()
	if p.Personality == "" {
		p.Personality = d.Personality
	}
	if p.Style == "" {
		p.Style = d.Style
	}
	if p.ResponseLength == "" {
		p.ResponseLength = d.ResponseLength
	}
	if p.Language == "" {
		p.Language = d.Language
	}
	return p
}

// SystemPrompt renders the system turn for this profile.
func (p CharacterProfile) SystemPrompt() string {
	return fmt.Sprintf("你是一个%s的AI助手，%s。请用%s回复，回复长度%s。",
		p.Personality, p.Style, p.Language, p.ResponseLength)
}
