package commands

import "context"

// Conversation is one inbound message on a chat platform. Every platform
// adapter implements it; the Router never sees a concrete adapter type.
type Conversation interface {
	Content() string
	// IsDirect reports a private chat with the bot.
	IsDirect() bool
	// IsPublicDedicated reports a public channel allow-listed for the bot.
	IsPublicDedicated() bool
	IsFromSelf() bool
	// UID is the stable per-user identity on the platform.
	UID() string
	Respond(ctx context.Context, text string) error
	// FormatCmd renders a command word the way the platform highlights commands.
	FormatCmd(cmd string) string
}
