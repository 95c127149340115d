package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden keeps the command out of the Telegram menu.
	Hidden bool
	// Aliases are extra texts, such as keyboard labels, that trigger the command.
	Aliases []string
}
