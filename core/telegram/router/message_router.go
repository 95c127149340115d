package router

import (
	"time"

	tg "github.com/m3rciful/damagebot/core/telegram"
	"github.com/m3rciful/damagebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions holds the handlers used while a user has an open chat.
type TextOptions struct {
	// Chat answers free text.
	Chat tele.HandlerFunc
	// Media answers photos and documents.
	Media tele.HandlerFunc
}

// TextRoutes routes non-command updates. Text matching a command or alias
// runs that command. Other text goes to opts.Chat while the sender has an open
// chat and is dropped otherwise. Photos and documents reach opts.Media only
// during a chat.
func TextRoutes(reg *tg.Registry, sessions middleware.ActiveChecker, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}

		if opts.Chat != nil && c.Sender() != nil && sessions.IsChatActive(c.Sender().ID) {
			return handleWithSummary(c, "chat_message", start, func() error {
				return opts.Chat(c)
			})
		}

		logHandlerSummary(c, "idle_text", start, "skip", nil)
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}
	if opts.Media == nil {
		return routes
	}

	media := func(c tele.Context) error {
		return handleWithSummary(c, "chat_media", time.Now(), func() error {
			return opts.Media(c)
		})
	}
	guarded := middleware.RequireActiveChat(sessions)(media)
	return append(routes,
		tg.Route{Endpoint: tele.OnPhoto, Handler: guarded},
		tg.Route{Endpoint: tele.OnDocument, Handler: guarded},
	)
}
