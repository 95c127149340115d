// Package router turns registered commands and chat handlers into bot routes.
package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/damagebot/core/logger"
	tg "github.com/m3rciful/damagebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered command to its slash endpoint.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		handlerName := normalizeHandlerName(name)
		h := def.Handler
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, handlerName, time.Now(), func() error { return h(c) })
			},
		})
	}

	logger.TWire.Info("commands wired",
		slog.String("event", "tg.wire"),
		slog.String("status", "ok"),
		slog.Int("commands", len(routes)),
	)
	return routes
}
