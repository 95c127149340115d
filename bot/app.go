// Package bot assembles the damage evaluation bot from its handlers and the
// shared Telegram runtime.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/damagebot/bot/handlers"
	"github.com/m3rciful/damagebot/core/bootstrap"
	coreconfig "github.com/m3rciful/damagebot/core/config"
	"github.com/m3rciful/damagebot/core/logger"
	coretelegram "github.com/m3rciful/damagebot/core/telegram"
	"github.com/m3rciful/damagebot/core/telegram/commands"
	"github.com/m3rciful/damagebot/core/telegram/router"
)

// App is a bootstrapped bot ready to run.
type App struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	handlers *handlers.Handlers
	registry *coretelegram.Registry
}

// New registers the bot commands on top of infra.
func New(cfg *coreconfig.Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil || infra == nil {
		return nil, errors.New("bot: config and infrastructure are required")
	}
	h := handlers.New(infra.Sessions, infra.Agent, infra.Journal)
	reg := coretelegram.NewRegistry()

	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.Start, Description: "Welcome message and help"}},
		// The aliases win over chat relay: "end chat" typed during a chat ends it.
		{"/start_chat", commands.Command{Handler: h.StartChat, Description: "Begin a building evaluation session", Aliases: []string{"start chat"}}},
		{"/end_chat", commands.Command{Handler: h.EndChat, Description: "End the current evaluation session", Aliases: []string{"end chat"}}},
		{"/help", commands.Command{Handler: h.Help, Description: "How to use this bot"}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return nil, fmt.Errorf("bot: %w", err)
		}
	}

	return &App{cfg: cfg, infra: infra, handlers: h, registry: reg}, nil
}

// Routes lists every endpoint the bot handles.
func (a *App) Routes() []coretelegram.Route {
	routes := router.CommandRoutes(a.registry)
	return append(routes, router.TextRoutes(a.registry, a.infra.Sessions, router.TextOptions{
		Chat:  a.handlers.Message,
		Media: a.handlers.Media,
	})...)
}

// TelegramRunOptions implements the runner's TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      a.Routes(),
		OnStop:      a.stop,
	}, nil
}

// stop reports the chats dropped with the process and closes the journal.
func (a *App) stop(ctx context.Context, rt coretelegram.Runtime) error {
	attrs := []slog.Attr{
		slog.String("event", "session.shutdown"),
		slog.Int("sessions", a.infra.Sessions.Len()),
	}
	if rt.Dispatcher != nil {
		attrs = append(attrs, slog.Uint64("send_failures", rt.Dispatcher.ErrorCount()))
	}
	logger.Sessions.LogAttrs(ctx, slog.LevelInfo, "sessions dropped", attrs...)
	if err := a.infra.Close(); err != nil {
		return fmt.Errorf("bot: close journal: %w", err)
	}
	return nil
}
