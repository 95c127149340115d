package telegram

import (
	"github.com/m3rciful/damagebot/core/telegram/middleware"
)

// DefaultMiddlewares is the global chain applied to every update, outermost first.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
