package middleware

import (
	"log/slog"

	"github.com/m3rciful/damagebot/core/logger"
	tghelpers "github.com/m3rciful/damagebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ActiveChecker reports whether a user has an open agent chat.
type ActiveChecker interface {
	IsChatActive(userID int64) bool
}

// RequireActiveChat passes the update on only while the sender has an open
// chat. Other updates are dropped without a reply.
func RequireActiveChat(sessions ActiveChecker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil && sessions.IsChatActive(user.ID) {
				return next(c)
			}
			if logger.ShouldSampleDebug() {
				logger.LogEvent(tghelpers.BuildContext(c), logger.Sessions, slog.LevelDebug, "session.skip",
					slog.String("status", "skip"),
					slog.String("reason", "no_active_chat"),
				)
			}
			return nil
		}
	}
}
