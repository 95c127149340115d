package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/damagebot/core/logger"
)

// EventKind names a session lifecycle step written to the journal.
type EventKind string

const (
	EventChatStarted     EventKind = "chat_started"
	EventChatEnded       EventKind = "chat_ended"
	EventMessageAnswered EventKind = "message_answered"
	EventAgentFailed     EventKind = "agent_failed"
)

const maxDetailRunes = 512

// Event is one journal row.
type Event struct {
	UserID   int64     `db:"user_id"`
	Kind     EventKind `db:"event"`
	ThreadID string    `db:"thread_id"`
	Detail   string    `db:"detail"`
}

// Journal is an append-only audit trail of chat sessions. It is never read
// back by the bot, so open chats still end with the process.
type Journal interface {
	Record(ctx context.Context, ev Event) error
}

// SQLJournal writes events to the session_events table.
type SQLJournal struct {
	db *sqlx.DB
}

// NewJournal wraps an open database handle.
func NewJournal(db *sqlx.DB) *SQLJournal {
	return &SQLJournal{db: db}
}

const insertEvent = `
INSERT INTO session_events (user_id, event, thread_id, detail)
VALUES (:user_id, :event, :thread_id, :detail)`

// Record appends ev.
func (j *SQLJournal) Record(ctx context.Context, ev Event) error {
	ev.Detail = logger.SanitizeLimit(ev.Detail, maxDetailRunes)
	start := time.Now()
	if _, err := j.db.NamedExecContext(ctx, insertEvent, ev); err != nil {
		return fmt.Errorf("journal %s: %w", ev.Kind, err)
	}
	logger.LogEvent(ctx, logger.Journal, slog.LevelDebug, "journal.record",
		slog.String("status", "ok"),
		slog.String("op", string(ev.Kind)),
		slog.Int64("user_id", ev.UserID),
		slog.String("thread_id", ev.ThreadID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// NopJournal discards every event. It stands in when no database is configured.
type NopJournal struct{}

// Record implements Journal.
func (NopJournal) Record(context.Context, Event) error { return nil }
