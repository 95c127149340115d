// Package handlers answers the bot commands and relays chat messages to the
// evaluation backend.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/damagebot/core/agent"
	"github.com/m3rciful/damagebot/core/database"
	"github.com/m3rciful/damagebot/core/logger"
	tghelpers "github.com/m3rciful/damagebot/core/telegram/helpers"
	"github.com/m3rciful/damagebot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// ErrEmptyReply is returned when the backend answers with blank text.
var ErrEmptyReply = errors.New("backend returned an empty reply")

var errNoSender = errors.New("update has no sender")

// journalTimeout bounds a single journal write.
const journalTimeout = 2 * time.Second

// Sessions is the subset of session.Store the handlers use.
type Sessions interface {
	StartChat(userID int64, cfg agent.Config)
	EndChat(userID int64)
	IsChatActive(userID int64) bool
	ChatAgent(userID int64) (agent.Config, bool)
}

// Agent is the subset of agent.Client the handlers use.
type Agent interface {
	GetAgent(ctx context.Context, userID int64) (agent.Config, error)
	SendMessage(ctx context.Context, userID int64, text string, cfg agent.Config) (string, error)
}

// Handlers holds the bot's command and message handlers.
type Handlers struct {
	sessions Sessions
	agent    Agent
	journal  database.Journal

	journalTimeout time.Duration
}

// New builds Handlers. A nil journal records nothing.
func New(sessions Sessions, backend Agent, journal database.Journal) *Handlers {
	if journal == nil {
		journal = database.NopJournal{}
	}
	return &Handlers{sessions: sessions, agent: backend, journal: journal, journalTimeout: journalTimeout}
}

// Start greets the user and offers to open a chat.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.SendText(c, greetingText, keyboard.Single(cmdStartChat))
}

// Help sends the usage guide.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendText(c, helpText)
}

// StartChat asks the backend for a fresh agent token and opens a chat with
// it. No chat is opened when the backend fails.
func (h *Handlers) StartChat(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return errNoSender
	}
	ctx := tghelpers.BuildContext(c)
	tghelpers.Typing(c)

	cfg, err := h.agent.GetAgent(ctx, user.ID)
	if err != nil {
		h.record(ctx, database.Event{UserID: user.ID, Kind: database.EventAgentFailed, Detail: failureDetail(agentOpGet, err)})
		if sendErr := tghelpers.SendText(c, startFailedText, keyboard.Single(cmdStartChat)); sendErr != nil {
			err = errors.Join(err, sendErr)
		}
		return fmt.Errorf("start chat: %w", err)
	}

	h.sessions.StartChat(user.ID, cfg)
	thread := cfg.ThreadID()
	logger.LogEvent(ctx, logger.Sessions, slog.LevelInfo, "session.start",
		slog.String("status", "ok"),
		slog.String("thread_id", thread),
	)
	h.record(ctx, database.Event{UserID: user.ID, Kind: database.EventChatStarted, ThreadID: thread})

	return tghelpers.SendText(c, chatStartedText, keyboard.Single(cmdEndChat))
}

// EndChat closes the user's chat, if any, and always says goodbye.
func (h *Handlers) EndChat(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return errNoSender
	}
	ctx := tghelpers.BuildContext(c)

	cfg, wasActive := h.sessions.ChatAgent(user.ID)
	h.sessions.EndChat(user.ID)
	if wasActive {
		logger.LogEvent(ctx, logger.Sessions, slog.LevelInfo, "session.end",
			slog.String("status", "ok"),
			slog.String("thread_id", cfg.ThreadID()),
		)
		h.record(ctx, database.Event{UserID: user.ID, Kind: database.EventChatEnded, ThreadID: cfg.ThreadID()})
	}

	return tghelpers.SendText(c, chatFinishedText, keyboard.Single(cmdStartChat))
}

// Message relays free text to the backend while the user has an open chat.
// Text outside a chat is ignored.
func (h *Handlers) Message(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	cfg, ok := h.sessions.ChatAgent(user.ID)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	tghelpers.Typing(c)

	reply, err := h.agent.SendMessage(ctx, user.ID, c.Text(), cfg)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		h.record(ctx, database.Event{
			UserID:   user.ID,
			Kind:     database.EventAgentFailed,
			ThreadID: cfg.ThreadID(),
			Detail:   failureDetail(agentOpAnswer, err),
		})
		if sendErr := tghelpers.SendText(c, answerFailedText, keyboard.Single(cmdEndChat)); sendErr != nil {
			err = errors.Join(err, sendErr)
		}
		return fmt.Errorf("answer message: %w", err)
	}

	h.record(ctx, database.Event{UserID: user.ID, Kind: database.EventMessageAnswered, ThreadID: cfg.ThreadID()})
	return tghelpers.SendText(c, reply, keyboard.Single(cmdEndChat))
}

// Media tells a user in an open chat that only text is forwarded.
func (h *Handlers) Media(c tele.Context) error {
	return tghelpers.SendText(c, mediaOnlyText, keyboard.Single(cmdEndChat))
}

const (
	agentOpGet    = "get-agent"
	agentOpAnswer = "answer-question"
)

func failureDetail(op string, err error) string {
	if re, ok := agent.AsRemote(err); ok {
		detail := op + " " + re.Code() + ": " + re.Error()
		if re.Transient() {
			detail += " (transient)"
		}
		return detail
	}
	return op + ": " + err.Error()
}

// record writes ev to the journal. Journal failures never reach the user.
func (h *Handlers) record(ctx context.Context, ev database.Event) {
	wctx, cancel := context.WithTimeout(ctx, h.journalTimeout)
	defer cancel()
	if err := h.journal.Record(wctx, ev); err != nil {
		logger.LogEvent(ctx, logger.Journal, slog.LevelWarn, "journal.record",
			slog.String("status", "fail"),
			slog.String("op", string(ev.Kind)),
			slog.String("err", err.Error()),
		)
	}
}
