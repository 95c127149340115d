package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/damagebot/core/agent"
	"github.com/m3rciful/damagebot/core/database"
	"github.com/m3rciful/damagebot/core/session"

	tele "gopkg.in/telebot.v4"
)

type sent struct {
	text   string
	markup *tele.ReplyMarkup
}

// fakeContext implements the parts of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context

	user  *tele.User
	text  string
	store map[string]interface{}
	sent  []sent
}

func newContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID},
		text:  text,
		store: make(map[string]interface{}),
	}
}

func (f *fakeContext) Sender() *tele.User { return f.user }
func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 7} }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }
func (f *fakeContext) Notify(tele.ChatAction) error { return nil }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	s := sent{text: what.(string)}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			s.markup = so.ReplyMarkup
		}
	}
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeContext) last(t *testing.T) sent {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return f.sent[len(f.sent)-1]
}

func keyboardLabel(t *testing.T, m *tele.ReplyMarkup) string {
	t.Helper()
	if m == nil || len(m.ReplyKeyboard) != 1 || len(m.ReplyKeyboard[0]) != 1 {
		t.Fatalf("expected a single-button keyboard, got %+v", m)
	}
	return m.ReplyKeyboard[0][0].Text
}

type sendCall struct {
	userID int64
	text   string
	cfg    agent.Config
}

type fakeAgent struct {
	cfg      agent.Config
	getErr   error
	reply    string
	replyErr error
	calls    []sendCall
}

func (a *fakeAgent) GetAgent(context.Context, int64) (agent.Config, error) {
	if a.getErr != nil {
		return nil, a.getErr
	}
	return a.cfg, nil
}

func (a *fakeAgent) SendMessage(_ context.Context, userID int64, text string, cfg agent.Config) (string, error) {
	a.calls = append(a.calls, sendCall{userID: userID, text: text, cfg: cfg})
	return a.reply, a.replyErr
}

type memJournal struct {
	mu     sync.Mutex
	events []database.Event
	err    error
}

func (j *memJournal) Record(_ context.Context, ev database.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return j.err
}

func (j *memJournal) kinds() []database.EventKind {
	out := make([]database.EventKind, 0, len(j.events))
	for _, ev := range j.events {
		out = append(out, ev.Kind)
	}
	return out
}

func threadConfig() agent.Config {
	return agent.Config(json.RawMessage(`{"thread_id":"t1"}`))
}

func TestStartGreetsWithStartChatKeyboard(t *testing.T) {
	h := New(session.NewStore(), &fakeAgent{}, nil)
	c := newContext(42, "/start")
	if err := h.Start(c); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := c.last(t)
	if !strings.HasPrefix(got.text, "👋 Welcome to the Building Damage Evaluation Bot!") || !strings.Contains(got.text, "Help Guide") {
		t.Fatalf("unexpected greeting: %q", got.text)
	}
	if label := keyboardLabel(t, got.markup); label != "/start_chat" {
		t.Fatalf("keyboard = %q", label)
	}
}

func TestHelpIsStateless(t *testing.T) {
	store := session.NewStore()
	h := New(store, &fakeAgent{}, nil)
	c := newContext(42, "/help")
	if err := h.Help(c); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if c.last(t).text != helpText || store.Len() != 0 {
		t.Fatal("help must only send the guide")
	}
}

func TestChatLifecycle(t *testing.T) {
	store := session.NewStore()
	backend := &fakeAgent{cfg: threadConfig(), reply: "Please send a photo"}
	journal := &memJournal{}
	h := New(store, backend, journal)

	c := newContext(42, "/start_chat")
	if err := h.StartChat(c); err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	cfg, ok := store.ChatAgent(42)
	if !ok || !cfg.Equal(threadConfig()) {
		t.Fatalf("session for 42 = %s, %v", cfg, ok)
	}
	got := c.last(t)
	if got.text != chatStartedText || keyboardLabel(t, got.markup) != "/end_chat" {
		t.Fatalf("unexpected start reply: %+v", got)
	}

	c = newContext(42, "crack in wall")
	if err := h.Message(c); err != nil {
		t.Fatalf("Message: %v", err)
	}
	if len(backend.calls) != 1 {
		t.Fatalf("expected one backend call, got %d", len(backend.calls))
	}
	call := backend.calls[0]
	if call.userID != 42 || call.text != "crack in wall" || !call.cfg.Equal(threadConfig()) {
		t.Fatalf("unexpected call: %+v", call)
	}
	if len(c.sent) != 1 || c.sent[0].text != "Please send a photo" || keyboardLabel(t, c.sent[0].markup) != "/end_chat" {
		t.Fatalf("unexpected replies: %+v", c.sent)
	}

	c = newContext(42, "/end_chat")
	if err := h.EndChat(c); err != nil {
		t.Fatalf("EndChat: %v", err)
	}
	if store.IsChatActive(42) {
		t.Fatal("session must be gone after /end_chat")
	}
	got = c.last(t)
	if got.text != chatFinishedText || keyboardLabel(t, got.markup) != "/start_chat" {
		t.Fatalf("unexpected farewell: %+v", got)
	}

	want := []database.EventKind{database.EventChatStarted, database.EventMessageAnswered, database.EventChatEnded}
	kinds := journal.kinds()
	if len(kinds) != len(want) {
		t.Fatalf("journal = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("journal = %v, want %v", kinds, want)
		}
	}
	if journal.events[0].ThreadID != "t1" {
		t.Fatalf("thread id = %q", journal.events[0].ThreadID)
	}
}

func TestStartChatFailureLeavesNoSession(t *testing.T) {
	store := session.NewStore()
	remote := &agent.RemoteError{Op: "get-agent", Err: errors.New("connection refused")}
	journal := &memJournal{}
	h := New(store, &fakeAgent{getErr: remote}, journal)

	c := newContext(42, "/start_chat")
	err := h.StartChat(c)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := agent.AsRemote(err); !ok {
		t.Fatalf("error chain lost RemoteError: %v", err)
	}
	if store.IsChatActive(42) {
		t.Fatal("failed /start_chat must not open a session")
	}
	got := c.last(t)
	if got.text != startFailedText || keyboardLabel(t, got.markup) != "/start_chat" {
		t.Fatalf("unexpected notice: %+v", got)
	}
	if len(journal.events) != 1 || journal.events[0].Kind != database.EventAgentFailed {
		t.Fatalf("journal = %+v", journal.events)
	}
}

func TestMessageWithoutSessionIsIgnored(t *testing.T) {
	backend := &fakeAgent{reply: "unused"}
	h := New(session.NewStore(), backend, nil)
	c := newContext(42, "crack in wall")
	if err := h.Message(c); err != nil {
		t.Fatalf("Message: %v", err)
	}
	if len(backend.calls) != 0 || len(c.sent) != 0 {
		t.Fatal("text outside a chat must not reach the backend or the user")
	}
}

func TestMessageFailureKeepsSession(t *testing.T) {
	store := session.NewStore()
	store.StartChat(42, threadConfig())
	backend := &fakeAgent{replyErr: &agent.RemoteError{Op: "answer-question", Status: 502, Err: errors.New("bad gateway")}}
	h := New(store, backend, nil)

	c := newContext(42, "crack in wall")
	if err := h.Message(c); err == nil {
		t.Fatal("expected error")
	}
	if !store.IsChatActive(42) {
		t.Fatal("session must survive a failed answer")
	}
	got := c.last(t)
	if got.text != answerFailedText || keyboardLabel(t, got.markup) != "/end_chat" {
		t.Fatalf("unexpected notice: %+v", got)
	}
}

func TestMessageEmptyReply(t *testing.T) {
	store := session.NewStore()
	store.StartChat(42, threadConfig())
	h := New(store, &fakeAgent{reply: "  "}, nil)

	c := newContext(42, "hello")
	if err := h.Message(c); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("err = %v, want ErrEmptyReply", err)
	}
	if c.last(t).text != answerFailedText {
		t.Fatal("blank reply must be replaced by the failure notice")
	}
}

func TestEndChatWithoutSession(t *testing.T) {
	journal := &memJournal{}
	h := New(session.NewStore(), &fakeAgent{}, journal)
	c := newContext(42, "/end_chat")
	if err := h.EndChat(c); err != nil {
		t.Fatalf("EndChat: %v", err)
	}
	if c.last(t).text != chatFinishedText {
		t.Fatal("farewell must be sent regardless of state")
	}
	if len(journal.events) != 0 {
		t.Fatalf("no chat was open, journal = %+v", journal.events)
	}
}

func TestJournalFailureDoesNotReachUser(t *testing.T) {
	store := session.NewStore()
	h := New(store, &fakeAgent{cfg: threadConfig()}, &memJournal{err: errors.New("db down")})
	c := newContext(42, "/start_chat")
	if err := h.StartChat(c); err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	if !store.IsChatActive(42) || c.last(t).text != chatStartedText {
		t.Fatal("journal errors must not affect the chat")
	}
}

func TestMediaNotice(t *testing.T) {
	h := New(session.NewStore(), &fakeAgent{}, nil)
	c := newContext(42, "")
	if err := h.Media(c); err != nil {
		t.Fatalf("Media: %v", err)
	}
	if got := c.last(t); got.text != mediaOnlyText || keyboardLabel(t, got.markup) != "/end_chat" {
		t.Fatalf("unexpected notice: %+v", got)
	}
}

// blockingJournal holds every write until its context ends.
type blockingJournal struct {
	hadDeadline bool
}

func (j *blockingJournal) Record(ctx context.Context, _ database.Event) error {
	_, j.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestSlowJournalDoesNotHoldReplies(t *testing.T) {
	store := session.NewStore()
	journal := &blockingJournal{}
	h := New(store, &fakeAgent{cfg: threadConfig()}, journal)
	h.journalTimeout = 50 * time.Millisecond

	c := newContext(42, "/start_chat")
	done := make(chan error, 1)
	go func() { done <- h.StartChat(c) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("StartChat: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("journal write was not bounded")
	}
	if !journal.hadDeadline {
		t.Fatal("journal write must carry a deadline")
	}
	if !store.IsChatActive(42) || c.last(t).text != chatStartedText {
		t.Fatal("reply must still go out")
	}
}
