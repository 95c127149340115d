package middleware

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	user  *tele.User
	store map[string]interface{}
	sends int
}

func newContext(userID int64) *fakeContext {
	return &fakeContext{user: &tele.User{ID: userID}, store: map[string]interface{}{}}
}

func (f *fakeContext) Sender() *tele.User { return f.user }
func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string { return "hello" }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 9, Message: &tele.Message{Text: "hello"}} }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }

func (f *fakeContext) Send(interface{}, ...interface{}) error {
	f.sends++
	return nil
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("nil map") })
	if err := h(newContext(1)); err == nil {
		t.Fatal("panic must surface as an error")
	}
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	c := newContext(42)
	err := LoggerMiddleware(func(c tele.Context) error {
		if rid, _ := c.Get("rid").(string); rid == "" {
			return errors.New("rid not set")
		}
		if c.Get("logger_ctx") == nil {
			return errors.New("context not stored")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatal(err)
	}
}

func TestMessageMetricsCountsSends(t *testing.T) {
	c := newContext(1)
	err := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("a")
		return c.Send("b", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})(c)
	if err != nil {
		t.Fatal(err)
	}
	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb || c.sends != 2 {
		t.Fatalf("msgs=%d kb=%v sends=%d", msgs, kb, c.sends)
	}
}

type activeSet map[int64]bool

func (a activeSet) IsChatActive(id int64) bool { return a[id] }

func TestRequireActiveChat(t *testing.T) {
	calls := 0
	h := RequireActiveChat(activeSet{42: true})(func(tele.Context) error {
		calls++
		return nil
	})
	_ = h(newContext(42))
	_ = h(newContext(7))
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
