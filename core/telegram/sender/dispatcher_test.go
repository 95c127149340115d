package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/damagebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 32})

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 20; i++ {
		for _, chat := range []int64{42, 43, -100} {
			chat, i := chat, i
			if err := d.Enqueue(chatCtx(chat), "send.text", "sendMessage", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			}); err != nil {
				t.Fatalf("Enqueue: %v", err)
			}
		}
	}
	d.Close()

	for chat, seq := range got {
		if len(seq) != 20 {
			t.Fatalf("chat %d: %d jobs ran", chat, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("chat %d out of order: %v", chat, seq)
			}
		}
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	d.Close()
	if err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	attempts := 0
	_ = d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		attempts++
		if attempts < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		return nil
	})
	d.Close()
	if attempts != 3 || d.ErrorCount() != 0 {
		t.Fatalf("attempts=%d failures=%d", attempts, d.ErrorCount())
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	attempts := 0
	_ = d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		attempts++
		return &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	})
	d.Close()
	if attempts != 1 || d.ErrorCount() != 1 {
		t.Fatalf("attempts=%d failures=%d", attempts, d.ErrorCount())
	}
}

func TestClassifyAndRedact(t *testing.T) {
	cases := map[string]error{
		"HTTP_4XX": &tele.Error{Code: 403},
		"HTTP_5XX": &tele.Error{Code: 502},
		"TIMEOUT":  context.DeadlineExceeded,
		"UNKNOWN":  errors.New("odd"),
	}
	for want, err := range cases {
		if got := classify(err); got != want {
			t.Fatalf("classify(%v) = %q, want %q", err, got, want)
		}
	}

	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": EOF`)
	if got := redact(err); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF` {
		t.Fatalf("redact = %q", got)
	}
}
