package session

import (
	"sync"
	"testing"

	"github.com/m3rciful/damagebot/core/agent"
)

func TestStartChatActivatesSession(t *testing.T) {
	s := NewStore()
	cfg := agent.Config(`{"thread_id":"t1"}`)

	s.StartChat(42, cfg)

	if !s.IsChatActive(42) {
		t.Fatal("expected chat to be active")
	}
	got, ok := s.ChatAgent(42)
	if !ok || !got.Equal(cfg) {
		t.Fatalf("ChatAgent = %s, %v", got, ok)
	}
	if s.IsChatActive(43) {
		t.Fatal("other users must not be affected")
	}
}

func TestStartChatOverwrites(t *testing.T) {
	s := NewStore()
	s.StartChat(42, agent.Config(`{"thread_id":"t1"}`))
	s.StartChat(42, agent.Config(`{"thread_id":"t2"}`))

	got, _ := s.ChatAgent(42)
	if got.ThreadID() != "t2" {
		t.Fatalf("expected overwritten config, got %s", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestEndChat(t *testing.T) {
	s := NewStore()
	s.StartChat(42, agent.Config(`{}`))

	s.EndChat(42)
	if s.IsChatActive(42) {
		t.Fatal("expected chat to be closed")
	}
	if _, ok := s.ChatAgent(42); ok {
		t.Fatal("ChatAgent must report absence after EndChat")
	}

	// never started
	s.EndChat(7)
	if s.IsChatActive(7) {
		t.Fatal("EndChat on unknown user must leave it inactive")
	}
}

func TestStoreConcurrentUsers(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := int64(1); i <= 64; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.StartChat(id, agent.Config(`{}`))
			_ = s.IsChatActive(id)
			if id%2 == 0 {
				s.EndChat(id)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 32 {
		t.Fatalf("Len = %d, want 32", s.Len())
	}
	for i := int64(1); i <= 64; i++ {
		if want := i%2 == 1; s.IsChatActive(i) != want {
			t.Fatalf("user %d active = %v, want %v", i, !want, want)
		}
	}
}
