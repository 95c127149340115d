// Package session tracks which users have an open evaluation chat and the
// backend token that belongs to it. State lives only as long as the process.
package session

import (
	"sync"

	"github.com/m3rciful/damagebot/core/agent"
)

// Store maps Telegram user ids to the backend token of their open chat.
// The zero value is not usable; call NewStore.
type Store struct {
	mu    sync.RWMutex
	chats map[int64]agent.Config
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{chats: make(map[int64]agent.Config)}
}

// StartChat opens a chat for userID, replacing any previous token.
func (s *Store) StartChat(userID int64, cfg agent.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[userID] = cfg
}

// EndChat closes the chat of userID. Closing a chat that is not open is a no-op.
func (s *Store) EndChat(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, userID)
}

// IsChatActive reports whether userID has an open chat.
func (s *Store) IsChatActive(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chats[userID]
	return ok
}

// ChatAgent returns the token of userID's open chat; ok is false when there is none.
func (s *Store) ChatAgent(userID int64) (cfg agent.Config, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok = s.chats[userID]
	return cfg, ok
}

// Len returns the number of open chats.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}
