package repository

import (
	"sync"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type chatStateRepository struct {
	mu     sync.RWMutex
	states map[int64]domain.ChatState
}

func NewChatStateRepository() *chatStateRepository {
	return &chatStateRepository{
		states: make(map[int64]domain.ChatState),
	}
}

func (s *chatStateRepository) Save(state domain.ChatState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ChatID] = state
}

func (s *chatStateRepository) Get(chatID int64) (domain.ChatState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[chatID]
	return state, ok
}
