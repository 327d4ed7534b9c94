package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"fieldcrew/internal/utils"
)

// Store хранит сессии по id пользователя. Get на неизвестного пользователя
// возвращает новую пустую сессию, а не ошибку.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

// MemoryStore - сессии в памяти процесса, теряются при перезапуске.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return New(userID), nil
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = *s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Manager управляет сессиями пользователей поверх Store.
// Шаги одного пользователя выполняются строго по очереди (Lock).
type Manager struct {
	store Store
	locks *utils.KeyedMutex
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(store Store, log *zap.Logger) *Manager {
	return &Manager{store: store, locks: utils.NewKeyedMutex(), log: log, now: time.Now}
}

// Lock блокирует пользователя до вызова возвращённой функции.
func (sm *Manager) Lock(userID int64) func() {
	return sm.locks.Lock(strconv.FormatInt(userID, 10))
}

func (sm *Manager) Get(ctx context.Context, userID int64) (*Session, error) {
	return sm.store.Get(ctx, userID)
}

// Save сохраняет сессию; сессия в STATE_IDLE удаляется из хранилища.
func (sm *Manager) Save(ctx context.Context, s *Session) error {
	if !s.Active() {
		return sm.Clear(ctx, s.UserID)
	}
	s.UpdatedAt = sm.now()
	if err := sm.store.Save(ctx, s); err != nil {
		sm.log.Error("Manager.Save: не удалось сохранить сессию", zap.Int64("chat_id", s.UserID), zap.Error(err))
		return err
	}
	sm.log.Debug("Manager.Save: состояние сохранено",
		zap.Int64("chat_id", s.UserID), zap.String("state", s.Step))
	return nil
}

// Clear сбрасывает пользователя в STATE_IDLE.
func (sm *Manager) Clear(ctx context.Context, userID int64) error {
	if err := sm.store.Delete(ctx, userID); err != nil {
		sm.log.Error("Manager.Clear: не удалось удалить сессию", zap.Int64("chat_id", userID), zap.Error(err))
		return err
	}
	return nil
}
