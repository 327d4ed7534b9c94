package session

import (
	"time"

	"fieldcrew/internal/constants"
	"fieldcrew/internal/models"
)

// Flow - какой многошаговый диалог ведёт пользователь.
type Flow string

const (
	FlowNone       Flow = ""
	FlowOrder      Flow = "order"
	FlowCompletion Flow = "completion"
)

// Session - временное состояние диалога одного пользователя.
// Step хранит одно из constants.STATE_*.
type Session struct {
	UserID     int64                    `json:"user_id"`
	Flow       Flow                     `json:"flow"`
	Step       string                   `json:"step"`
	Draft      models.OrderDraft        `json:"draft"`
	Completion models.CompletionDetails `json:"completion"`
	OrderID    int                      `json:"order_id,omitempty"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// New возвращает пустую сессию в состоянии STATE_IDLE.
func New(userID int64) *Session {
	return &Session{UserID: userID, Step: constants.STATE_IDLE}
}

// Active - идёт ли сейчас какой-либо диалог.
func (s *Session) Active() bool {
	return s != nil && s.Flow != FlowNone && s.Step != constants.STATE_IDLE
}

// Reset возвращает сессию в STATE_IDLE, сохраняя владельца.
func (s *Session) Reset() {
	*s = Session{UserID: s.UserID, Step: constants.STATE_IDLE}
}
