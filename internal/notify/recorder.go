package notify

import (
	"context"
	"strings"
	"sync"
)

// Sent - одно исходящее сообщение, записанное Recorder.
type Sent struct {
	Kind      string // text | buttons | photo | photo_bytes | edit | answer
	ChatID    int64
	MessageID int
	Text      string
	FileID    string
	Rows      [][]Button
}

// Recorder - Messenger в памяти для тестов и локального запуска без бота.
// FailFor заставляет отправку в указанный чат падать.
type Recorder struct {
	mu      sync.Mutex
	sent    []Sent
	FailFor map[int64]error
}

func NewRecorder() *Recorder {
	return &Recorder{FailFor: make(map[int64]error)}
}

func (r *Recorder) record(s Sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailFor[s.ChatID]; ok && s.Kind != "answer" {
		return err
	}
	r.sent = append(r.sent, s)
	return nil
}

func (r *Recorder) SendText(_ context.Context, chatID int64, text string) error {
	return r.record(Sent{Kind: "text", ChatID: chatID, Text: text})
}

func (r *Recorder) SendButtons(_ context.Context, chatID int64, text string, rows [][]Button) error {
	return r.record(Sent{Kind: "buttons", ChatID: chatID, Text: text, Rows: rows})
}

func (r *Recorder) SendPhoto(_ context.Context, chatID int64, fileID, caption string) error {
	return r.record(Sent{Kind: "photo", ChatID: chatID, FileID: fileID, Text: caption})
}

func (r *Recorder) SendPhotoBytes(_ context.Context, chatID int64, name string, _ []byte, caption string) error {
	return r.record(Sent{Kind: "photo_bytes", ChatID: chatID, FileID: name, Text: caption})
}

func (r *Recorder) EditText(_ context.Context, chatID int64, messageID int, text string, rows [][]Button) error {
	return r.record(Sent{Kind: "edit", ChatID: chatID, MessageID: messageID, Text: text, Rows: rows})
}

func (r *Recorder) AnswerCallback(_ context.Context, _ string, text string) error {
	return r.record(Sent{Kind: "answer", Text: text})
}

// All возвращает копию всех записанных сообщений.
func (r *Recorder) All() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// To возвращает сообщения в чат chatID (ответы на коллбэки не входят).
func (r *Recorder) To(chatID int64) []Sent {
	var out []Sent
	for _, s := range r.All() {
		if s.ChatID == chatID && s.Kind != "answer" {
			out = append(out, s)
		}
	}
	return out
}

// Last - последнее сообщение в чат; пустое, если сообщений нет.
func (r *Recorder) Last(chatID int64) Sent {
	msgs := r.To(chatID)
	if len(msgs) == 0 {
		return Sent{}
	}
	return msgs[len(msgs)-1]
}

// Contains сообщает, было ли в чат сообщение с подстрокой.
func (r *Recorder) Contains(chatID int64, substr string) bool {
	for _, s := range r.To(chatID) {
		if strings.Contains(s.Text, substr) {
			return true
		}
	}
	return false
}

// Reset очищает журнал.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
