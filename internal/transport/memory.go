package transport

import (
	"context"
	"sync"
)

// Sent records one outbound delivery.
type Sent struct {
	UserID   int64
	Text     string
	FilePath string
	Caption  string
}

// Memory is an in-process Transport that records every delivery.
// Use it in tests and local development.
type Memory struct {
	mu   sync.Mutex
	sent []Sent
}

func NewMemory() *Memory {
	return &Memory{}
}

var _ Transport = (*Memory)(nil)

func (m *Memory) SendMessage(ctx context.Context, userID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{UserID: userID, Text: text})
	return nil
}

func (m *Memory) SendDocument(ctx context.Context, userID int64, path, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{UserID: userID, FilePath: path, Caption: caption})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (m *Memory) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns deliveries addressed to one user.
func (m *Memory) SentTo(userID int64) []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sent
	for _, s := range m.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// Reset clears the recorded deliveries.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
