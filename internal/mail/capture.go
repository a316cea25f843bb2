package mail

import (
	"context"
	"sync"
)

// CaptureMailer records sent messages for tests.
type CaptureMailer struct {
	mu       sync.Mutex
	messages []Message
	fail     error
}

func NewCaptureMailer() *CaptureMailer {
	return &CaptureMailer{}
}

func (m *CaptureMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.messages = append(m.messages, msg)
	return nil
}

// SetFail makes every subsequent Send return err; pass nil to recover.
func (m *CaptureMailer) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *CaptureMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message{}, m.messages...)
}
