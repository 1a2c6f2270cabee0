// Package mock provides a test double for the mail package.
package mock

import (
	"context"
	"sync"
)

// Notification records a single NotifyTrainingComplete call.
type Notification struct {
	OwnerEmail  string
	ChatbotName string
}

// MockMailer captures notifications for inspection in tests.
type MockMailer struct {
	// NotifyFunc, when set, overrides the default capture-only behavior.
	NotifyFunc func(ctx context.Context, ownerEmail, chatbotName string) error

	mu   sync.Mutex
	sent []Notification
}

// NewMockMailer creates a mailer that records every notification.
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// NotifyTrainingComplete implements mail.Mailer.
func (m *MockMailer) NotifyTrainingComplete(ctx context.Context, ownerEmail, chatbotName string) error {
	m.mu.Lock()
	m.sent = append(m.sent, Notification{OwnerEmail: ownerEmail, ChatbotName: chatbotName})
	m.mu.Unlock()

	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, ownerEmail, chatbotName)
	}
	return nil
}

// Sent returns a copy of all recorded notifications.
func (m *MockMailer) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
