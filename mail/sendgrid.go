// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	defaultFromName    = "Sitebot"
	defaultFromAddress = "no-reply@sitebot.poiesic.com"
)

// SendGridMailer delivers notifications through the SendGrid v3 API.
type SendGridMailer struct {
	client      *sendgrid.Client
	fromName    string
	fromAddress string
	logger      *slog.Logger
}

// SendGridOption configures a SendGridMailer.
type SendGridOption func(*SendGridMailer)

// WithFrom overrides the default sender identity.
func WithFrom(name, address string) SendGridOption {
	return func(m *SendGridMailer) {
		m.fromName = name
		m.fromAddress = address
	}
}

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(logger *slog.Logger) SendGridOption {
	return func(m *SendGridMailer) {
		m.logger = logger
	}
}

// NewSendGridMailer creates a Mailer backed by SendGrid.
func NewSendGridMailer(apiKey string, opts ...SendGridOption) (Mailer, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	m := &SendGridMailer{
		client:      sendgrid.NewSendClient(apiKey),
		fromName:    defaultFromName,
		fromAddress: defaultFromAddress,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NotifyTrainingComplete implements Mailer.
func (m *SendGridMailer) NotifyTrainingComplete(ctx context.Context, ownerEmail, chatbotName string) error {
	from := sgmail.NewEmail(m.fromName, m.fromAddress)
	to := sgmail.NewEmail("", ownerEmail)
	subject := fmt.Sprintf("%s has finished training", chatbotName)
	plain := fmt.Sprintf(
		"Your chatbot %q has finished training on your website content and is ready to answer questions.",
		chatbotName)
	html := fmt.Sprintf(
		"<p>Your chatbot <strong>%s</strong> has finished training on your website content and is ready to answer questions.</p>",
		chatbotName)

	message := sgmail.NewSingleEmail(from, subject, to, plain, html)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if resp.StatusCode >= 400 {
		m.logger.Warn("sendgrid rejected message",
			"status", resp.StatusCode,
			"body", resp.Body)
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}

	m.logger.Debug("training notification sent", "to", ownerEmail, "chatbot", chatbotName)
	return nil
}

var _ Mailer = (*SendGridMailer)(nil)
