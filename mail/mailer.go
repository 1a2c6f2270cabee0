package mail

import (
	"context"
	"errors"
)

// Mailer sends transactional email. Notification delivery is best-effort
// throughout the pipeline: callers log failures and continue.
type Mailer interface {
	// NotifyTrainingComplete tells the owner their chatbot finished training.
	NotifyTrainingComplete(ctx context.Context, ownerEmail, chatbotName string) error
}

var (
	// ErrAPIKeyRequired is returned when a sendgrid mailer is built without a key.
	ErrAPIKeyRequired = errors.New("sendgrid api key required")

	// ErrSendFailed wraps provider-side delivery failures.
	ErrSendFailed = errors.New("email send failed")
)
