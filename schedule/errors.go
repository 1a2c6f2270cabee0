package schedule

import "errors"

var (
	// ErrChatbotRepositoryRequired is returned when a nil chatbot repository is provided.
	ErrChatbotRepositoryRequired = errors.New("chatbot repository is required")

	// ErrRunRepositoryRequired is returned when a nil run history repository is provided.
	ErrRunRepositoryRequired = errors.New("run history repository is required")

	// ErrDeletionRepositoryRequired is returned when a nil deletion request repository is provided.
	ErrDeletionRepositoryRequired = errors.New("deletion request repository is required")

	// ErrQueueRequired is returned when a nil queue is provided.
	ErrQueueRequired = errors.New("queue is required")

	// ErrJobNameRequired is returned when a cron job is registered without a name.
	ErrJobNameRequired = errors.New("job name is required")
)
