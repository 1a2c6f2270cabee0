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


package core

import "fmt"

// ValidateChatbot validates a Chatbot according to domain rules.
//
// Validation rules:
//   - WebsiteURL must not be empty
//   - MaxPages must be positive
//
// NOT validated:
//   - Frequency (unknown values are tolerated and treated as never due)
//   - LastScrapedAt (zero means never scraped)
//   - ID (0 is valid from database sequences)
func ValidateChatbot(bot *Chatbot) error {
	if bot == nil {
		return fmt.Errorf("%w: chatbot is nil", ErrInvalidChatbot)
	}

	if bot.WebsiteURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChatbot, ErrEmptyWebsiteURL)
	}

	if bot.MaxPages <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChatbot, ErrInvalidMaxPages)
	}

	return nil
}

// ValidateRunHistory validates a RunHistory according to domain rules.
//
// Validation rules:
//   - ChatbotId must be set
//   - Status must be a recognized RunStatus
//   - TriggeredBy must be a recognized TriggerSource
//
// NOT validated (populated by the workers):
//   - PagesScraped / EmbeddingsCreated (0 until the run progresses)
//   - CompletedAt (zero while the run is open)
func ValidateRunHistory(run *RunHistory) error {
	if run == nil {
		return fmt.Errorf("%w: run is nil", ErrInvalidRunHistory)
	}

	if run.ChatbotId == 0 {
		return fmt.Errorf("%w: chatbot id required", ErrInvalidRunHistory)
	}

	if err := ValidateRunStatus(run.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRunHistory, err)
	}

	if err := ValidateTriggerSource(run.TriggeredBy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRunHistory, err)
	}

	return nil
}

// ValidateRunStatus validates that a RunStatus has a recognized value.
func ValidateRunStatus(status RunStatus) error {
	switch status {
	case RunStatusPending, RunStatusInProgress, RunStatusCompleted, RunStatusFailed:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidRunStatus, status)
}

// ValidateTriggerSource validates that a TriggerSource has a recognized value.
func ValidateTriggerSource(source TriggerSource) error {
	switch source {
	case TriggerManual, TriggerScheduled, TriggerInitial:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidTriggerSource, source)
}
