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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChatbot indicates a Chatbot failed validation.
	ErrInvalidChatbot = errors.New("invalid chatbot")

	// ErrInvalidRunHistory indicates a RunHistory failed validation.
	ErrInvalidRunHistory = errors.New("invalid run history")

	// ErrInvalidTransition indicates an illegal run status transition.
	ErrInvalidTransition = errors.New("invalid run status transition")

	// ErrEmptyWebsiteURL indicates the WebsiteURL field is empty.
	ErrEmptyWebsiteURL = errors.New("website url cannot be empty")

	// ErrInvalidMaxPages indicates MaxPages is not a positive number.
	ErrInvalidMaxPages = errors.New("max pages must be positive")

	// ErrInvalidRunStatus indicates an unrecognized RunStatus value.
	ErrInvalidRunStatus = errors.New("invalid run status")

	// ErrInvalidTriggerSource indicates an unrecognized TriggerSource value.
	ErrInvalidTriggerSource = errors.New("invalid trigger source")

	// ErrEmptyChunk indicates an embedding record with no chunk text.
	ErrEmptyChunk = errors.New("chunk text cannot be empty")
)
