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


// Package storage provides the storage abstraction layer for sitebot.
//
// This package defines repository interfaces that decouple storage
// implementation from the ingestion pipeline. It allows for different
// storage backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction and enable
// multiple storage backend implementations:
//
//	repo, err := badger.NewChatbotRepository(backend)  // returns storage.ChatbotRepository
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ChatbotRepository: chatbot rows and the auto-rescrape listing
//   - UserRepository: owner lookup for notifications
//   - RunHistoryRepository: the ingestion run state machine
//   - EmbeddingRepository: per-chatbot vectors grouped into generations
//   - DeletionRequestRepository: pending account deletion requests
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
