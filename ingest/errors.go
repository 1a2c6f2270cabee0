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

package ingest

import "errors"

var (
	// ErrNoPagesScraped is returned when a crawl finishes without producing
	// a single page. An empty site is treated as a failed run so stale
	// knowledge is never silently replaced with nothing.
	ErrNoPagesScraped = errors.New("no pages were scraped")

	// ErrChatbotRepositoryRequired is returned when a nil chatbot repository is provided.
	ErrChatbotRepositoryRequired = errors.New("chatbot repository is required")

	// ErrRunRepositoryRequired is returned when a nil run history repository is provided.
	ErrRunRepositoryRequired = errors.New("run history repository is required")

	// ErrEmbeddingRepositoryRequired is returned when a nil embedding repository is provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository is required")

	// ErrUserRepositoryRequired is returned when a nil user repository is provided.
	ErrUserRepositoryRequired = errors.New("user repository is required")

	// ErrCrawlerRequired is returned when a nil crawler is provided.
	ErrCrawlerRequired = errors.New("crawler is required")

	// ErrEmbedderRequired is returned when a nil embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrQueueRequired is returned when a nil queue is provided.
	ErrQueueRequired = errors.New("queue is required")

	// ErrScrapeFailed wraps crawl failures recorded on the run history.
	ErrScrapeFailed = errors.New("scrape failed")

	// ErrEmbeddingFailed wraps embedding-stage failures recorded on the run history.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
