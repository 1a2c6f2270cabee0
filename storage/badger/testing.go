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


package badger

// Repositories bundles every repository built on one shared backend.
type Repositories struct {
	Chatbots  *ChatbotRepository
	Users     *UserRepository
	Runs      *RunHistoryRepository
	Embedding *EmbeddingRepository
	Deletions *DeletionRequestRepository
	Backend   *Backend
}

// Close releases all repositories and the backend.
func (r *Repositories) Close() error {
	r.Chatbots.Close()
	r.Users.Close()
	r.Runs.Close()
	r.Embedding.Close()
	r.Deletions.Close()
	return r.Backend.Close()
}

// NewRepositories opens a backend at the given path and builds every
// repository on it. Pass inMemory=true for tests.
func NewRepositories(filePath string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	chatbots, err := NewChatbotRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	users, err := NewUserRepository(backend)
	if err != nil {
		chatbots.Close()
		backend.Close()
		return nil, err
	}

	runs, err := NewRunHistoryRepository(backend)
	if err != nil {
		users.Close()
		chatbots.Close()
		backend.Close()
		return nil, err
	}

	deletions, err := NewDeletionRequestRepository(backend)
	if err != nil {
		runs.Close()
		users.Close()
		chatbots.Close()
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Chatbots:  chatbots,
		Users:     users,
		Runs:      runs,
		Embedding: NewEmbeddingRepository(backend),
		Deletions: deletions,
		Backend:   backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the returned bundle when done.
func NewMemoryRepositories() (*Repositories, error) {
	return NewRepositories("", true)
}
