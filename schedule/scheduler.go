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

package schedule

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron expressions for the standing sweeps. All schedules run in UTC.
const (
	RescrapeCronSpec = "0 2 * * *"
	DeletionCronSpec = "0 3 * * *"
)

// Scheduler wraps a UTC cron runner with named, replaceable entries.
// Registering a name twice replaces the earlier entry instead of
// stacking a duplicate schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets a custom logger. Default is slog.Default().
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a stopped scheduler. Call Start to begin firing.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  slog.Default(),
		entries: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a named cron entry. An existing entry with the same name
// is removed first.
func (s *Scheduler) Register(name, spec string, fn func()) error {
	if name == "" {
		return ErrJobNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}

	id, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("cron job firing", "job", name)
		fn()
	})
	if err != nil {
		return err
	}

	s.entries[name] = id
	s.logger.Debug("cron job registered", "job", name, "spec", spec)
	return nil
}

// Registered reports whether a named entry exists.
func (s *Scheduler) Registered(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	return ok
}

// Start begins firing registered entries on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for any running entry to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
