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


// Package queue provides durable, ordered job queues and their workers.
//
// Queues live in a dedicated BadgerDB instance, opened once through Connect
// and shared by every queue and worker in the process. Enqueue is
// fire-and-forget: producers write an envelope and return; consumption
// happens in a separate worker pool, so a slow job for one tenant never
// blocks another tenant's producer.
//
// Each job runs at most MaxAttempts times. A failed attempt re-enqueues the
// envelope with a delay; once attempts are exhausted the job is dropped with
// a critical alert. There is no application-level cancellation: a stalled
// job is recovered by the bounded retry, not by timeouts.
package queue
