// Package ai defines the embedding generator consumed by the ingestion
// pipeline, specified at its interface only. The openai subpackage provides
// an implementation for OpenAI-compatible APIs; the mock subpackage provides
// deterministic test doubles.
package ai
