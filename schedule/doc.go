// Package schedule runs the periodic sweeps that feed the ingestion
// pipeline: the nightly rescrape sweep that re-ingests stale chatbots,
// and the deletion sweep that picks up account erasure requests whose
// scheduled date has passed. Sweeps only select work and enqueue jobs;
// the heavy lifting happens in the queue workers.
package schedule
