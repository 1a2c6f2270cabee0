// Package ingest implements the asynchronous ingestion pipeline that turns
// a chatbot's website into its knowledge base.
//
// The pipeline runs in two stages, each consuming its own durable queue.
// The scrape stage crawls the configured site and hands the pages to the
// embedding stage. The embedding stage chunks the pages, generates vectors,
// and swaps the chatbot's knowledge base to the new generation: fresh
// records are inserted before old generations are deleted, so a reader
// never observes an empty knowledge base while a rescrape is in flight.
//
// Every run is tracked by a core.RunHistory row moving through
// pending -> in_progress -> {completed, failed}. On failure the previous
// generation of knowledge is left untouched.
package ingest
