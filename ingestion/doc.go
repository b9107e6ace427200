// Package ingestion turns documents into stored, embedded chunks. It
// splits text on natural boundaries, optionally contextualizes chunks
// against their source document with a bounded worker pool, embeds them in
// batches, and writes them through the storage layer with per-row fallback
// on batch failure.
package ingestion
