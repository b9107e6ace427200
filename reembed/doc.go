// Package reembed regenerates embeddings for stored chunks, source by
// source. It is used after switching embedding models or to repair
// zero-vector fallbacks left behind by embedding outages.
package reembed
