// Package postgres implements the storage interfaces on PostgreSQL with
// the pgvector extension.
//
// The Pool type owns session lifecycle: bounded size, recycling by
// lifetime and idle time, retry-on-init, and scoped transactions. The
// repositories are thin: all similarity ranking runs server-side through
// the crawl.match_crawled_pages function, and every statement is
// parameterized.
package postgres
