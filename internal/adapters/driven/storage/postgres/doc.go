// Package postgres provides a PostgreSQL implementation of driven.VectorIndex
// backed by the pgvector extension.
//
// Records live in a single vault_records table partitioned by collection.
// Queries order by the cosine distance operator (<=>) without an approximate
// index, so results are exact. Ties keep insertion order through a serial
// column.
//
// The schema is applied idempotently on open and requires permission to run
// CREATE EXTENSION vector.
package postgres
