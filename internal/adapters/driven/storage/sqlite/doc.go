// Package sqlite provides a SQLite-backed implementation of driven.VectorIndex.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Vectors are stored as little-endian
// float32 blobs next to their chunk text and JSON metadata, one row per record,
// partitioned by collection.
//
// # Search
//
// Queries are exact: every vector in the collection is scored by cosine
// similarity in process and the best k are returned. Ties keep insertion order
// (rowid), so results are deterministic for a given index.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database lives at <dir>/vectors.db, where dir is normally
// <STORAGE_DIR>/chroma.
//
// # Thread Safety
//
// All operations are thread-safe. The store runs in WAL mode, so readers are
// not blocked by a completed write.
package sqlite
