package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/vault-rag/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/vault-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// DatabaseFile is the name of the database file inside the store directory.
const DatabaseFile = "vectors.db"

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Store is a SQLite-based vector index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates or opens a vector store in the specified directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: store directory is required", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dir, DatabaseFile)

	// Open database with WAL mode so readers never wait on a finished writer
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// GetOrCreate returns the named collection, creating it if needed.
func (s *Store) GetOrCreate(ctx context.Context, spec domain.CollectionSpec) (*domain.Collection, error) {
	if spec.Name == "" || spec.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: collection needs a name and positive dimensions", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := scanCollection(tx.QueryRowContext(ctx, `
		SELECT name, embedding_model, dimensions, created_at
		FROM collections WHERE name = ?
	`, spec.Name))
	switch {
	case err == nil:
		if !existing.Matches(spec.EmbeddingModel, spec.Dimensions) {
			return nil, fmt.Errorf("%w: collection %q was built with %s (%d dimensions), requested %s (%d dimensions)",
				domain.ErrEmbeddingMismatch, spec.Name, existing.EmbeddingModel, existing.Dimensions,
				spec.EmbeddingModel, spec.Dimensions)
		}
	case errors.Is(err, domain.ErrCollectionNotFound):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO collections (name, embedding_model, dimensions, created_at)
			VALUES (?, ?, ?, ?)
		`, spec.Name, spec.EmbeddingModel, spec.Dimensions, time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	default:
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return s.Get(ctx, spec.Name)
}

// Get returns the named collection with its record count.
func (s *Store) Get(ctx context.Context, name string) (*domain.Collection, error) {
	collection, err := scanCollection(s.db.QueryRowContext(ctx, `
		SELECT name, embedding_model, dimensions, created_at
		FROM collections WHERE name = ?
	`, name))
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE collection = ?", name)
	if err := row.Scan(&collection.Count); err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	return collection, nil
}

// Exists reports whether the named collection exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections WHERE name = ?", name)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("checking collection: %w", err)
	}
	return n > 0, nil
}

// ListCollections returns all collection names, sorted.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}
	return names, nil
}

// Upsert inserts or replaces records by ID.
// A replaced record keeps its original insertion position.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	col, err := s.Get(ctx, collection)
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Embedding) != col.Dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection %q expects %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), collection, col.Dimensions)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection, id, embedding, text, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			embedding = excluded.embedding,
			text = excluded.text,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling record metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, collection, r.ID,
			float32SliceToBytes(r.Embedding), r.Text, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns at most k records by descending cosine similarity.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, k int) ([]driven.VectorHit, error) {
	col, err := s.Get(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != col.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %q expects %d",
			domain.ErrDimensionMismatch, len(vector), collection, col.Dimensions)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embedding, text, metadata
		FROM records WHERE collection = ?
		ORDER BY rowid
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0, col.Count)
	for rows.Next() {
		var hit driven.VectorHit
		var embeddingBlob []byte
		var metadataJSON string

		if err := rows.Scan(&hit.ID, &embeddingBlob, &hit.Text, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if metadataJSON != "" && metadataJSON != jsonNull {
			if err := json.Unmarshal([]byte(metadataJSON), &hit.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling record metadata: %w", err)
			}
		}
		hit.Similarity = similarity.Cosine(vector, bytesToFloat32Slice(embeddingBlob))
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return similarity.TopK(hits, k), nil
}

// Delete drops a collection and all its records.
func (s *Store) Delete(ctx context.Context, collection string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE collection = ?", collection); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", collection); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// scanCollection scans a single collection row.
func scanCollection(row *sql.Row) (*domain.Collection, error) {
	var c domain.Collection
	var createdAt string

	if err := row.Scan(&c.Name, &c.EmbeddingModel, &c.Dimensions, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		c.CreatedAt = t
	}
	return &c, nil
}

// float32SliceToBytes converts []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
