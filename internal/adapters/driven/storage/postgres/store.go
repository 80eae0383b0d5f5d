package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

//go:embed schema.sql
var schema string

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Store is a pgvector-based vector index.
type Store struct {
	db *sql.DB
}

// NewStore connects to the database and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidInput)
	}

	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreate returns the named collection, creating it if needed.
func (s *Store) GetOrCreate(ctx context.Context, spec domain.CollectionSpec) (*domain.Collection, error) {
	if spec.Name == "" || spec.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: collection needs a name and positive dimensions", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vault_collections (name, embedding_model, dimensions)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`, spec.Name, spec.EmbeddingModel, spec.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	col, err := s.Get(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	if !col.Matches(spec.EmbeddingModel, spec.Dimensions) {
		return nil, fmt.Errorf("%w: collection %q was built with %s (%d dimensions), requested %s (%d dimensions)",
			domain.ErrEmbeddingMismatch, spec.Name, col.EmbeddingModel, col.Dimensions,
			spec.EmbeddingModel, spec.Dimensions)
	}
	return col, nil
}

// Get returns the named collection with its record count.
func (s *Store) Get(ctx context.Context, name string) (*domain.Collection, error) {
	var c domain.Collection
	err := s.db.QueryRowContext(ctx, `
		SELECT c.name, c.embedding_model, c.dimensions, c.created_at,
			(SELECT COUNT(*) FROM vault_records r WHERE r.collection = c.name)
		FROM vault_collections c WHERE c.name = $1
	`, name).Scan(&c.Name, &c.EmbeddingModel, &c.Dimensions, &c.CreatedAt, &c.Count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	return &c, nil
}

// Exists reports whether the named collection exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM vault_collections WHERE name = $1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking collection: %w", err)
	}
	return exists, nil
}

// ListCollections returns all collection names, sorted.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM vault_collections ORDER BY name")
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
		INSERT INTO vault_records (collection, id, embedding, text, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			text = EXCLUDED.text,
			metadata = EXCLUDED.metadata
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
			pgvector.NewVector(r.Embedding), r.Text, string(metadataJSON)); err != nil {
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

	// <=> is cosine distance, so similarity is 1 - distance
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, metadata, 1 - (embedding <=> $2) AS similarity
		FROM vault_records
		WHERE collection = $1
		ORDER BY embedding <=> $2, seq
		LIMIT $3
	`, collection, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var hit driven.VectorHit
		var metadataJSON []byte
		var sim sql.NullFloat64

		if err := rows.Scan(&hit.ID, &hit.Text, &metadataJSON, &sim); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &hit.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling record metadata: %w", err)
			}
		}
		hit.Similarity = math.NaN()
		if sim.Valid {
			hit.Similarity = sim.Float64
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return hits, nil
}

// Delete drops a collection and all its records.
func (s *Store) Delete(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM vault_collections WHERE name = $1", collection); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}
