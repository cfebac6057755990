// Package pgvector implements [similarity.Ranker] backed by a PostgreSQL
// table of pre-embedded catalog names with a pgvector index.
//
// Unlike the in-process embedding ranker, this backend stores candidate
// vectors server-side, so only the query string is embedded per call and
// ranking happens in SQL via cosine distance. It is the right choice for
// large catalogs where embedding every candidate in memory is wasteful.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"

	"github.com/pourlane/ordercore/pkg/provider/embeddings"
	"github.com/pourlane/ordercore/pkg/provider/similarity"
)

// Schema is the SQL DDL for the catalog_name_vectors table. The vector
// dimension placeholder must match the embeddings provider's Dimensions().
// Execute via [Ranker.Migrate] or apply manually during deployment.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS catalog_name_vectors (
    name      TEXT PRIMARY KEY,
    embedding VECTOR(%d) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_catalog_name_vectors_hnsw
    ON catalog_name_vectors USING hnsw (embedding vector_cosine_ops);
`

// Ensure Ranker implements the similarity.Ranker interface at compile time.
var _ similarity.Ranker = (*Ranker)(nil)

// Ranker ranks candidates using cosine distance computed by PostgreSQL.
// All methods are safe for concurrent use.
type Ranker struct {
	pool     *pgxpool.Pool
	provider embeddings.Provider
}

// New creates a [Ranker] using pool for storage and provider for embedding
// query strings. The caller is responsible for calling [Ranker.Migrate] and
// [Ranker.IndexNames] before ranking.
func New(pool *pgxpool.Pool, provider embeddings.Provider) (*Ranker, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgvector: pool must not be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("pgvector: provider must not be nil")
	}
	return &Ranker{pool: pool, provider: provider}, nil
}

// Migrate creates the catalog_name_vectors table sized to the provider's
// embedding dimensions.
func (r *Ranker) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(Schema, r.provider.Dimensions())
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("pgvector: migrate: %w", err)
	}
	return nil
}

// IndexNames embeds names in one batch and upserts their vectors. Call it
// once at startup (and again whenever the catalog changes).
func (r *Ranker) IndexNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	vecs, err := r.provider.EmbedBatch(ctx, names)
	if err != nil {
		return fmt.Errorf("pgvector: embed names: %w", err)
	}

	const q = `
		INSERT INTO catalog_name_vectors (name, embedding)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET embedding = EXCLUDED.embedding`

	for i, name := range names {
		if _, err := r.pool.Exec(ctx, q, name, pgvec.NewVector(vecs[i])); err != nil {
			return fmt.Errorf("pgvector: index name %q: %w", name, err)
		}
	}
	return nil
}

// Rank implements [similarity.Ranker]. Candidates must already have been
// indexed via [Ranker.IndexNames]; unindexed candidates rank last with score 0.
//
// Results are ordered by descending similarity. Cosine distance d in [0,2]
// maps onto the score space as 1 - d/2.
func (r *Ranker) Rank(ctx context.Context, query string, candidates []string) ([]similarity.Match, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	queryVec, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgvector: embed query: %w", err)
	}

	const q = `
		SELECT name, embedding <=> $1 AS distance
		FROM   catalog_name_vectors
		WHERE  name = ANY($2)
		ORDER  BY distance`

	rows, err := r.pool.Query(ctx, q, pgvec.NewVector(queryVec), candidates)
	if err != nil {
		return nil, fmt.Errorf("pgvector: rank: %w", err)
	}

	ranked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (similarity.Match, error) {
		var (
			m        similarity.Match
			distance float64
		)
		if err := row.Scan(&m.Name, &distance); err != nil {
			return similarity.Match{}, err
		}
		m.Score = scoreFromDistance(distance)
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgvector: scan rows: %w", err)
	}

	// Candidates missing from the table rank last with score 0 so the
	// returned slice always matches the candidate set.
	if len(ranked) < len(candidates) {
		seen := make(map[string]struct{}, len(ranked))
		for _, m := range ranked {
			seen[m.Name] = struct{}{}
		}
		for _, c := range candidates {
			if _, ok := seen[c]; !ok {
				ranked = append(ranked, similarity.Match{Name: c})
			}
		}
	}
	return ranked, nil
}

// scoreFromDistance maps cosine distance [0,2] into the [0,1] score space.
func scoreFromDistance(d float64) float64 {
	s := 1 - d/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
