package lifetable

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memento/internal/profile"
)

// PostgresStore reads the life table from the life_table_rows table. Schema:
//
//	life_table_rows(version text, age int, sex text, qx double precision,
//	                ex double precision, primary key (version, age, sex))
type PostgresStore struct {
	pool    *pgxpool.Pool
	version string
}

// NewPostgresStore binds the store to one table version.
func NewPostgresStore(pool *pgxpool.Pool, version string) *PostgresStore {
	return &PostgresStore{pool: pool, version: version}
}

// Lookup fetches the exact-age row for the bound version.
func (s *PostgresStore) Lookup(ctx context.Context, age int, sex profile.Sex) (BaselineRisk, error) {
	const q = `SELECT qx, ex FROM life_table_rows WHERE version = $1 AND age = $2 AND sex = $3`

	var b BaselineRisk
	err := s.pool.QueryRow(ctx, q, s.version, age, string(sex)).Scan(&b.Qx, &b.Ex)
	if errors.Is(err, pgx.ErrNoRows) {
		return BaselineRisk{}, ErrOutOfRange(age)
	}
	if err != nil {
		return BaselineRisk{}, fmt.Errorf("life table lookup age=%d sex=%s: %w", age, sex, err)
	}
	b.TableVersion = s.version
	return b, nil
}

// Version identifies the bound table snapshot.
func (s *PostgresStore) Version() string { return s.version }
