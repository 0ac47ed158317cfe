package causes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memento/internal/profile"
	dErrors "memento/pkg/domain-errors"
)

// PostgresStore reads cause fractions from the cause_fraction_rows table,
// letting deployments load jurisdiction-specific distributions without a
// rebuild. Schema:
//
//	CREATE TABLE cause_fraction_rows (
//	    version  TEXT NOT NULL,
//	    band     TEXT NOT NULL,
//	    sex      TEXT NOT NULL,
//	    cause    TEXT NOT NULL,
//	    fraction DOUBLE PRECISION NOT NULL,
//	    PRIMARY KEY (version, band, sex, cause)
//	);
type PostgresStore struct {
	pool    *pgxpool.Pool
	version string
}

func NewPostgresStore(pool *pgxpool.Pool, version string) *PostgresStore {
	return &PostgresStore{pool: pool, version: version}
}

func (s *PostgresStore) Fractions(ctx context.Context, band Band, sex profile.Sex) (FractionSet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cause, fraction FROM cause_fraction_rows
		 WHERE version = $1 AND band = $2 AND sex = $3`,
		s.version, string(band), string(sex))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FractionSet{}, ErrNoData(band, sex)
		}
		return FractionSet{}, dErrors.Wrap(dErrors.CodeInternal, "query cause fractions", err)
	}
	defer rows.Close()

	fractions := make(map[Cause]float64, len(All()))
	for rows.Next() {
		var cause string
		var fraction float64
		if err := rows.Scan(&cause, &fraction); err != nil {
			return FractionSet{}, dErrors.Wrap(dErrors.CodeInternal, "scan cause fraction", err)
		}
		fractions[Cause(cause)] = fraction
	}
	if err := rows.Err(); err != nil {
		return FractionSet{}, dErrors.Wrap(dErrors.CodeInternal, "iterate cause fractions", err)
	}
	if len(fractions) == 0 {
		return FractionSet{}, ErrNoData(band, sex)
	}
	return FractionSet{
		Band:         band,
		Sex:          sex,
		Fractions:    fractions,
		TableVersion: s.version,
	}, nil
}

func (s *PostgresStore) Version() string { return s.version }
