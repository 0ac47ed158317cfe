package riskfactor

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dErrors "memento/pkg/domain-errors"
)

// PostgresStore reads factor definitions from the risk_factor_definitions
// table, letting deployments ship reviewed relative-risk updates without a
// rebuild. The definition column holds the full Definition as JSON. Schema:
//
//	CREATE TABLE risk_factor_definitions (
//	    version    TEXT NOT NULL,
//	    factor_id  TEXT NOT NULL,
//	    definition JSONB NOT NULL,
//	    PRIMARY KEY (version, factor_id)
//	);
type PostgresStore struct {
	pool    *pgxpool.Pool
	version string
}

func NewPostgresStore(pool *pgxpool.Pool, version string) *PostgresStore {
	return &PostgresStore{pool: pool, version: version}
}

func (s *PostgresStore) Definition(ctx context.Context, id FactorID) (Definition, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT definition FROM risk_factor_definitions
		 WHERE version = $1 AND factor_id = $2`,
		s.version, string(id)).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, ErrUnknownFactor(id)
		}
		return Definition{}, dErrors.Wrap(dErrors.CodeInternal, "query factor definition", err)
	}
	return decodeDefinition(payload)
}

func (s *PostgresStore) All(ctx context.Context) ([]Definition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT definition FROM risk_factor_definitions
		 WHERE version = $1 ORDER BY factor_id`,
		s.version)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "query factor definitions", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "scan factor definition", err)
		}
		def, err := decodeDefinition(payload)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "iterate factor definitions", err)
	}
	return defs, nil
}

func (s *PostgresStore) Version() string { return s.version }

func decodeDefinition(payload []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(payload, &def); err != nil {
		return Definition{}, dErrors.Wrap(dErrors.CodeDataIntegrity, "decode factor definition", err)
	}
	return def, nil
}
