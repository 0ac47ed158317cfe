package lifetable

import (
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"memento/internal/profile"
)

//go:embed data/life_table_2021.csv
var embeddedTables embed.FS

const embeddedVersion = "ssa-2021"

type row struct {
	maleQx   float64
	maleEx   float64
	femaleQx float64
	femaleEx float64
}

// MemoryStore serves the embedded period life table snapshot. Rows are loaded
// once at construction and never mutated, so lookups need no locking.
type MemoryStore struct {
	rows    map[int]row
	version string
}

// NewMemoryStore parses the embedded table. Fails only if the snapshot
// shipped with the binary is malformed.
func NewMemoryStore() (*MemoryStore, error) {
	f, err := embeddedTables.Open("data/life_table_2021.csv")
	if err != nil {
		return nil, fmt.Errorf("open embedded life table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		return nil, fmt.Errorf("read life table header: %w", err)
	}

	rows := make(map[int]row, MaxAge+1)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read life table row: %w", err)
		}
		if len(rec) != 5 {
			return nil, fmt.Errorf("life table row has %d columns, want 5", len(rec))
		}

		age, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse life table age %q: %w", rec[0], err)
		}
		vals := make([]float64, 4)
		for i, s := range rec[1:] {
			if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("parse life table value %q at age %d: %w", s, age, err)
			}
		}
		rows[age] = row{maleQx: vals[0], maleEx: vals[1], femaleQx: vals[2], femaleEx: vals[3]}
	}

	if len(rows) != MaxAge+1 {
		return nil, fmt.Errorf("life table has %d rows, want %d", len(rows), MaxAge+1)
	}

	return &MemoryStore{rows: rows, version: embeddedVersion}, nil
}

// Lookup returns the exact-age row.
func (s *MemoryStore) Lookup(_ context.Context, age int, sex profile.Sex) (BaselineRisk, error) {
	r, ok := s.rows[age]
	if !ok {
		return BaselineRisk{}, ErrOutOfRange(age)
	}
	b := BaselineRisk{TableVersion: s.version}
	if sex == profile.SexMale {
		b.Qx, b.Ex = r.maleQx, r.maleEx
	} else {
		b.Qx, b.Ex = r.femaleQx, r.femaleEx
	}
	return b, nil
}

// Version identifies the embedded snapshot.
func (s *MemoryStore) Version() string { return s.version }
