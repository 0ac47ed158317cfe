package causes

import (
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	dErrors "memento/pkg/domain-errors"

	"memento/internal/profile"
)

//go:embed data/cause_fractions_2022.csv
var causeFractionCSV string

const memoryVersion = "cdc-wonder-2022"

type fractionKey struct {
	band Band
	sex  profile.Sex
}

// MemoryStore serves the embedded national cause-of-death distribution.
type MemoryStore struct {
	rows map[fractionKey]FractionSet
}

// NewMemoryStore parses the embedded table. Every (band, sex) pair must be
// present exactly once; anything else is a data integrity failure at startup.
func NewMemoryStore() (*MemoryStore, error) {
	reader := csv.NewReader(strings.NewReader(causeFractionCSV))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeDataIntegrity, "parse embedded cause fractions", err)
	}
	if len(records) < 2 {
		return nil, dErrors.New(dErrors.CodeDataIntegrity, "embedded cause fractions empty")
	}

	header := records[0]
	if len(header) < 3 || header[0] != "band" || header[1] != "sex" {
		return nil, dErrors.New(dErrors.CodeDataIntegrity, "unexpected cause fraction header")
	}
	colCauses := make([]Cause, 0, len(header)-2)
	for _, name := range header[2:] {
		colCauses = append(colCauses, Cause(name))
	}

	rows := make(map[fractionKey]FractionSet, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, dErrors.Newf(dErrors.CodeDataIntegrity, "cause fraction row %d has %d fields", i+1, len(rec))
		}
		key := fractionKey{band: Band(rec[0]), sex: profile.Sex(rec[1])}
		fractions := make(map[Cause]float64, len(colCauses))
		for j, cause := range colCauses {
			v, err := strconv.ParseFloat(rec[j+2], 64)
			if err != nil {
				return nil, dErrors.Wrap(dErrors.CodeDataIntegrity,
					fmt.Sprintf("cause fraction row %d column %s", i+1, cause), err)
			}
			if v < 0 || v > 1 {
				return nil, dErrors.Newf(dErrors.CodeDataIntegrity,
					"cause fraction row %d column %s out of [0,1]: %g", i+1, cause, v)
			}
			fractions[cause] = v
		}
		if _, dup := rows[key]; dup {
			return nil, dErrors.Newf(dErrors.CodeDataIntegrity, "duplicate cause row %s/%s", key.band, key.sex)
		}
		rows[key] = FractionSet{
			Band:         key.band,
			Sex:          key.sex,
			Fractions:    fractions,
			TableVersion: memoryVersion,
		}
	}

	want := len(bands) * 2
	if len(rows) != want {
		return nil, dErrors.Newf(dErrors.CodeDataIntegrity, "expected %d cause rows, got %d", want, len(rows))
	}
	return &MemoryStore{rows: rows}, nil
}

func (s *MemoryStore) Fractions(_ context.Context, band Band, sex profile.Sex) (FractionSet, error) {
	row, ok := s.rows[fractionKey{band: band, sex: sex}]
	if !ok {
		return FractionSet{}, ErrNoData(band, sex)
	}
	return row, nil
}

func (s *MemoryStore) Version() string { return memoryVersion }
