package causes

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "memento/pkg/domain-errors"

	"memento/internal/profile"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		age  int
		want Band
	}{
		{0, "0-17"}, {17, "0-17"},
		{18, "18-29"}, {29, "18-29"},
		{30, "30-44"}, {44, "30-44"},
		{45, "45-59"}, {59, "45-59"},
		{60, "60-74"}, {74, "60-74"},
		{75, "75+"}, {110, "75+"},
	}
	for _, tc := range cases {
		band, err := BandFor(tc.age)
		require.NoError(t, err)
		assert.Equal(t, tc.want, band, "age %d", tc.age)
	}

	_, err := BandFor(-1)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeOutOfRange, dErrors.CodeOf(err))
}

func TestMemoryStore(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("every band and sex has a row summing to one", func(t *testing.T) {
		for _, b := range []Band{"0-17", "18-29", "30-44", "45-59", "60-74", "75+"} {
			for _, sex := range []profile.Sex{profile.SexMale, profile.SexFemale} {
				set, err := store.Fractions(ctx, b, sex)
				require.NoError(t, err, "band %s sex %s", b, sex)
				assert.Len(t, set.Fractions, len(All()))
				assert.InDelta(t, 1.0, set.Sum(), SumTolerance)
				for cause, v := range set.Fractions {
					assert.GreaterOrEqual(t, v, 0.0, "cause %s", cause)
				}
			}
		}
	})

	t.Run("accidents dominate young adults, heart disease the elderly", func(t *testing.T) {
		young, err := store.Fractions(ctx, "18-29", profile.SexMale)
		require.NoError(t, err)
		old, err := store.Fractions(ctx, "75+", profile.SexMale)
		require.NoError(t, err)

		assert.Greater(t, young.Fractions[CauseAccidents], old.Fractions[CauseAccidents])
		assert.Greater(t, old.Fractions[CauseHeartDisease], young.Fractions[CauseHeartDisease])
	})

	t.Run("missing row is a no_data error", func(t *testing.T) {
		_, err := store.Fractions(ctx, Band("90-99"), profile.SexMale)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeNoData, dErrors.CodeOf(err))
	})
}

type skewedStore struct {
	set FractionSet
}

func (s *skewedStore) Fractions(context.Context, Band, profile.Sex) (FractionSet, error) {
	return s.set, nil
}

func (s *skewedStore) Version() string { return "test" }

func skewedSet(scale float64) FractionSet {
	fractions := map[Cause]float64{}
	per := scale / float64(len(All()))
	for _, c := range All() {
		fractions[c] = per
	}
	return FractionSet{Band: "45-59", Sex: profile.SexFemale, Fractions: fractions, TableVersion: "test"}
}

func TestProviderRenormalization(t *testing.T) {
	t.Run("drifted row is renormalized and flagged", func(t *testing.T) {
		p := NewProvider(&skewedStore{set: skewedSet(1.08)}, discardLogger(), false)

		set, err := p.Allocation(context.Background(), 50, profile.SexFemale)
		require.NoError(t, err)
		assert.True(t, set.Renormalized)
		assert.InDelta(t, 1.0, set.Sum(), 1e-9)
	})

	t.Run("strict mode rejects drifted rows", func(t *testing.T) {
		p := NewProvider(&skewedStore{set: skewedSet(1.08)}, discardLogger(), true)

		_, err := p.Allocation(context.Background(), 50, profile.SexFemale)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeDataIntegrity, dErrors.CodeOf(err))
	})

	t.Run("row within tolerance passes through untouched", func(t *testing.T) {
		p := NewProvider(&skewedStore{set: skewedSet(1.005)}, discardLogger(), true)

		set, err := p.Allocation(context.Background(), 50, profile.SexFemale)
		require.NoError(t, err)
		assert.False(t, set.Renormalized)
		assert.True(t, math.Abs(set.Sum()-1.005) < 1e-9)
	})
}

func TestProviderCaching(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	p := NewProvider(store, discardLogger(), true)

	first, err := p.Allocation(context.Background(), 62, profile.SexMale)
	require.NoError(t, err)
	second, err := p.Allocation(context.Background(), 70, profile.SexMale)
	require.NoError(t, err)

	// Ages 62 and 70 share the 60-74 band and resolve to the same row.
	assert.Equal(t, first.Fractions, second.Fractions)
}
