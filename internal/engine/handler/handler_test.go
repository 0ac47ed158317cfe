package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/causes"
	"memento/internal/engine"
	"memento/internal/lifetable"
	"memento/internal/reference"
	"memento/internal/riskfactor"
)

// newTestRouter builds the handler over a real engine with the embedded
// reference tables; no mocks.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ltStore, err := lifetable.NewMemoryStore()
	require.NoError(t, err)

	causeStore, err := causes.NewMemoryStore()
	require.NoError(t, err)

	factors := riskfactor.NewMemoryStore()
	svc := engine.NewService(
		lifetable.NewProvider(ltStore),
		causes.NewProvider(causeStore, logger, false),
		factors,
		reference.DefaultValidator(logger),
		logger,
	)

	r := chi.NewRouter()
	New(svc, factors, logger).Register(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleAssess(t *testing.T) {
	router := newTestRouter(t)

	t.Run("healthy profile", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/assessments", map[string]any{
			"age": 70, "sex": "male",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Baseline struct {
				Qx float64 `json:"qx"`
			} `json:"baseline"`
			Adjusted struct {
				TotalRisk float64 `json:"total_risk"`
				RiskLevel string  `json:"risk_level"`
			} `json:"adjusted"`
			Provenance struct {
				TableVersions map[string]string `json:"table_versions"`
			} `json:"provenance"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, resp.Baseline.Qx, resp.Adjusted.TotalRisk)
		assert.Equal(t, "moderate", resp.Adjusted.RiskLevel)
		assert.Equal(t, "ssa-2021", resp.Provenance.TableVersions["life_table"])
	})

	t.Run("smoker carries exposures and warnings count", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/assessments", map[string]any{
			"age": 55, "sex": "female", "smoking_status": "current",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Exposures []struct {
				FactorID string `json:"factor_id"`
			} `json:"exposures"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Exposures, 1)
		assert.Equal(t, "smoking", resp.Exposures[0].FactorID)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/assessments", bytes.NewReader([]byte("{nope")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid enum", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/assessments", map[string]any{
			"age": 50, "sex": "male", "smoking_status": "sometimes",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("age outside table range", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/assessments", map[string]any{
			"age": 120, "sex": "male",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleInterventions(t *testing.T) {
	router := newTestRouter(t)

	t.Run("ranked results", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/interventions", map[string]any{
			"age": 58, "sex": "male",
			"smoking_status": "current",
			"systolic_bp":    165,
			"top_k":          2,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Ranked []struct {
				Intervention struct {
					ID string `json:"id"`
				} `json:"intervention"`
				AbsoluteReduction float64 `json:"absolute_reduction"`
			} `json:"ranked"`
			Combined *struct {
				InterventionIDs []string `json:"intervention_ids"`
			} `json:"combined"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Ranked, 2)
		require.NotNil(t, resp.Combined)
		assert.Len(t, resp.Combined.InterventionIDs, 2)
	})

	t.Run("rejects oversized top_k", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/interventions", map[string]any{
			"age": 50, "sex": "male", "top_k": 50,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleFactors(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/factors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Version string `json:"version"`
		Factors []struct {
			ID       string `json:"id"`
			Citation struct {
				Source string `json:"source"`
			} `json:"citation"`
		} `json:"factors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Version)
	require.Len(t, resp.Factors, 7)
	for _, f := range resp.Factors {
		assert.NotEmpty(t, f.Citation.Source, "factor %s missing citation", f.ID)
	}
}

func TestHandleSchema(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/schema", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Version string `json:"version"`
		Fields  []struct {
			Name     string `json:"name"`
			Required bool   `json:"required"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.Version)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "age", resp.Fields[0].Name)
	assert.True(t, resp.Fields[0].Required)
}

func TestHandleValidation(t *testing.T) {
	router := newTestRouter(t)

	t.Run("findings instead of errors", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/schema/validation", map[string]any{
			"age": 50, "sex": "male", "systolic_bp": 300,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Valid  bool     `json:"valid"`
			Errors []string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Valid)
		assert.NotEmpty(t, resp.Errors)
	})

	t.Run("clean profile", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/schema/validation", map[string]any{
			"age": 50, "sex": "male",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Valid bool `json:"valid"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
	})
}
