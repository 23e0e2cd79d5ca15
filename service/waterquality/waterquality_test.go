package waterquality

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/log"
)

var cleanWater = Sample{
	PH:              7.2,
	Hardness:        150,
	Solids:          400,
	Chloramines:     3,
	Sulfate:         200,
	Conductivity:    420,
	OrganicCarbon:   8,
	Trihalomethanes: 60,
	Turbidity:       3,
}

func TestPotable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Sample)
		want   bool
	}{
		{"clean", func(*Sample) {}, true},
		{"acidic", func(s *Sample) { s.PH = 6.4 }, false},
		{"alkaline", func(s *Sample) { s.PH = 8.6 }, false},
		{"ph at bounds", func(s *Sample) { s.PH = 8.5 }, true},
		{"hard", func(s *Sample) { s.Hardness = 201 }, false},
		{"solids at limit", func(s *Sample) { s.Solids = 500 }, true},
		{"solids", func(s *Sample) { s.Solids = 20000 }, false},
		{"chloramines", func(s *Sample) { s.Chloramines = 7 }, false},
		{"sulfate", func(s *Sample) { s.Sulfate = 300 }, false},
		{"conductivity", func(s *Sample) { s.Conductivity = 501 }, false},
		{"organic carbon", func(s *Sample) { s.OrganicCarbon = 15 }, false},
		{"trihalomethanes", func(s *Sample) { s.Trihalomethanes = 81 }, false},
		{"turbidity", func(s *Sample) { s.Turbidity = 5.1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanWater
			tt.mutate(&s)
			assert.Equal(t, tt.want, s.Potable())
		})
	}
}

func TestWarnings(t *testing.T) {
	assert.Empty(t, cleanWater.Warnings())

	s := cleanWater
	s.PH = 15
	s.Turbidity = -1
	assert.Equal(t, []string{
		"ph (15) is outside typical range (0-14)",
		"turbidity (-1) is outside typical range (0-20)",
	}, s.Warnings())
}

func TestSet(t *testing.T) {
	var s Sample
	for _, p := range Parameters {
		require.NoError(t, s.Set(p.Name, p.Value(cleanWater)))
	}
	assert.Equal(t, cleanWater, s)
	assert.Error(t, s.Set("lead", 1))
}

func TestOffline(t *testing.T) {
	p := Offline(cleanWater)
	assert.True(t, p.Prediction.IsSafeToDrink)
	assert.Equal(t, 1, p.Prediction.RawPrediction)
	assert.Equal(t, "Safe to drink", p.Prediction.SafetyStatus)
	assert.Nil(t, p.Prediction.Confidence)
	assert.True(t, p.Validation.IsValid)

	bad := cleanWater
	bad.Solids = 200000
	p = Offline(bad)
	assert.False(t, p.Prediction.IsSafeToDrink)
	assert.Equal(t, "Not safe to drink", p.Prediction.SafetyStatus)
	assert.False(t, p.Validation.IsValid)
	assert.Len(t, p.Validation.Warnings, 1)
}

func newClient(t *testing.T, handler stdhttp.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := http.New(srv.URL,
		http.WithRefreshDisabled(),
		http.WithRegisterer(prometheus.NewRegistry()),
		http.WithLogger(log.NewWriter(io.Discard)),
	)
	require.NoError(t, err)
	return New(c)
}

func TestPredict(t *testing.T) {
	c := newClient(t, func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		assert.Equal(t, stdhttp.MethodPost, r.Method)
		assert.Equal(t, PredictPath, r.URL.Path)

		var s Sample
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&s))
		io.WriteString(w, `{
			"prediction": {
				"raw_prediction": 1,
				"is_safe_to_drink": true,
				"safety_status": "Safe to drink",
				"confidence": 0.91,
				"probability_scores": {"not_safe": 0.09, "safe": 0.91}
			},
			"input_parameters": {"ph": 7.2},
			"validation": {"is_valid": true, "warnings": []},
			"metadata": {"timestamp": "2026-10-16T10:00:00", "model_version": "1.0.0"}
		}`)
	})

	p, err := c.Predict(context.Background(), cleanWater)
	require.NoError(t, err)
	assert.True(t, p.Prediction.IsSafeToDrink)
	require.NotNil(t, p.Prediction.Confidence)
	assert.InDelta(t, 0.91, *p.Prediction.Confidence, 1e-9)
	assert.InDelta(t, 0.09, *p.Prediction.ProbabilityScores.NotSafe, 1e-9)
	assert.Equal(t, "1.0.0", p.Metadata.ModelVersion)
}

func TestPredictModelNotLoaded(t *testing.T) {
	c := newClient(t, func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"Model not loaded","message":"The prediction model is not available."}`)
	})

	_, err := c.Predict(context.Background(), cleanWater)
	assert.ErrorIs(t, err, http.ErrServer)
	assert.Equal(t, stdhttp.StatusServiceUnavailable, http.StatusCode(err))
}

func TestHealthAndModelInfo(t *testing.T) {
	c := newClient(t, func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		switch r.URL.Path {
		case HealthPath:
			io.WriteString(w, `{"status":"healthy","model_loaded":true,"timestamp":"2026-10-16T10:00:00"}`)
		case ModelInfoPath:
			io.WriteString(w, `{"model_name":"rf","model_type":"RandomForestClassifier","accuracy":0.68,"feature_names":["ph","hardness"],"status":"loaded"}`)
		default:
			w.WriteHeader(stdhttp.StatusNotFound)
		}
	})
	ctx := context.Background()

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.True(t, h.ModelLoaded)
	assert.Equal(t, "healthy", h.Status)

	info, err := c.ModelInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "loaded", info.Status)
	assert.Equal(t, 0.68, info.Accuracy)
	assert.Equal(t, []string{"ph", "hardness"}, info.FeatureNames)
}
