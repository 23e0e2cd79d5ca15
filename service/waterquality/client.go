package waterquality

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/kochabx/carelink/core/net/http"
)

const (
	HealthPath    = "/api/health"
	ModelInfoPath = "/api/model-info"
	PredictPath   = "/api/predict"

	ModelVersion = "1.0.0"
)

type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp"`
}

type ModelInfo struct {
	ModelName    string   `json:"model_name,omitempty"`
	ModelType    string   `json:"model_type,omitempty"`
	Accuracy     any      `json:"accuracy,omitempty"`
	TrainingDate string   `json:"training_date,omitempty"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Status       string   `json:"status"`
	Message      string   `json:"message,omitempty"`
}

type Probabilities struct {
	NotSafe *float64 `json:"not_safe"`
	Safe    *float64 `json:"safe"`
}

type Outcome struct {
	RawPrediction     int           `json:"raw_prediction"`
	IsSafeToDrink     bool          `json:"is_safe_to_drink"`
	SafetyStatus      string        `json:"safety_status"`
	Confidence        *float64      `json:"confidence"`
	ProbabilityScores Probabilities `json:"probability_scores"`
}

type Validation struct {
	IsValid  bool     `json:"is_valid"`
	Warnings []string `json:"warnings"`
}

type PredictionMetadata struct {
	Timestamp    string `json:"timestamp"`
	ModelVersion string `json:"model_version"`
}

// Prediction is the predictor's answer for one Sample.
type Prediction struct {
	Prediction      Outcome            `json:"prediction"`
	InputParameters Sample             `json:"input_parameters"`
	Validation      Validation         `json:"validation"`
	Metadata        PredictionMetadata `json:"metadata"`
}

func safetyStatus(safe bool) string {
	if safe {
		return "Safe to drink"
	}
	return "Not safe to drink"
}

// Offline scores s with the threshold rule instead of the model. It has no
// confidence.
func Offline(s Sample) *Prediction {
	safe := s.Potable()
	raw := 0
	if safe {
		raw = 1
	}
	warnings := s.Warnings()

	return &Prediction{
		Prediction: Outcome{
			RawPrediction: raw,
			IsSafeToDrink: safe,
			SafetyStatus:  safetyStatus(safe),
		},
		InputParameters: s,
		Validation: Validation{
			IsValid:  len(warnings) == 0,
			Warnings: warnings,
		},
		Metadata: PredictionMetadata{
			Timestamp:    time.Now().Format(time.RFC3339),
			ModelVersion: ModelVersion,
		},
	}
}

// Client talks to the prediction service.
type Client struct {
	client http.Requester
}

// New wraps r, which should be created with http.WithRefreshDisabled since
// the prediction service has no session.
func New(r http.Requester) *Client {
	return &Client{client: r}
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if _, err := c.client.Request(ctx, stdhttp.MethodGet, HealthPath, nil, http.WithResponse(&h)); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	var info ModelInfo
	if _, err := c.client.Request(ctx, stdhttp.MethodGet, ModelInfoPath, nil, http.WithResponse(&info)); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) Predict(ctx context.Context, s Sample) (*Prediction, error) {
	var p Prediction
	if _, err := c.client.Request(ctx, stdhttp.MethodPost, PredictPath, s, http.WithResponse(&p)); err != nil {
		return nil, err
	}
	return &p, nil
}
