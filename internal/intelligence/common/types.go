// Package common holds the model-serving plumbing shared by the intelligence
// packages: the backend contract, the TF-Serving REST client and the gRPC
// health probe.
package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrServingUnavailable = errors.New("serving unavailable")
	ErrModelNotDeployed   = errors.New("model not deployed")
	ErrInferenceTimeout   = errors.New("inference timeout")
	ErrClientClosed       = errors.New("client closed")
)

// ModelBackend is the contract every inference backend satisfies.
type ModelBackend interface {
	Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error)
	Healthy(ctx context.Context) error
	Close() error
}

// HealthChecker is a named readiness probe.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// PredictRequest carries one batch of instances for a named model.
type PredictRequest struct {
	ModelName    string                   `json:"-"`
	ModelVersion string                   `json:"-"`
	Instances    []map[string]interface{} `json:"instances"`
}

// Validate checks the request before it leaves the process.
func (r *PredictRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidInput)
	}
	if r.ModelName == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidInput)
	}
	if len(r.Instances) == 0 {
		return fmt.Errorf("%w: at least one instance is required", ErrInvalidInput)
	}
	return nil
}

// PredictResponse is the raw model output. Predictions is left undecoded so
// callers can pick the tensor shape they expect.
type PredictResponse struct {
	ModelName       string          `json:"-"`
	ModelVersion    string          `json:"-"`
	Predictions     json.RawMessage `json:"predictions"`
	InferenceTimeMs int64           `json:"-"`
}

// DecodeTensor3 decodes predictions shaped [batch][tasks][classes].
func DecodeTensor3(raw json.RawMessage) ([][][]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty predictions", ErrInvalidInput)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal predictions: %w", err)
	}
	batch, ok := generic.([]interface{})
	if !ok {
		return nil, fmt.Errorf("predictions: expected array, got %T", generic)
	}
	out := make([][][]float64, len(batch))
	for i, item := range batch {
		m, err := DecodeFloat64Matrix(item)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

// DecodeFloat64Matrix converts a JSON-decoded value into [][]float64.
func DecodeFloat64Matrix(input interface{}) ([][]float64, error) {
	if input == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if mat, ok := input.([][]float64); ok {
		return mat, nil
	}
	slice, ok := input.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected []interface{}, got %T", input)
	}
	result := make([][]float64, len(slice))
	for i, rowRaw := range slice {
		rowSlice, ok := rowRaw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("row %d is not []interface{}, got %T", i, rowRaw)
		}
		row := make([]float64, len(rowSlice))
		for j, valRaw := range rowSlice {
			f, err := toFloat64(valRaw)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i, j, err)
			}
			row[j] = f
		}
		result[i] = row
	}
	return result, nil
}

func toFloat64(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

//Personal.AI order the ending
