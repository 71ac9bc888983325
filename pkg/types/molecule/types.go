// Package molecule defines the request and response bodies of the ToxInsight
// HTTP API. The server, the Go SDK and the CLI share these types, so they hold
// plain data only and import nothing from internal packages.
package molecule

import (
	"encoding/json"
	"errors"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Requests
// ─────────────────────────────────────────────────────────────────────────────

// ConvertRequest is the body of POST /convert.
type ConvertRequest struct {
	SMILES string `json:"smiles"`
}

// AnalyzeRequest is the body of POST /analyze. Prompt is optional; when empty
// the assistant is not consulted.
type AnalyzeRequest struct {
	SMILES string `json:"smiles"`
	Prompt string `json:"prompt,omitempty"`
}

// ChartRequest is the body of POST /chart.
type ChartRequest struct {
	SMILES string `json:"smiles"`
}

// ErrMissingSMILES is returned by Validate when no structure was supplied.
var ErrMissingSMILES = errors.New("No SMILES string provided")

// Validate trims the SMILES and rejects an empty value.
func (r *ConvertRequest) Validate() error {
	r.SMILES = strings.TrimSpace(r.SMILES)
	if r.SMILES == "" {
		return ErrMissingSMILES
	}
	return nil
}

// Validate trims the SMILES and rejects an empty value.
func (r *ChartRequest) Validate() error {
	r.SMILES = strings.TrimSpace(r.SMILES)
	if r.SMILES == "" {
		return ErrMissingSMILES
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Responses
// ─────────────────────────────────────────────────────────────────────────────

// ConvertResponse carries the hydrogenated 3D MOL block.
type ConvertResponse struct {
	Message  string `json:"message"`
	MolBlock string `json:"mol_block"`
}

// PredictionEntry is the label and two-decimal confidence for one endpoint.
type PredictionEntry struct {
	Prediction string `json:"prediction"`
	Confidence string `json:"confidence"`
}

// ToxicityResult is either a per-endpoint prediction map or, when inference
// failed, a single {"Error": "..."} object.
type ToxicityResult struct {
	Predictions map[string]PredictionEntry
	Error       string
}

// MarshalJSON renders the union form used on the wire.
func (t ToxicityResult) MarshalJSON() ([]byte, error) {
	if t.Error != "" {
		return json.Marshal(map[string]string{"Error": t.Error})
	}
	if t.Predictions == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.Predictions)
}

// UnmarshalJSON accepts both forms of the union.
func (t *ToxicityResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ToxicityResult{}
	if msg, ok := raw["Error"]; ok && len(raw) == 1 {
		return json.Unmarshal(msg, &t.Error)
	}
	t.Predictions = make(map[string]PredictionEntry, len(raw))
	for k, v := range raw {
		var e PredictionEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		t.Predictions[k] = e
	}
	return nil
}

// Failed reports whether the result carries an inference error.
func (t ToxicityResult) Failed() bool { return t.Error != "" }

// AnalyzeResponse is returned by POST /analyze. All five analysis keys are
// always present; Properties and the image fields are null when the
// corresponding step failed. Error is set when the SMILES could not be
// analysed at all.
type AnalyzeResponse struct {
	Properties      map[string]string `json:"properties"`
	Toxicity        ToxicityResult    `json:"toxicity"`
	MoleculeImage   *string           `json:"molecule_image"`
	MoleculeImage2D *string           `json:"molecule_image_2d"`
	GeminiResponse  string            `json:"gemini_response"`
	Error           string            `json:"error,omitempty"`
}

// ChartPoint is one bar of the toxicity chart.
type ChartPoint struct {
	Endpoint string  `json:"endpoint"`
	Value    float64 `json:"value"`
}

// ChartResponse is returned by POST /chart.
type ChartResponse struct {
	Predictions []ChartPoint `json:"predictions"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

//Personal.AI order the ending
