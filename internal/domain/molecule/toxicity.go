// Package molecule holds the per-request molecule records: descriptors,
// Tox21 toxicity reports, rendered images and conformers, together with the
// ports the application layer uses to obtain them.
package molecule

import (
	"fmt"
	"strings"
)

// Endpoint names one Tox21 assay target.
type Endpoint string

const (
	EndpointNRAR        Endpoint = "NR-AR"
	EndpointNRARLBD     Endpoint = "NR-AR-LBD"
	EndpointNRAhR       Endpoint = "NR-AhR"
	EndpointNRAromatase Endpoint = "NR-Aromatase"
	EndpointNRER        Endpoint = "NR-ER"
	EndpointNRERLBD     Endpoint = "NR-ER-LBD"
	EndpointNRPPARGamma Endpoint = "NR-PPAR-gamma"
	EndpointSRARE       Endpoint = "SR-ARE"
	EndpointSRATAD5     Endpoint = "SR-ATAD5"
	EndpointSRHSE       Endpoint = "SR-HSE"
	EndpointSRMMP       Endpoint = "SR-MMP"
	EndpointSRp53       Endpoint = "SR-p53"
)

// Tox21Endpoints lists the model's output tasks in output order.
var Tox21Endpoints = []Endpoint{
	EndpointNRAR,
	EndpointNRARLBD,
	EndpointNRAhR,
	EndpointNRAromatase,
	EndpointNRER,
	EndpointNRERLBD,
	EndpointNRPPARGamma,
	EndpointSRARE,
	EndpointSRATAD5,
	EndpointSRHSE,
	EndpointSRMMP,
	EndpointSRp53,
}

// EndpointCount is the number of Tox21 tasks the classifier predicts.
const EndpointCount = 12

// DefaultToxicThreshold is the toxic-class probability above which an
// endpoint is labelled Toxic.
const DefaultToxicThreshold = 0.5

// String returns the assay name.
func (e Endpoint) String() string { return string(e) }

// Label is the binary toxicity classification of one endpoint.
type Label string

const (
	LabelToxic    Label = "Toxic"
	LabelNonToxic Label = "Non-Toxic"
)

// LabelFor classifies a toxic-class probability. The comparison is strict:
// a probability equal to the threshold is Non-Toxic.
func LabelFor(p, threshold float64) Label {
	if p > threshold {
		return LabelToxic
	}
	return LabelNonToxic
}

// EndpointPrediction is the classifier output for a single endpoint.
type EndpointPrediction struct {
	Endpoint    Endpoint `json:"endpoint"`
	Label       Label    `json:"prediction"`
	Probability float64  `json:"probability"`
}

// Confidence formats the probability the way it is shown to users.
func (p EndpointPrediction) Confidence() string {
	return fmt.Sprintf("%.2f", p.Probability)
}

// ToxicityReport holds one prediction per Tox21 endpoint, in endpoint order.
type ToxicityReport struct {
	SMILES      string               `json:"smiles"`
	Model       string               `json:"model"`
	Threshold   float64              `json:"threshold"`
	Predictions []EndpointPrediction `json:"predictions"`
}

// NewToxicityReport labels probs (indexed like Tox21Endpoints) with threshold.
func NewToxicityReport(smiles, model string, probs []float64, threshold float64) (*ToxicityReport, error) {
	if len(probs) != EndpointCount {
		return nil, fmt.Errorf("expected %d endpoint probabilities, got %d", EndpointCount, len(probs))
	}
	report := &ToxicityReport{
		SMILES:      smiles,
		Model:       model,
		Threshold:   threshold,
		Predictions: make([]EndpointPrediction, 0, EndpointCount),
	}
	for i, ep := range Tox21Endpoints {
		p := probs[i]
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("probability %v for %s out of [0,1]", p, ep)
		}
		report.Predictions = append(report.Predictions, EndpointPrediction{
			Endpoint:    ep,
			Label:       LabelFor(p, threshold),
			Probability: p,
		})
	}
	return report, nil
}

// ToxicEndpoints returns the endpoints labelled Toxic.
func (r *ToxicityReport) ToxicEndpoints() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, p := range r.Predictions {
		if p.Label == LabelToxic {
			out = append(out, p.Endpoint.String())
		}
	}
	return out
}

// PredictionEntry is the wire form of one endpoint in the analysis response.
type PredictionEntry struct {
	Prediction string `json:"prediction"`
	Confidence string `json:"confidence"`
}

// WireMap renders the report as {endpoint: {prediction, confidence}}.
func (r *ToxicityReport) WireMap() map[string]PredictionEntry {
	out := make(map[string]PredictionEntry, len(r.Predictions))
	for _, p := range r.Predictions {
		out[p.Endpoint.String()] = PredictionEntry{
			Prediction: string(p.Label),
			Confidence: p.Confidence(),
		}
	}
	return out
}

// DescribeToxicity renders one "endpoint: label (confidence: c)" line per
// endpoint, newline separated. A nil report yields an empty string.
func DescribeToxicity(r *ToxicityReport) string {
	if r == nil {
		return ""
	}
	lines := make([]string, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		lines = append(lines, fmt.Sprintf("%s: %s (confidence: %s)", p.Endpoint, p.Label, p.Confidence()))
	}
	return strings.Join(lines, "\n")
}

//Personal.AI order the ending
