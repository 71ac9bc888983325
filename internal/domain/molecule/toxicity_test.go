package molecule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformProbs(p float64) []float64 {
	out := make([]float64, EndpointCount)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestTox21Endpoints_OrderAndCount(t *testing.T) {
	require.Len(t, Tox21Endpoints, EndpointCount)
	assert.Equal(t, EndpointNRAR, Tox21Endpoints[0])
	assert.Equal(t, EndpointNRPPARGamma, Tox21Endpoints[6])
	assert.Equal(t, EndpointSRp53, Tox21Endpoints[11])

	seen := map[Endpoint]bool{}
	for _, ep := range Tox21Endpoints {
		assert.False(t, seen[ep], "duplicate endpoint %s", ep)
		seen[ep] = true
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		p    float64
		want Label
	}{
		{0.0, LabelNonToxic},
		{0.49, LabelNonToxic},
		{0.5, LabelNonToxic},
		{0.5001, LabelToxic},
		{1.0, LabelToxic},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.p, DefaultToxicThreshold), "p=%v", tt.p)
	}
}

func TestNewToxicityReport(t *testing.T) {
	probs := uniformProbs(0.1)
	probs[3] = 0.87
	r, err := NewToxicityReport("CCO", "tox21_graphconv", probs, DefaultToxicThreshold)
	require.NoError(t, err)
	require.Len(t, r.Predictions, EndpointCount)

	assert.Equal(t, []string{"NR-Aromatase"}, r.ToxicEndpoints())
	assert.Equal(t, EndpointNRAromatase, r.Predictions[3].Endpoint)
	assert.InDelta(t, 0.87, r.Predictions[3].Probability, 1e-9)
}

func TestNewToxicityReport_WrongLength(t *testing.T) {
	_, err := NewToxicityReport("CCO", "m", []float64{0.1, 0.2}, DefaultToxicThreshold)
	assert.Error(t, err)
}

func TestNewToxicityReport_OutOfRange(t *testing.T) {
	probs := uniformProbs(0.2)
	probs[0] = 1.3
	_, err := NewToxicityReport("CCO", "m", probs, DefaultToxicThreshold)
	assert.Error(t, err)
}

func TestToxicityReport_WireMap(t *testing.T) {
	probs := uniformProbs(0.123)
	probs[11] = 0.9
	r, err := NewToxicityReport("CCO", "m", probs, DefaultToxicThreshold)
	require.NoError(t, err)

	m := r.WireMap()
	assert.Len(t, m, EndpointCount)
	assert.Equal(t, PredictionEntry{Prediction: "Non-Toxic", Confidence: "0.12"}, m["NR-AR"])
	assert.Equal(t, PredictionEntry{Prediction: "Toxic", Confidence: "0.90"}, m["SR-p53"])
}

func TestDescribeToxicity(t *testing.T) {
	r, err := NewToxicityReport("CCO", "m", uniformProbs(0.25), DefaultToxicThreshold)
	require.NoError(t, err)

	lines := strings.Split(DescribeToxicity(r), "\n")
	require.Len(t, lines, EndpointCount)
	assert.Equal(t, "NR-AR: Non-Toxic (confidence: 0.25)", lines[0])
	assert.Equal(t, "SR-p53: Non-Toxic (confidence: 0.25)", lines[11])

	assert.Empty(t, DescribeToxicity(nil))
}

func TestToxicityReport_NilSafe(t *testing.T) {
	var r *ToxicityReport
	assert.Nil(t, r.ToxicEndpoints())
}

//Personal.AI order the ending
