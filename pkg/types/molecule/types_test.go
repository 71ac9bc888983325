package molecule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRequest_Validate(t *testing.T) {
	r := ConvertRequest{SMILES: "  CCO \n"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "CCO", r.SMILES)

	r = ConvertRequest{SMILES: "   "}
	assert.ErrorIs(t, r.Validate(), ErrMissingSMILES)

	c := ChartRequest{}
	assert.ErrorIs(t, c.Validate(), ErrMissingSMILES)
}

func TestToxicityResult_MarshalPredictions(t *testing.T) {
	res := ToxicityResult{Predictions: map[string]PredictionEntry{
		"NR-AR": {Prediction: "Toxic", Confidence: "0.81"},
	}}
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"NR-AR":{"prediction":"Toxic","confidence":"0.81"}}`, string(data))
	assert.False(t, res.Failed())
}

func TestToxicityResult_MarshalError(t *testing.T) {
	data, err := json.Marshal(ToxicityResult{Error: "Prediction error: boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Error":"Prediction error: boom"}`, string(data))
}

func TestToxicityResult_UnmarshalBothForms(t *testing.T) {
	var res ToxicityResult
	require.NoError(t, json.Unmarshal([]byte(`{"Error":"Prediction error: x"}`), &res))
	assert.True(t, res.Failed())
	assert.Nil(t, res.Predictions)

	require.NoError(t, json.Unmarshal([]byte(`{"SR-p53":{"prediction":"Non-Toxic","confidence":"0.12"}}`), &res))
	assert.False(t, res.Failed())
	assert.Equal(t, "Non-Toxic", res.Predictions["SR-p53"].Prediction)

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &res))
}

func TestAnalyzeResponse_NullFields(t *testing.T) {
	data, err := json.Marshal(AnalyzeResponse{
		Toxicity: ToxicityResult{Error: "Prediction error: invalid"},
		Error:    "Invalid SMILES string",
	})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"properties", "toxicity", "molecule_image", "molecule_image_2d", "gemini_response"} {
		assert.Contains(t, m, k)
	}
	assert.Nil(t, m["properties"])
	assert.Nil(t, m["molecule_image"])
	assert.Equal(t, "", m["gemini_response"])
	assert.Equal(t, "Invalid SMILES string", m["error"])
}

//Personal.AI order the ending
