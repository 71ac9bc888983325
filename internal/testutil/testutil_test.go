package testutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/testutil"
)

func TestRecordingLogger(t *testing.T) {
	logger := testutil.NewRecordingLogger()

	ctx := logging.WithRequestID(context.Background(), "req-7")
	logger.Named("molecule").WithContext(ctx).With(logging.String("smiles", "CCO")).Warn("slow")
	logger.Info("plain")

	m, ok := logger.Find("warn", "slow")
	require.True(t, ok)
	assert.Equal(t, "molecule", m.Name)
	assert.Equal(t, "req-7", m.Field(logging.FieldRequestID))
	assert.Equal(t, "CCO", m.Field("smiles"))
	assert.True(t, logger.HasMessage("info", "plain"))
	assert.Len(t, logger.Messages(), 2)

	logger.Clear()
	assert.Empty(t, logger.Messages())
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestToolkitServer(t *testing.T) {
	ts := testutil.NewToolkitServer(t, "bad")

	resp := postJSON(t, ts.URL+"/v1/molecules/conformer", map[string]string{"smiles": "CCO"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conf struct {
		MolBlock string `json:"mol_block"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conf))
	assert.Equal(t, testutil.EthanolMolBlock, conf.MolBlock)

	resp = postJSON(t, ts.URL+"/v1/molecules/descriptors", map[string]string{"smiles": "bad"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int64(2), ts.Calls.Load())
}

func TestModelServer(t *testing.T) {
	ms := testutil.NewModelServer(t, "tox21", 0.7)

	resp := postJSON(t, ms.URL+"/v1/models/tox21:predict", map[string]interface{}{"instances": []interface{}{}})
	var out struct {
		Predictions [][][]float64 `json:"predictions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Predictions[0], 12)
	assert.InDelta(t, 0.7, out.Predictions[0][3][1], 1e-9)
}

//Personal.AI order the ending
