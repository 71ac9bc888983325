package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// EthanolMolBlock is a V2000 block for CCO without hydrogens.
const EthanolMolBlock = `
     RDKit          3D

  3  2  0  0  0  0  0  0  0  0999 V2000
   -0.8883    0.1670   -0.0273 C   0  0  0  0  0  0  0  0  0  0  0  0
    0.4658   -0.5116   -0.0368 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.4311    0.3978    0.4430 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  1  0
M  END
`

// PNGHeader is the signature the fake toolkit returns for PNG depictions.
var PNGHeader = []byte("\x89PNG\r\n\x1a\n")

// ToolkitServer fakes the RDKit sidecar. SMILES listed in Invalid answer 400.
type ToolkitServer struct {
	*httptest.Server
	Invalid map[string]bool
	Calls   atomic.Int64
}

// NewToolkitServer starts a fake toolkit closed at test cleanup.
func NewToolkitServer(t *testing.T, invalid ...string) *ToolkitServer {
	t.Helper()
	ts := &ToolkitServer{Invalid: map[string]bool{}}
	for _, s := range invalid {
		ts.Invalid[s] = true
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/molecules/", ts.handle)
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func (ts *ToolkitServer) handle(w http.ResponseWriter, r *http.Request) {
	ts.Calls.Add(1)
	var req struct {
		SMILES string `json:"smiles"`
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || ts.Invalid[req.SMILES] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid SMILES string"})
		return
	}
	switch strings.TrimPrefix(r.URL.Path, "/v1/molecules/") {
	case "validate":
		writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true, "canonical_smiles": req.SMILES})
	case "conformer":
		writeJSON(w, http.StatusOK, map[string]string{"mol_block": EthanolMolBlock})
	case "descriptors":
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"canonical_smiles": req.SMILES,
			"exact_mol_wt":     46.041865,
			"logp":             -0.0014,
			"h_bond_donors":    1,
			"h_bond_acceptors": 1,
			"tpsa":             20.23,
		})
	case "depict":
		data := append([]byte{}, PNGHeader...)
		if req.Format == "svg" {
			data = []byte("<svg xmlns='http://www.w3.org/2000/svg'/>")
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"format": req.Format, "data": data})
	default:
		http.NotFound(w, r)
	}
}

// ModelServer fakes a TensorFlow-Serving style REST endpoint for one model.
// Every task reports Probability as its toxic-class score.
type ModelServer struct {
	*httptest.Server
	Probability float64
	Calls       atomic.Int64
}

// NewModelServer starts a fake model server for model closed at test cleanup.
func NewModelServer(t *testing.T, model string, probability float64) *ModelServer {
	t.Helper()
	ms := &ModelServer{Probability: probability}
	base := "/v1/models/" + model
	mux := http.NewServeMux()
	mux.HandleFunc(base, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model_version_status":[{"version":"1","state":"AVAILABLE"}]}`))
	})
	mux.HandleFunc(base+":predict", func(w http.ResponseWriter, r *http.Request) {
		ms.Calls.Add(1)
		tasks := make([][]float64, 12)
		for i := range tasks {
			tasks[i] = []float64{1 - ms.Probability, ms.Probability}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": [][][]float64{tasks}})
	})
	ms.Server = httptest.NewServer(mux)
	t.Cleanup(ms.Close)
	return ms
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

//Personal.AI order the ending
