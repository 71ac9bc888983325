package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appMol "github.com/turtacn/ToxInsight/internal/application/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

// MoleculeHandler serves /convert, /analyze and /chart.
type MoleculeHandler struct {
	svc    appMol.Service
	logger logging.Logger
}

// NewMoleculeHandler creates a MoleculeHandler.
func NewMoleculeHandler(svc appMol.Service, logger logging.Logger) *MoleculeHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MoleculeHandler{svc: svc, logger: logger.Named("handler")}
}

// RegisterRoutes mounts the molecule endpoints on r.
func (h *MoleculeHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/convert", h.Convert)
	r.POST("/analyze", h.Analyze)
	r.POST("/chart", h.Chart)
}

// Convert handles POST /convert.
func (h *MoleculeHandler) Convert(c *gin.Context) {
	var req dto.ConvertRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, http.StatusRequestEntityTooLarge, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	res, err := h.svc.Convert(c.Request.Context(), req.SMILES)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	writeJSON(c, http.StatusOK, res.Response())
}

// Analyze handles POST /analyze. It always answers 200; failures are
// reported inside the body.
func (h *MoleculeHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.WithContext(c.Request.Context()).WithError(err).Warn("analyze body rejected")
	}
	resp := h.svc.Analyze(c.Request.Context(), &appMol.AnalyzeInput{SMILES: req.SMILES, Prompt: req.Prompt})
	writeJSON(c, http.StatusOK, resp)
}

// Chart handles POST /chart.
func (h *MoleculeHandler) Chart(c *gin.Context) {
	var req dto.ChartRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, http.StatusRequestEntityTooLarge, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	resp, err := h.svc.Chart(c.Request.Context(), req.SMILES)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}

//Personal.AI order the ending
