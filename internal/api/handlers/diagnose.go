package handlers

import (
	"net/http"

	"herss/internal/api/models"
	"herss/internal/ingest"
	"herss/internal/runconfig"

	"github.com/gin-gonic/gin"
)

// DiagnoseHandler handles preflight checks on a run configuration.
type DiagnoseHandler struct{}

// NewDiagnoseHandler creates a new diagnose handler.
func NewDiagnoseHandler() *DiagnoseHandler {
	return &DiagnoseHandler{}
}

// Diagnose handles POST /api/v1/diagnose: parses every input file named by
// a run configuration and reports node/timestep counts without running
// the simulation.
func (h *DiagnoseHandler) Diagnose(c *gin.Context) {
	var req models.DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	cfg, err := runconfig.Load(req.ConfigPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}

	report, err := ingest.Diagnose(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "DIAGNOSE_ERROR", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, models.DiagnoseResponse{
		Stps:            report.Stps,
		NrReservoirs:    report.NrReservoirs,
		NrChannels:      report.NrChannels,
		NrPowerstations: report.NrPowerstations,
		InflowNodeIDs:   report.InflowNodeIDs,
		ActionNodeIDs:   report.ActionNodeIDs,
	})
}
