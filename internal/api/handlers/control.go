package handlers

import (
	"net/http"

	"herss/internal/api/models"
	"herss/internal/control"

	"github.com/gin-gonic/gin"
)

// ControlHandler exposes advisory release planning, kept entirely outside
// the core simulator: it never loads or mutates a RiverSystem.
type ControlHandler struct{}

// NewControlHandler creates a new control handler.
func NewControlHandler() *ControlHandler {
	return &ControlHandler{}
}

// SuggestQmin handles POST /api/v1/control/suggest-qmin.
func (h *ControlHandler) SuggestQmin(c *gin.Context) {
	var req models.SuggestQminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	suggestions, err := control.SuggestQminRelease(
		req.InflowM3s, req.PriceEuroPerMWh, req.MinDischargeM3s,
		req.StartStorageMm3, req.MinStorageMm3, req.MaxStorageMm3,
		req.DTSeconds, control.Params{StorageSteps: 50, ActionSteps: 20},
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SUGGEST_ERROR", Message: err.Error()},
		})
		return
	}

	resp := models.SuggestQminResponse{ActionM3s: make([]float64, len(suggestions))}
	for i, s := range suggestions {
		resp.ActionM3s[i] = s.Action
	}
	c.JSON(http.StatusOK, resp)
}
