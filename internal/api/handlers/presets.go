package handlers

import (
	"errors"
	"net/http"
	"os"

	"herss/internal/api/models"
	"herss/internal/presets"

	"github.com/gin-gonic/gin"
)

// PresetHandler serves the bundled topology preset catalogue.
type PresetHandler struct{}

// NewPresetHandler creates a new preset handler.
func NewPresetHandler() *PresetHandler {
	return &PresetHandler{}
}

// ListPresets handles GET /api/v1/presets.
func (h *PresetHandler) ListPresets(c *gin.Context) {
	lib, err := presets.Load(presets.DefaultPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusOK, gin.H{"presets": []models.PresetInfo{}})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "PRESETS_LOAD_ERROR", Message: err.Error()},
		})
		return
	}

	out := make([]models.PresetInfo, 0, len(lib.Presets))
	for _, p := range lib.Presets {
		out = append(out, models.PresetInfo{
			Name:         p.Name,
			Description:  p.Description,
			TopologyFile: p.TopologyFile,
			DTSeconds:    p.DTSeconds,
		})
	}
	c.JSON(http.StatusOK, gin.H{"presets": out, "updated_at": lib.UpdatedAt, "count": len(out)})
}
