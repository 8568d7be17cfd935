package handlers

import (
	"net/http"
	"os"
	"time"

	"herss/internal/api/models"
	"herss/internal/ingest"
	"herss/internal/report"
	"herss/internal/runcache"
	"herss/internal/runconfig"
	"herss/internal/waterbalance"

	"github.com/gin-gonic/gin"
)

// resultCache holds completed simulation responses keyed by a hash of their
// run manifest, independent of runcache.Get()'s spot-price cache: repeated
// GET /api/v1/simulations/:id calls and comparison runs over the same
// config shouldn't re-run the kernel within the cache's lifetime.
var resultCache = runcache.New(30 * time.Minute)

// SimulationHandler handles simulation run requests.
type SimulationHandler struct{}

// NewSimulationHandler creates a new simulation handler.
func NewSimulationHandler() *SimulationHandler {
	return &SimulationHandler{}
}

// RunSimulation handles POST /api/v1/simulations: loads a run configuration
// from disk, runs the full horizon, and returns per-node totals and the
// value function. The response is cached by a hash of the config path plus
// its file's modification time, so a repeat request (or a later
// GET /api/v1/simulations/:id) for the same unchanged manifest is served
// from cache instead of re-running the kernel.
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	resp, err := runSimulationCached(req)
	if err != nil {
		c.JSON(err.status, models.ErrorResponse{
			Error: models.ErrorDetail{Code: err.code, Message: err.message},
		})
		return
	}

	c.JSON(http.StatusOK, *resp)
}

// GetSimulation handles GET /api/v1/simulations/:id: returns a previously
// computed simulation response, or 404 if the id is unknown or its cache
// entry has expired.
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	id := c.Param("id")
	v, ok := resultCache.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "no cached simulation with that id, or it has expired"},
		})
		return
	}
	c.JSON(http.StatusOK, v.(models.SimulateResponse))
}

// CompareSimulations handles POST /api/v1/simulations/compare: runs every
// named variation's config independently and reports their value functions
// side by side. A variation that fails to load or simulate is reported with
// its error rather than aborting the whole comparison.
func (h *SimulationHandler) CompareSimulations(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	results := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, v := range req.Variations {
		resp, err := runSimulationCached(models.SimulateRequest{ConfigPath: v.ConfigPath})
		if err != nil {
			results = append(results, models.ComparisonResult{Name: v.Name, Error: err.message})
			continue
		}
		results = append(results, models.ComparisonResult{
			Name: v.Name, ID: resp.ID, ValueFunction: resp.ValueFunction, Stps: resp.Stps,
		})
	}

	c.JSON(http.StatusOK, models.CompareResponse{Results: results})
}

type handlerError struct {
	status  int
	code    string
	message string
}

// runSimulationCached is the shared load-simulate-respond path behind both
// RunSimulation and CompareSimulations, so a comparison's variations and a
// plain run populate and read the same cache.
func runSimulationCached(req models.SimulateRequest) (*models.SimulateResponse, *handlerError) {
	id := cacheKeyForConfig(req.ConfigPath)
	if v, ok := resultCache.Lookup(id); ok && !req.IncludeLedger {
		cached := v.(models.SimulateResponse)
		return &cached, nil
	}

	cfg, err := runconfig.Load(req.ConfigPath)
	if err != nil {
		return nil, &handlerError{http.StatusBadRequest, "INVALID_CONFIG", err.Error()}
	}

	rs, err := ingest.LoadRiverSystem(cfg)
	if err != nil {
		return nil, &handlerError{http.StatusBadRequest, "LOAD_ERROR", err.Error()}
	}

	if err := rs.Simulate(); err != nil {
		return nil, &handlerError{http.StatusInternalServerError, "SIMULATE_ERROR", err.Error()}
	}

	if !req.SkipBalanceCheck {
		if err := waterbalance.PerNode(rs.Nodes, 1e-4); err != nil {
			return nil, &handlerError{http.StatusInternalServerError, "WATER_BALANCE_ERROR", err.Error()}
		}
		if err := waterbalance.Check(rs.Nodes); err != nil {
			return nil, &handlerError{http.StatusInternalServerError, "WATER_BALANCE_ERROR", err.Error()}
		}
	}

	resp := models.SimulateResponse{
		ID:            id,
		Status:        "ok",
		Stps:          rs.Nodes[0].Scenario.Stps,
		ValueFunction: rs.CalcValueFunction(),
	}
	for _, n := range rs.Nodes {
		resp.Nodes = append(resp.Nodes, models.NodeSummary{
			ID:            n.ID,
			Name:          n.Name,
			Kind:          n.Kind.String(),
			StartWaterMm3: n.GetStartWaterMm3(),
			EndWaterMm3:   n.GetEndWaterMm3(),
		})
	}

	if req.IncludeLedger {
		for _, row := range report.BuildLedger(rs.Nodes) {
			resp.Ledger = append(resp.Ledger, models.LedgerRow{
				Timestep: row.Timestep,
				Year:     row.Year,
				Month:    row.Month,
				Day:      row.Day,
				Hour:     row.Hour,
				PowerMWh: row.PowerMWh,
				Income:   row.Income,
				Cost:     row.Cost,
				Profit:   row.Profit,
			})
		}
	}

	resultCache.Store(id, resp)
	return &resp, nil
}

// cacheKeyForConfig hashes a config path together with its file's
// modification time, so an edited-then-rerun manifest gets a fresh cache
// entry instead of silently serving a stale result.
func cacheKeyForConfig(path string) string {
	modTime := ""
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime().String()
	}
	return runcache.Key(path, modTime)
}
