package main

import (
	"fmt"
	"log"
	"os"

	"herss/internal/api/handlers"
	"herss/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	simulationHandler := handlers.NewSimulationHandler()
	diagnoseHandler := handlers.NewDiagnoseHandler()
	presetHandler := handlers.NewPresetHandler()
	controlHandler := handlers.NewControlHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulationHandler.RunSimulation)
		api.POST("/simulations", simulationHandler.RunSimulation)
		api.GET("/simulations/:id", simulationHandler.GetSimulation)
		api.POST("/simulations/compare", simulationHandler.CompareSimulations)
		api.POST("/diagnose", diagnoseHandler.Diagnose)
		api.GET("/presets", presetHandler.ListPresets)
		api.POST("/control/suggest-qmin", controlHandler.SuggestQmin)
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	if _, err := os.Stat(staticDir); err == nil {
		router.Static("/assets", staticDir+"/assets")
		router.StaticFile("/favicon.ico", staticDir+"/favicon.ico")
		router.NoRoute(func(c *gin.Context) {
			path := c.Request.URL.Path
			if len(path) >= 4 && path[:4] == "/api" {
				c.JSON(404, gin.H{"error": "Not found"})
			} else {
				c.File(staticDir + "/index.html")
			}
		})
		log.Printf("Serving static files from %s", staticDir)
	} else {
		log.Printf("Static directory %s not found, skipping static file serving", staticDir)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
