// Package router assembles the gin engine from the application modules.
package router

import (
	"context"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	apphttp "nowas_backend/internal/http"
	"nowas_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 3 * time.Second

// New builds the engine: shared middleware, static landing page, health
// check, then every module's routes.
func New(app *apphttp.App) *gin.Engine {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	if origins := app.Config.GetCORSOrigins(); len(origins) > 0 {
		engine.Use(cors.New(corsConfig(origins)))
	}

	api := engine.Group("/api")
	api.GET("/health", healthHandler(app.Health))

	var intakeLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if app.IntakeLimiter != nil {
		intakeLimit = app.IntakeLimiter.Middleware()
	}

	ctx := &apphttp.RouterContext{
		Engine:          engine,
		API:             api,
		IntakeRateLimit: intakeLimit,
	}
	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module registered", "module", module.Name())
	}

	registerStatic(engine, app.Config.GetStaticDir())

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", httpkit.CSRFHeader},
		ExposeHeaders: []string{"Content-Length", httpkit.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func healthHandler(health apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := health.Ping(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// registerStatic serves the landing page at / and any other file in dir for
// unmatched GET requests. Static routes go through NoRoute so they never
// collide with module routes.
func registerStatic(engine *gin.Engine, dir string) {
	notFound := func(c *gin.Context) {
		httpkit.Error(c, http.StatusNotFound, "No encontrado")
	}
	if dir == "" {
		engine.NoRoute(notFound)
		return
	}

	index := filepath.Join(dir, "index.html")
	engine.GET("/", func(c *gin.Context) {
		c.File(index)
	})

	files := http.FileServer(http.Dir(dir))
	engine.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			notFound(c)
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
}
