package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = JSONErrorHandler(h.log())

	e.Use(CountRequests)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication; health and metrics stay open for scrapers
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health" || c.Path() == "/metrics"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/v1", SetJSONContentType)
	v1.GET("/health", h.Health)

	rps, burst := cfg.RateRPS, cfg.RateBurst
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}

	// Resolution reads the chain, so it is rate limited per client
	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 2 * time.Minute,
	}))
	accounts := v1.Group("/accounts")
	accounts.GET("/derive", h.Derive)
	accounts.POST("/resolve", h.Resolve, limiter)
	accounts.POST("/resolve-batch", h.ResolveBatch, limiter)

	// Resolver profiles CRUD endpoints
	profileGroup := v1.Group("/profiles")
	profileGroup.GET("", h.ProfilesList)
	profileGroup.POST("", h.ProfilesUpsert)
	profileGroup.GET("/:name", h.ProfilesGet)
	profileGroup.PUT("/:name", h.ProfilesUpdate)
	profileGroup.DELETE("/:name", h.ProfilesDelete)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

// CountRequests records every response by route template and status
func CountRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
			status = he.Code
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		return err
	}
}
