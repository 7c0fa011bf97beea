package router

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/metrics"
	"github.com/mamadbah2/briquette/internal/server/handlers"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP handler adapters mounted by the router.
type Handlers struct {
	Records     *handlers.RecordsHandler
	KPI         *handlers.KPIHandler
	Diagnostics *handlers.DiagnosticsHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger, m))

	r.GET("/", h.Diagnostics.Root)
	r.GET("/test", h.Diagnostics.Test)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	{
		api.GET("/rawmaterials", h.Records.ListRawMaterials)
		api.POST("/rawmaterials", h.Records.CreateRawMaterial)
		api.GET("/inwards", h.Records.ListInwards)
		api.POST("/inwards", h.Records.CreateInward)
		api.GET("/production", h.Records.ListProduction)
		api.POST("/production", h.Records.CreateProduction)
		api.GET("/sales", h.Records.ListSales)
		api.POST("/sales", h.Records.CreateSale)
		api.GET("/expenses", h.Records.ListExpenses)
		api.POST("/expenses", h.Records.CreateExpense)

		api.GET("/kpi/profit", h.KPI.Profit)
		api.GET("/kpi/snapshots", h.KPI.ListSnapshots)
		api.POST("/kpi/snapshots", h.KPI.RecordSnapshot)
	}

	logger.Info("router initialized")

	return r
}

// corsMiddleware accepts any origin, method and header with credentials.
// Preflights get the requested headers added to the allow list, so any header
// the browser asks for is granted.
func corsMiddleware() gin.HandlerFunc {
	base := corsConfig()
	standard := cors.New(base)

	return func(c *gin.Context) {
		requested := requestedHeaders(c.GetHeader("Access-Control-Request-Headers"))
		if c.Request.Method != http.MethodOptions || len(requested) == 0 {
			standard(c)
			return
		}

		cfg := base
		cfg.AllowHeaders = append(slices.Clone(base.AllowHeaders), requested...)
		cors.New(cfg)(c)
	}
}

func requestedHeaders(value string) []string {
	var out []string
	for _, h := range strings.Split(value, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// corsConfig is the static part of the CORS policy. The request origin is
// echoed back because a literal "*" is rejected by browsers on credentialed
// requests.
func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOriginFunc = func(string) bool { return true }
	cfg.AllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodHead, http.MethodOptions,
	}
	cfg.AllowHeaders = []string{
		"Origin", "Content-Type", "Content-Length", "Accept", "Authorization",
		"X-Requested-With", requestIDHeader,
	}
	cfg.ExposeHeaders = []string{"Content-Length", requestIDHeader}
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), elapsed.Seconds())

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", elapsed),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")))
	}
}
