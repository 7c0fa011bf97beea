package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/repository/mongodb"
)

const (
	rootMessage        = "Briquette Manufacturing Backend Running"
	diagnosticsTimeout = 5 * time.Second
	errorMessageLimit  = 50
)

// StatusReporter exposes store connectivity details.
type StatusReporter interface {
	Status(ctx context.Context) mongodb.Status
}

// DiagnosticsResponse is the body of GET /test.
type DiagnosticsResponse struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      *string  `json:"database_url"`
	DatabaseName     *string  `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// DiagnosticsHandler serves the root banner and the store diagnostics report.
type DiagnosticsHandler struct {
	store  StatusReporter
	logger *zap.Logger
}

// NewDiagnosticsHandler constructs the HTTP handler adapter.
func NewDiagnosticsHandler(store StatusReporter, logger *zap.Logger) *DiagnosticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosticsHandler{store: store, logger: logger}
}

// Root answers with a static banner.
func (h *DiagnosticsHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": rootMessage})
}

// Test reports backend and store status. It always answers 200.
func (h *DiagnosticsHandler) Test(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), diagnosticsTimeout)
	defer cancel()

	c.JSON(http.StatusOK, h.diagnose(ctx))
}

func (h *DiagnosticsHandler) diagnose(ctx context.Context) (resp DiagnosticsResponse) {
	resp = DiagnosticsResponse{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("diagnostics panicked", zap.Any("panic", r))
			resp.Database = "❌ Error: " + truncate(fmt.Sprint(r), errorMessageLimit)
		}
	}()

	var status mongodb.Status
	if h.store != nil {
		status = h.store.Status(ctx)
	}
	if !status.Available {
		resp.Database = "⚠️  Available but not initialized"
		return resp
	}

	urlState := "❌ Not Set"
	if status.URLConfigured {
		urlState = "✅ Set"
	}
	name := status.DatabaseName
	if name == "" {
		name = "❌ Unknown"
	}

	resp.Database = "✅ Available"
	resp.DatabaseURL = &urlState
	resp.DatabaseName = &name
	resp.ConnectionStatus = "Connected"

	if status.CollectionsErr != nil {
		resp.Database = "⚠️  Connected but Error: " + truncate(status.CollectionsErr.Error(), errorMessageLimit)
		return resp
	}

	if status.Collections != nil {
		resp.Collections = status.Collections
	}
	resp.Database = "✅ Connected & Working"
	return resp
}

// truncate keeps at most n characters of s without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
