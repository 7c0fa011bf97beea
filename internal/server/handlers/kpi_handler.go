package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/domain/models"
)

// KPIService describes the KPI operations the HTTP layer performs.
type KPIService interface {
	Profit(ctx context.Context) (models.ProfitSummary, error)
	RecordSnapshot(ctx context.Context) (string, models.ProfitSnapshot, error)
	ListSnapshots(ctx context.Context, limit int64) ([]models.Document, error)
}

// KPIHandler serves derived financial figures.
type KPIHandler struct {
	svc    KPIService
	logger *zap.Logger
}

// NewKPIHandler constructs the HTTP handler adapter.
func NewKPIHandler(svc KPIService, logger *zap.Logger) *KPIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KPIHandler{svc: svc, logger: logger}
}

// Profit returns total sales, total expenses and their difference.
func (h *KPIHandler) Profit(c *gin.Context) {
	summary, err := h.svc.Profit(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListSnapshots returns stored KPI snapshots.
func (h *KPIHandler) ListSnapshots(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	docs, err := h.svc.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// RecordSnapshot captures the current profit figures on demand.
func (h *KPIHandler) RecordSnapshot(c *gin.Context) {
	id, _, err := h.svc.RecordSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
