package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/domain/models"
	"github.com/mamadbah2/briquette/internal/domain/schema"
)

// RecordService describes the record operations the HTTP layer performs.
type RecordService interface {
	Create(ctx context.Context, collection string, record any) (string, error)
	List(ctx context.Context, collection string, limit int64) ([]models.Document, error)
}

// RecordsHandler exposes create and list endpoints for every record type.
type RecordsHandler struct {
	svc    RecordService
	logger *zap.Logger
}

// NewRecordsHandler constructs the HTTP handler adapter.
func NewRecordsHandler(svc RecordService, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{svc: svc, logger: logger}
}

// CreateRawMaterial handles POST /api/rawmaterials.
func (h *RecordsHandler) CreateRawMaterial(c *gin.Context) {
	create(h, c, models.CollectionRawMaterial, schema.ValidateRawMaterial)
}

// ListRawMaterials handles GET /api/rawmaterials.
func (h *RecordsHandler) ListRawMaterials(c *gin.Context) {
	h.list(c, models.CollectionRawMaterial)
}

// CreateInward handles POST /api/inwards.
func (h *RecordsHandler) CreateInward(c *gin.Context) {
	create(h, c, models.CollectionInward, schema.ValidateInward)
}

// ListInwards handles GET /api/inwards.
func (h *RecordsHandler) ListInwards(c *gin.Context) {
	h.list(c, models.CollectionInward)
}

// CreateProduction handles POST /api/production.
func (h *RecordsHandler) CreateProduction(c *gin.Context) {
	create(h, c, models.CollectionProduction, schema.ValidateProduction)
}

// ListProduction handles GET /api/production.
func (h *RecordsHandler) ListProduction(c *gin.Context) {
	h.list(c, models.CollectionProduction)
}

// CreateSale handles POST /api/sales.
func (h *RecordsHandler) CreateSale(c *gin.Context) {
	create(h, c, models.CollectionSale, schema.ValidateSale)
}

// ListSales handles GET /api/sales.
func (h *RecordsHandler) ListSales(c *gin.Context) {
	h.list(c, models.CollectionSale)
}

// CreateExpense handles POST /api/expenses.
func (h *RecordsHandler) CreateExpense(c *gin.Context) {
	create(h, c, models.CollectionExpense, schema.ValidateExpense)
}

// ListExpenses handles GET /api/expenses.
func (h *RecordsHandler) ListExpenses(c *gin.Context) {
	h.list(c, models.CollectionExpense)
}

// create validates the request body before anything reaches the store.
func create[T any](h *RecordsHandler, c *gin.Context, collection string, validate func([]byte) (T, error)) {
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("unreadable request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := validate(body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	id, err := h.svc.Create(c.Request.Context(), collection, record)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *RecordsHandler) list(c *gin.Context, collection string) {
	limit, err := parseLimit(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	docs, err := h.svc.List(c.Request.Context(), collection, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, docs)
}
