package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/domain/schema"
	"github.com/mamadbah2/briquette/internal/repository/mongodb"
)

const limitParam = "limit"

// respondError maps domain errors onto HTTP responses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var validationErr *schema.ValidationError
	var writeErr *mongodb.StoreWriteError

	switch {
	case errors.As(err, &validationErr):
		logger.Debug("rejected invalid input", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": validationErr.Fields})
	case errors.Is(err, mongodb.ErrStoreUnavailable):
		logger.Warn("document store unavailable", zap.String("path", c.FullPath()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store unavailable"})
	case errors.As(err, &writeErr):
		logger.Error("failed writing record", zap.String("collection", writeErr.Collection), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store record"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseLimit reads ?limit=N, defaulting to mongodb.DefaultListLimit.
func parseLimit(c *gin.Context) (int64, error) {
	raw, ok := c.GetQuery(limitParam)
	if !ok || raw == "" {
		return mongodb.DefaultListLimit, nil
	}

	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 1 {
		return 0, &schema.ValidationError{
			Entity: "query",
			Fields: []schema.FieldError{{Field: limitParam, Message: "must be an integer greater than or equal to 1"}},
		}
	}
	return limit, nil
}
