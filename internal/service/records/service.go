package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/domain/models"
	"github.com/mamadbah2/briquette/internal/metrics"
	"github.com/mamadbah2/briquette/internal/repository/mongodb"
)

// Service persists validated records and lists them in transport form.
type Service struct {
	repo    mongodb.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService wires a new records service instance.
func NewService(repository mongodb.Repository, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, metrics: m, logger: logger}
}

// Create stores record in collection and returns its identifier.
func (s *Service) Create(ctx context.Context, collection string, record any) (string, error) {
	id, err := s.repo.Create(ctx, collection, record)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}

	s.metrics.RecordCreated(collection)
	s.logger.Debug("record created", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

// List returns up to limit serialized documents of collection.
func (s *Service) List(ctx context.Context, collection string, limit int64) ([]models.Document, error) {
	docs, err := s.repo.List(ctx, collection, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return mongodb.SerializeAll(docs), nil
}
