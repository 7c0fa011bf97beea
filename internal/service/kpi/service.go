package kpi

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/domain/models"
	"github.com/mamadbah2/briquette/internal/repository/mongodb"
)

// Service computes profit figures from the sale and expense collections.
type Service struct {
	repo   mongodb.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new KPI service instance.
func NewService(repository mongodb.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

// Profit aggregates every sale and expense into a ProfitSummary.
func (s *Service) Profit(ctx context.Context) (models.ProfitSummary, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return models.ProfitSummary{}, err
	}
	return models.ProfitSummary{
		TotalSales:    snapshot.TotalSales,
		TotalExpenses: snapshot.TotalExpenses,
		Profit:        snapshot.Profit,
	}, nil
}

// Snapshot computes the profit figures together with the record counts they cover.
func (s *Service) Snapshot(ctx context.Context) (models.ProfitSnapshot, error) {
	// Limit 0: the KPI must see complete collections.
	sales, err := s.repo.List(ctx, models.CollectionSale, nil, 0)
	if err != nil {
		return models.ProfitSnapshot{}, fmt.Errorf("load sales: %w", err)
	}

	expenses, err := s.repo.List(ctx, models.CollectionExpense, nil, 0)
	if err != nil {
		return models.ProfitSnapshot{}, fmt.Errorf("load expenses: %w", err)
	}

	summary := ComputeProfit(sales, expenses)
	now := s.now().UTC()

	return models.ProfitSnapshot{
		Date:          models.NewDate(now),
		TotalSales:    summary.TotalSales,
		TotalExpenses: summary.TotalExpenses,
		Profit:        summary.Profit,
		SalesCount:    len(sales),
		ExpenseCount:  len(expenses),
		CreatedAt:     now,
	}, nil
}

// RecordSnapshot computes a snapshot and persists it.
func (s *Service) RecordSnapshot(ctx context.Context) (string, models.ProfitSnapshot, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return "", models.ProfitSnapshot{}, err
	}

	id, err := s.repo.Create(ctx, models.CollectionKPISnapshot, snapshot)
	if err != nil {
		return "", models.ProfitSnapshot{}, fmt.Errorf("save kpi snapshot: %w", err)
	}

	s.logger.Info("kpi snapshot recorded",
		zap.String("id", id),
		zap.Float64("profit", snapshot.Profit),
		zap.Int("sales", snapshot.SalesCount),
		zap.Int("expenses", snapshot.ExpenseCount))
	return id, snapshot, nil
}

// ListSnapshots returns up to limit serialized snapshots.
func (s *Service) ListSnapshots(ctx context.Context, limit int64) ([]models.Document, error) {
	docs, err := s.repo.List(ctx, models.CollectionKPISnapshot, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list kpi snapshots: %w", err)
	}
	return mongodb.SerializeAll(docs), nil
}

// ComputeProfit sums quantity_sold*unit_price over sales and amount over
// expenses. Missing, null or non-numeric values count as zero.
func ComputeProfit(sales, expenses []models.Document) models.ProfitSummary {
	totalSales := decimal.Zero
	for _, sale := range sales {
		qty := toDecimal(sale["quantity_sold"])
		price := toDecimal(sale["unit_price"])
		totalSales = totalSales.Add(qty.Mul(price))
	}

	totalExpenses := decimal.Zero
	for _, expense := range expenses {
		totalExpenses = totalExpenses.Add(toDecimal(expense["amount"]))
	}

	return models.ProfitSummary{
		TotalSales:    totalSales.InexactFloat64(),
		TotalExpenses: totalExpenses.InexactFloat64(),
		Profit:        totalSales.Sub(totalExpenses).InexactFloat64(),
	}
}

func toDecimal(value any) decimal.Decimal {
	switch v := value.(type) {
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return decimal.Zero
		}
		return fromFloat(f)
	default:
		return decimal.Zero
	}
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
