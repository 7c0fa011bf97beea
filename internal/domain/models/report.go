package models

import "time"

// CollectionKPISnapshot holds persisted ProfitSnapshot documents.
const CollectionKPISnapshot = "kpi_snapshot"

// ProfitSummary is the aggregate financial snapshot returned by the profit KPI.
type ProfitSummary struct {
	TotalSales    float64 `json:"total_sales"`
	TotalExpenses float64 `json:"total_expenses"`
	Profit        float64 `json:"profit"`
}

// ProfitSnapshot is a ProfitSummary captured at a point in time.
type ProfitSnapshot struct {
	Date          Date      `bson:"date" json:"date"`
	TotalSales    float64   `bson:"total_sales" json:"total_sales"`
	TotalExpenses float64   `bson:"total_expenses" json:"total_expenses"`
	Profit        float64   `bson:"profit" json:"profit"`
	SalesCount    int       `bson:"sales_count" json:"sales_count"`
	ExpenseCount  int       `bson:"expense_count" json:"expense_count"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
