package models

// Collection names, one per record type: the lower-cased entity name.
const (
	CollectionRawMaterial = "rawmaterial"
	CollectionInward      = "inward"
	CollectionProduction  = "production"
	CollectionSale        = "sale"
	CollectionExpense     = "expense"
)

// DefaultProduct is stored when a production run omits its product. It must
// match the schema default on Production.Product.
const DefaultProduct = "briquette"

// Document is a record as read back from the store: field names to raw values.
type Document = map[string]any

// RawMaterial defines the standard cost of a material type.
type RawMaterial struct {
	Name        string   `json:"name" bson:"name" schema:"required"`
	Unit        string   `json:"unit" bson:"unit" schema:"required"`
	CostPerUnit *float64 `json:"cost_per_unit" bson:"cost_per_unit" validate:"required,gte=0"`
}

// Inward records a receipt of raw material. UnitCost is the actual cost paid
// for this batch and may differ from the material's standard cost.
type Inward struct {
	Date         *Date    `json:"date" bson:"date" validate:"required"`
	MaterialName string   `json:"material_name" bson:"material_name" schema:"required"`
	Quantity     *float64 `json:"quantity" bson:"quantity" validate:"required,gte=0"`
	UnitCost     *float64 `json:"unit_cost" bson:"unit_cost" validate:"required,gte=0"`
	Supplier     *string  `json:"supplier" bson:"supplier"`
	Notes        *string  `json:"notes" bson:"notes"`
}

// Production records the output of a production run.
type Production struct {
	Date             *Date    `json:"date" bson:"date" validate:"required"`
	Product          string   `json:"product" bson:"product" schema:"default=briquette"`
	QuantityProduced *float64 `json:"quantity_produced" bson:"quantity_produced" validate:"required,gte=0"`
	Notes            *string  `json:"notes" bson:"notes"`
}

// Sale records revenue.
type Sale struct {
	Date         *Date    `json:"date" bson:"date" validate:"required"`
	Customer     *string  `json:"customer" bson:"customer"`
	QuantitySold *float64 `json:"quantity_sold" bson:"quantity_sold" validate:"required,gte=0"`
	UnitPrice    *float64 `json:"unit_price" bson:"unit_price" validate:"required,gte=0"`
	Notes        *string  `json:"notes" bson:"notes"`
}

// Expense records a cost that is not tied to raw materials.
type Expense struct {
	Date     *Date    `json:"date" bson:"date" validate:"required"`
	Category string   `json:"category" bson:"category" schema:"required"`
	Amount   *float64 `json:"amount" bson:"amount" validate:"required,gte=0"`
	Notes    *string  `json:"notes" bson:"notes"`
}
