package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem represents one inventory record owned by a dealer account.
// SKU is free text and not required to be unique.
type StockItem struct {
	ID             int64           `json:"id"`
	OwnerID        int64           `json:"owner_id"`
	SKU            string          `json:"sku"`
	TyreSize       string          `json:"tyre_size"`
	TyrePattern    string          `json:"tyre_pattern"`
	Brand          string          `json:"brand"`
	Country        string          `json:"country"`
	QtyAvailable   int             `json:"qty_available"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Warehouse      string          `json:"warehouse_location"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StockRow is a stock item joined with its owner's contact fields.
// This is the full row type; role-based views are built from it by
// field name, never by position.
type StockRow struct {
	SKU            string          `json:"sku"`
	TyreSize       string          `json:"tyre_size"`
	TyrePattern    string          `json:"tyre_pattern"`
	Brand          string          `json:"brand"`
	Country        string          `json:"country"`
	QtyAvailable   int             `json:"qty_available"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Warehouse      string          `json:"warehouse_location"`
	CompanyName    string          `json:"company_name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BuyerStockRow is the reduced projection returned to buyers: no
// wholesale price, no direct contacts.
type BuyerStockRow struct {
	SKU          string          `json:"sku"`
	TyreSize     string          `json:"tyre_size"`
	TyrePattern  string          `json:"tyre_pattern"`
	Brand        string          `json:"brand"`
	Country      string          `json:"country"`
	QtyAvailable int             `json:"qty_available"`
	RetailPrice  decimal.Decimal `json:"retail_price"`
	Warehouse    string          `json:"warehouse_location"`
	CompanyName  string          `json:"company_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BuyerView builds the buyer projection from the full row.
func (r StockRow) BuyerView() BuyerStockRow {
	return BuyerStockRow{
		SKU:          r.SKU,
		TyreSize:     r.TyreSize,
		TyrePattern:  r.TyrePattern,
		Brand:        r.Brand,
		Country:      r.Country,
		QtyAvailable: r.QtyAvailable,
		RetailPrice:  r.RetailPrice,
		Warehouse:    r.Warehouse,
		CompanyName:  r.CompanyName,
		CreatedAt:    r.CreatedAt,
	}
}
