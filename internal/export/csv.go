// Package export writes CSV files for search results, stock listings
// and admin reports, and sweeps the temp directory they live in.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/pkg/uid"
)

// Writer produces CSV files under a temp directory. File names are
// random, so concurrent exports never collide.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the directory exports are written to.
func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) write(prefix string, header []string, rows [][]string) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", prefix, uid.New()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write rows: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush export: %w", err)
	}
	return path, nil
}

// DealerResults writes full search results, including wholesale prices
// and dealer contacts.
func (w *Writer) DealerResults(rows []model.StockRow) (string, error) {
	header := []string{
		"sku", "tyre_size", "tyre_pattern", "brand", "country",
		"qty_available", "retail_price", "wholesale_price", "warehouse",
		"company_name", "phone", "email", "created_at",
	}
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.SKU, r.TyreSize, r.TyrePattern, r.Brand, r.Country,
			fmt.Sprintf("%d", r.QtyAvailable),
			r.RetailPrice.String(), r.WholesalePrice.String(), r.Warehouse,
			r.CompanyName, r.Phone, r.Email,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return w.write("search", header, records)
}

// BuyerResults writes the buyer projection of search results. The
// column set matches the projection: no wholesale price, no contacts.
func (w *Writer) BuyerResults(rows []model.BuyerStockRow) (string, error) {
	header := []string{
		"sku", "tyre_size", "tyre_pattern", "brand", "country",
		"qty_available", "retail_price", "warehouse", "company_name",
	}
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.SKU, r.TyreSize, r.TyrePattern, r.Brand, r.Country,
			fmt.Sprintf("%d", r.QtyAvailable),
			r.RetailPrice.String(), r.Warehouse, r.CompanyName,
		}
	}
	return w.write("search", header, records)
}

// OwnStock writes a dealer's own stock listing.
func (w *Writer) OwnStock(items []model.StockItem) (string, error) {
	header := []string{
		"sku", "tyre_size", "tyre_pattern", "brand", "country",
		"qty_available", "retail_price", "wholesale_price", "warehouse", "created_at",
	}
	records := make([][]string, len(items))
	for i, it := range items {
		records[i] = []string{
			it.SKU, it.TyreSize, it.TyrePattern, it.Brand, it.Country,
			fmt.Sprintf("%d", it.QtyAvailable),
			it.RetailPrice.String(), it.WholesalePrice.String(), it.Warehouse,
			it.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return w.write("mystock", header, records)
}

// Accounts writes the full account list for admin export.
func (w *Writer) Accounts(accounts []model.Account) (string, error) {
	header := []string{
		"id", "chat_id", "name", "role", "company_name",
		"tax_id", "phone", "email", "created_at",
	}
	records := make([][]string, len(accounts))
	for i, a := range accounts {
		records[i] = []string{
			fmt.Sprintf("%d", a.ID), fmt.Sprintf("%d", a.ChatID),
			a.Name, string(a.Role), a.CompanyName,
			a.TaxID, a.Phone, a.Email,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return w.write("users", header, records)
}

// RawRows writes the result set of an ad-hoc query.
func (w *Writer) RawRows(columns []string, rows [][]string) (string, error) {
	return w.write("query", columns, rows)
}
