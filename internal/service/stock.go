package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/OttoOtter-hub/TyreTerra/internal/cache"
	"github.com/OttoOtter-hub/TyreTerra/internal/export"
	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/notify"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
	"github.com/OttoOtter-hub/TyreTerra/internal/validate"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

// importHeader is the required column order for CSV bulk import.
var importHeader = []string{
	"sku", "tyre_size", "tyre_pattern", "brand", "country",
	"qty_available", "retail_price", "wholesale_price", "warehouse",
}

// StockService handles dealer stock operations: adding, listing,
// exporting and deleting items, plus subscriber notification.
type StockService struct {
	stock    repository.StockRepository
	notifier *notify.Notifier
	cache    cache.Cache
	exporter *export.Writer
	logger   *log.Logger

	maxItems  int
	exportTTL time.Duration
}

// NewStockService creates a new stock service.
func NewStockService(
	stock repository.StockRepository,
	notifier *notify.Notifier,
	c cache.Cache,
	exporter *export.Writer,
	maxItems int,
	exportTTL time.Duration,
	logger *log.Logger,
) *StockService {
	return &StockService{
		stock:     stock,
		notifier:  notifier,
		cache:     c,
		exporter:  exporter,
		maxItems:  maxItems,
		exportTTL: exportTTL,
		logger:    logger,
	}
}

func exportCacheKey(chatID int64) string {
	return "mystock:" + strconv.FormatInt(chatID, 10)
}

// AddItem inserts one stock item for the owner and notifies matching
// subscribers. Notification failures never fail the add.
func (s *StockService) AddItem(ctx context.Context, owner *model.Account, item *model.StockItem) error {
	if err := s.checkCapacity(ctx, owner.ID, 1); err != nil {
		return err
	}

	item.OwnerID = owner.ID
	item.CreatedAt = time.Now().UTC()
	id, err := s.stock.CreateStock(ctx, item)
	if err != nil {
		return err
	}
	item.ID = id

	s.invalidateExport(ctx, owner.ChatID)
	s.notifier.StockAdded(ctx, owner, []model.StockItem{*item})

	s.logger.Printf("[StockService] Added item %d (sku %s) for account %d", item.ID, item.SKU, owner.ID)
	return nil
}

// ImportCSV bulk-loads stock from an attached CSV file. The whole file
// is validated first and inserted in one transaction; a single bad row
// rejects the import.
func (s *StockService) ImportCSV(ctx context.Context, owner *model.Account, data []byte) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, apperr.Validation("The file is empty or not a valid CSV.")
	}
	if !matchesImportHeader(header) {
		return 0, apperr.Validation("Wrong CSV header. Expected: " + strings.Join(importHeader, ","))
	}

	var items []model.StockItem
	now := time.Now().UTC()
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, apperr.Validation(fmt.Sprintf("Line %d: not a valid CSV row.", line))
		}

		item, err := parseImportRow(record)
		if err != nil {
			return 0, apperr.Validation(fmt.Sprintf("Line %d: %s", line, rowError(err)))
		}
		item.OwnerID = owner.ID
		item.CreatedAt = now
		items = append(items, item)
	}

	if len(items) == 0 {
		return 0, apperr.Validation("The file contains no stock rows.")
	}
	if err := s.checkCapacity(ctx, owner.ID, len(items)); err != nil {
		return 0, err
	}

	if err := s.stock.CreateStockBatch(ctx, items); err != nil {
		return 0, err
	}

	s.invalidateExport(ctx, owner.ChatID)
	s.notifier.StockAdded(ctx, owner, items)

	s.logger.Printf("[StockService] Imported %d items for account %d", len(items), owner.ID)
	return len(items), nil
}

// ExportOwnStock writes the owner's stock to a CSV file and returns its
// path. Repeated exports within the TTL reuse the previous file.
func (s *StockService) ExportOwnStock(ctx context.Context, owner *model.Account) (string, error) {
	key := exportCacheKey(owner.ChatID)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		path := string(cached)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	items, err := s.stock.ListByOwner(ctx, owner.ID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", apperr.NotFound("You have no stock yet. Use /addstock to add items.")
	}

	path, err := s.exporter.OwnStock(items)
	if err != nil {
		return "", fmt.Errorf("export own stock: %w", err)
	}

	if err := s.cache.Set(ctx, key, []byte(path), s.exportTTL); err != nil {
		s.logger.Printf("[StockService] Failed to cache export path: %v", err)
	}
	return path, nil
}

// CountOwn returns the number of items the owner holds.
func (s *StockService) CountOwn(ctx context.Context, owner *model.Account) (int64, error) {
	return s.stock.CountByOwner(ctx, owner.ID)
}

// FindOwnBySKU finds the owner's item with the given SKU.
// Returns (nil, nil) when absent.
func (s *StockService) FindOwnBySKU(ctx context.Context, owner *model.Account, sku string) (*model.StockItem, error) {
	return s.stock.FindBySKU(ctx, owner.ID, sku)
}

// DeleteItem removes the owner's items with the given SKU.
func (s *StockService) DeleteItem(ctx context.Context, owner *model.Account, sku string) (int64, error) {
	removed, err := s.stock.DeleteBySKU(ctx, owner.ID, sku)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, apperr.NotFound(fmt.Sprintf("No item with SKU %s in your stock.", sku))
	}

	s.invalidateExport(ctx, owner.ChatID)
	s.logger.Printf("[StockService] Deleted %d items (sku %s) for account %d", removed, sku, owner.ID)
	return removed, nil
}

// DeleteAll removes every item of the owner.
func (s *StockService) DeleteAll(ctx context.Context, owner *model.Account) (int64, error) {
	removed, err := s.stock.DeleteByOwner(ctx, owner.ID)
	if err != nil {
		return 0, err
	}

	s.invalidateExport(ctx, owner.ChatID)
	s.logger.Printf("[StockService] Deleted all %d items for account %d", removed, owner.ID)
	return removed, nil
}

func (s *StockService) checkCapacity(ctx context.Context, ownerID int64, adding int) error {
	count, err := s.stock.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if count+int64(adding) > int64(s.maxItems) {
		return apperr.Validation(fmt.Sprintf("⚠️ Stock limit reached (%d items max).", s.maxItems))
	}
	return nil
}

func (s *StockService) invalidateExport(ctx context.Context, chatID int64) {
	if err := s.cache.Delete(ctx, exportCacheKey(chatID)); err != nil {
		s.logger.Printf("[StockService] Failed to invalidate export cache: %v", err)
	}
}

func matchesImportHeader(header []string) bool {
	if len(header) != len(importHeader) {
		return false
	}
	for i, col := range header {
		if strings.ToLower(strings.TrimSpace(col)) != importHeader[i] {
			return false
		}
	}
	return true
}

func parseImportRow(record []string) (model.StockItem, error) {
	if len(record) != len(importHeader) {
		return model.StockItem{}, apperr.Validation(fmt.Sprintf("expected %d columns, got %d", len(importHeader), len(record)))
	}

	sku, err := validate.FreeText(record[0])
	if err != nil {
		return model.StockItem{}, err
	}
	size, err := validate.FreeText(record[1])
	if err != nil {
		return model.StockItem{}, err
	}
	qty, err := validate.Quantity(record[5])
	if err != nil {
		return model.StockItem{}, err
	}
	retail, err := validate.Price(record[6])
	if err != nil {
		return model.StockItem{}, err
	}
	wholesale, err := validate.Price(record[7])
	if err != nil {
		return model.StockItem{}, err
	}

	return model.StockItem{
		SKU:            sku,
		TyreSize:       size,
		TyrePattern:    strings.TrimSpace(record[2]),
		Brand:          strings.TrimSpace(record[3]),
		Country:        strings.TrimSpace(record[4]),
		QtyAvailable:   qty,
		RetailPrice:    retail,
		WholesalePrice: wholesale,
		Warehouse:      strings.TrimSpace(record[8]),
	}, nil
}

func rowError(err error) string {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr.UserMessage()
	}
	return err.Error()
}
