// Package search implements stock lookup with role-based projection of
// the results.
package search

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
)

// Wildcard is the field value that short-circuits a search to "return
// everything" without asking for a term.
const Wildcard = "All"

// Request describes one search.
type Request struct {
	Term  string
	Field repository.SearchField

	// Wildcard returns all visible stock regardless of Term.
	Wildcard bool

	// RequesterRole selects the projection applied to the results.
	RequesterRole model.Role

	// ExcludeOwnerChatID hides the requester's own stock. Zero means
	// no exclusion.
	ExcludeOwnerChatID int64
}

// Results carries exactly one of the two projections, depending on the
// requester's role.
type Results struct {
	Dealer []model.StockRow
	Buyer  []model.BuyerStockRow
}

// Len returns the number of matching rows in whichever projection is set.
func (r Results) Len() int {
	if r.Dealer != nil {
		return len(r.Dealer)
	}
	return len(r.Buyer)
}

// Service runs searches against the stock repository.
type Service struct {
	stock  repository.StockRepository
	logger *log.Logger
}

func NewService(stock repository.StockRepository, logger *log.Logger) *Service {
	return &Service{stock: stock, logger: logger}
}

// Search executes the request and projects the rows for the requester's
// role. Buyers never receive wholesale prices or dealer contact
// details; the projection is a distinct row type, so forwarding results
// cannot resurrect the hidden fields.
func (s *Service) Search(ctx context.Context, req Request) (Results, error) {
	filter := repository.SearchFilter{
		Term:               strings.TrimSpace(req.Term),
		Field:              req.Field,
		Wildcard:           req.Wildcard,
		ExcludeOwnerChatID: req.ExcludeOwnerChatID,
	}
	rows, err := s.stock.Search(ctx, filter)
	if err != nil {
		return Results{}, fmt.Errorf("search stock: %w", err)
	}

	s.logger.Printf("[Search] field=%q wildcard=%t results=%d", req.Field, req.Wildcard, len(rows))

	if req.RequesterRole == model.RoleDealer {
		return Results{Dealer: rows}, nil
	}
	return Results{Buyer: Redact(rows)}, nil
}

// Redact converts full rows to the buyer projection. Applying it to an
// already-projected slice is impossible by construction: the input type
// is the full row.
func Redact(rows []model.StockRow) []model.BuyerStockRow {
	out := make([]model.BuyerStockRow, len(rows))
	for i, row := range rows {
		out[i] = row.BuyerView()
	}
	return out
}

// NormalizeSize canonicalizes a tyre size string for comparison:
// uppercase, dots become slashes, and whitespace around the R marker is
// collapsed, so "185/65 r15", "185.65R15" and "185/65R15" all compare
// equal.
func NormalizeSize(size string) string {
	s := strings.ToUpper(strings.TrimSpace(size))
	s = strings.ReplaceAll(s, ".", "/")
	s = strings.ReplaceAll(s, " R", "R")
	s = strings.ReplaceAll(s, "R ", "R")
	return strings.Join(strings.Fields(s), " ")
}

// SizeMatches reports whether two size strings refer to the same size
// after normalization. Containment counts both ways, so a query of
// "185/65" matches stock listed as "185/65R15" and vice versa.
func SizeMatches(a, b string) bool {
	na, nb := NormalizeSize(a), NormalizeSize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}
