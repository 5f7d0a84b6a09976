package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/OttoOtter-hub/TyreTerra/internal/conversation"
	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
	"github.com/OttoOtter-hub/TyreTerra/internal/search"
	"github.com/OttoOtter-hub/TyreTerra/internal/validate"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

const cancelHint = "\n\n❌ To cancel enter /cancel"

// freeText wraps validate.FreeText into a step parser.
func freeText(ctx context.Context, text string) (interface{}, error) {
	v, err := validate.FreeText(text)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func mustDecimal(v interface{}) decimal.Decimal {
	d, _ := v.(decimal.Decimal)
	return d
}

func confirmParse(ctx context.Context, text string) (interface{}, error) {
	switch strings.TrimSpace(text) {
	case "Yes", "No":
		return strings.TrimSpace(text), nil
	}
	return nil, apperr.Validation("Please choose 'Yes' or 'No':")
}

// registrationFlow collects a new account's details and registers it.
func (r *Router) registrationFlow(chatID int64, displayName string) *conversation.Flow {
	return &conversation.Flow{
		Name: "registration",
		Steps: []conversation.Step{
			{
				Field:  "role",
				Prompt: fmt.Sprintf("Welcome to Tyreterra, %s!\nLet's register you in the system.\nPlease choose your role (Dealer/Buyer):", displayName),
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					role := model.Role(strings.TrimSpace(text))
					if !role.Valid() {
						return nil, apperr.Validation("Please choose a role from the suggested options:")
					}
					return string(role), nil
				},
			},
			{
				Field:  "company_name",
				Prompt: "Enter your company name:",
				Parse:  freeText,
			},
			{
				Field:  "tax_id",
				Prompt: "Enter your company TIN (10 or 12 digits):",
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					v, err := validate.TaxID(text)
					if err != nil {
						return nil, apperr.Validation("❌ Invalid TIN format. Enter 10 or 12 digits:")
					}
					return v, nil
				},
			},
			{
				Field:  "phone",
				Prompt: "Enter your contact phone (format: 89991234567):",
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					v, err := validate.Phone(text)
					if err != nil {
						return nil, apperr.Validation("❌ Invalid phone format. Enter in format 89991234567:")
					}
					return v, nil
				},
			},
			{
				Field:  "email",
				Prompt: "Enter your email:",
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					v, err := validate.Email(text)
					if err != nil {
						return nil, apperr.Validation("❌ Invalid email format. Enter a valid email:")
					}
					return v, nil
				},
			},
		},
		Commit: func(ctx context.Context, fields conversation.Fields) error {
			acc := &model.Account{
				ChatID:      chatID,
				Name:        displayName,
				CompanyName: fields.String("company_name"),
				TaxID:       fields.String("tax_id"),
				Phone:       fields.String("phone"),
				Email:       fields.String("email"),
				Role:        model.Role(fields.String("role")),
			}
			if err := r.accounts.Register(ctx, acc); err != nil {
				return err
			}

			permissions := "\n✅ You can: view other users' stock"
			if acc.Role == model.RoleDealer {
				permissions = "\n✅ You can: upload stock, download your stock, view other users' stock"
			}
			r.send(ctx, chatID, fmt.Sprintf(
				"🎉 Registration completed!\n\n"+
					"👤 Name: %s\n"+
					"🏢 Company: %s\n"+
					"📋 TIN: %s\n"+
					"📞 Phone: %s\n"+
					"📧 Email: %s\n"+
					"🎯 Role: %s%s\n\n"+
					"Use commands to work with the system:",
				acc.Name, acc.CompanyName, acc.TaxID, acc.Phone, acc.Email, acc.Role, permissions))
			return nil
		},
	}
}

// addStockFlow collects one stock item field by field.
func (r *Router) addStockFlow(owner *model.Account) *conversation.Flow {
	qtyParse := func(ctx context.Context, text string) (interface{}, error) {
		v, err := validate.Quantity(text)
		if err != nil {
			return nil, apperr.Validation("Quantity must be a positive number. Try again:" + cancelHint)
		}
		return v, nil
	}
	priceParse := func(ctx context.Context, text string) (interface{}, error) {
		v, err := validate.Price(text)
		if err != nil {
			return nil, apperr.Validation("Price must be a positive number. Try again:" + cancelHint)
		}
		return v, nil
	}

	return &conversation.Flow{
		Name: "addstock",
		Steps: []conversation.Step{
			{Field: "sku", Prompt: "Let's add a new item to stock.\nEnter the article (SKU):" + cancelHint, Parse: freeText},
			{Field: "tyre_size", Prompt: "Enter tyre size (e.g.: 195/65 R15):" + cancelHint, Parse: freeText},
			{Field: "tyre_pattern", Prompt: "Enter tyre model (tyre pattern):" + cancelHint, Parse: freeText},
			{Field: "brand", Prompt: "Enter tyre brand:" + cancelHint, Parse: freeText},
			{Field: "country", Prompt: "Enter country of origin:" + cancelHint, Parse: freeText},
			{Field: "qty_available", Prompt: "Enter available quantity (numbers only):" + cancelHint, Parse: qtyParse},
			{Field: "retail_price", Prompt: "Enter retail price (numbers only):" + cancelHint, Parse: priceParse},
			{Field: "wholesale_price", Prompt: "Enter wholesale price (numbers only):" + cancelHint, Parse: priceParse},
			{Field: "warehouse", Prompt: "Enter warehouse location:" + cancelHint, Parse: freeText},
		},
		Commit: func(ctx context.Context, fields conversation.Fields) error {
			item := &model.StockItem{
				SKU:            fields.String("sku"),
				TyreSize:       fields.String("tyre_size"),
				TyrePattern:    fields.String("tyre_pattern"),
				Brand:          fields.String("brand"),
				Country:        fields.String("country"),
				QtyAvailable:   fields["qty_available"].(int),
				RetailPrice:    mustDecimal(fields["retail_price"]),
				WholesalePrice: mustDecimal(fields["wholesale_price"]),
				Warehouse:      fields.String("warehouse"),
			}
			if err := r.stock.AddItem(ctx, owner, item); err != nil {
				return err
			}

			r.send(ctx, owner.ChatID, fmt.Sprintf(
				"✅ Item successfully added to stock!\n\n"+
					"🏷️ SKU: %s\n"+
					"📏 Size: %s\n"+
					"🔄 Pattern: %s\n"+
					"🏭 Brand: %s\n"+
					"🌍 Country: %s\n"+
					"📊 Quantity: %d\n"+
					"💰 Retail price: %s\n"+
					"💼 Wholesale price: %s\n"+
					"🏪 Warehouse: %s",
				item.SKU, item.TyreSize, item.TyrePattern, item.Brand, item.Country,
				item.QtyAvailable, item.RetailPrice, item.WholesalePrice, item.Warehouse))
			return nil
		},
	}
}

var searchFields = map[string]repository.SearchField{
	"SKU":       repository.FieldSKU,
	"Tyre Size": repository.FieldSize,
	"Brand":     repository.FieldBrand,
	"Warehouse": repository.FieldWarehouse,
}

// searchFlow asks for a search type, then a value, and sends the
// results as a file. Choosing "All" skips the value step.
func (r *Router) searchFlow(acc *model.Account) *conversation.Flow {
	return &conversation.Flow{
		Name: "search",
		Steps: []conversation.Step{
			{
				Field:  "search_type",
				Prompt: "Choose search type (SKU / Tyre Size / Brand / Warehouse / All):",
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					t := strings.TrimSpace(text)
					if _, ok := searchFields[t]; !ok && t != search.Wildcard {
						return nil, apperr.Validation("Please choose a search type from the suggested options:")
					}
					return t, nil
				},
				Terminal: func(value interface{}) bool {
					return value == search.Wildcard
				},
			},
			{
				Field: "search_value",
				PromptFunc: func(fields conversation.Fields) string {
					return fmt.Sprintf("Enter %s to search:%s", fields.String("search_type"), cancelHint)
				},
				Parse: freeText,
			},
		},
		Commit: func(ctx context.Context, fields conversation.Fields) error {
			searchType := fields.String("search_type")
			searchValue := fields.String("search_value")

			results, err := r.searcher.Search(ctx, search.Request{
				Term:               searchValue,
				Field:              searchFields[searchType],
				Wildcard:           searchType == search.Wildcard,
				RequesterRole:      acc.Role,
				ExcludeOwnerChatID: acc.ChatID,
			})
			if err != nil {
				return err
			}

			if results.Len() == 0 {
				r.send(ctx, acc.ChatID, fmt.Sprintf(
					"❌ No items found for your search.\nType: %s\nValue: %s", searchType, searchValue))
				return nil
			}

			var path string
			if results.Dealer != nil {
				path, err = r.exporter.DealerResults(results.Dealer)
			} else {
				path, err = r.exporter.BuyerResults(results.Buyer)
			}
			if err != nil {
				return err
			}

			value := searchValue
			if searchType == search.Wildcard {
				value = "All items"
			}
			caption := fmt.Sprintf("🔍 Search results: %d items found\nType: %s\nValue: %s",
				results.Len(), searchType, value)
			if err := r.tr.SendDocument(ctx, acc.ChatID, path, caption); err != nil {
				return err
			}

			r.send(ctx, acc.ChatID, "Search completed!")
			return nil
		},
	}
}

// deleteItemFlow asks for a SKU, shows the item found and deletes it
// after a Yes/No confirmation.
func (r *Router) deleteItemFlow(owner *model.Account) *conversation.Flow {
	return &conversation.Flow{
		Name: "deleteitem",
		Steps: []conversation.Step{
			{
				Field:  "item",
				Prompt: "Enter the SKU of the item you want to delete:" + cancelHint,
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					sku, err := validate.FreeText(text)
					if err != nil {
						return nil, err
					}
					item, err := r.stock.FindOwnBySKU(ctx, owner, sku)
					if err != nil {
						return nil, err
					}
					if item == nil {
						return nil, apperr.Validation(fmt.Sprintf(
							"❌ Item with SKU '%s' not found in your stock.\nPlease check the SKU and try again:%s",
							sku, cancelHint))
					}
					return item, nil
				},
			},
			{
				Field: "confirm",
				PromptFunc: func(fields conversation.Fields) string {
					item := fields["item"].(*model.StockItem)
					return fmt.Sprintf(
						"Found item:\n"+
							"🏷️ SKU: %s\n"+
							"📏 Size: %s\n"+
							"🏭 Brand: %s\n"+
							"📊 Quantity: %d\n\n"+
							"Are you sure you want to delete this item? (Yes/No)%s",
						item.SKU, item.TyreSize, item.Brand, item.QtyAvailable, cancelHint)
				},
				Parse: confirmParse,
			},
		},
		Commit: func(ctx context.Context, fields conversation.Fields) error {
			item := fields["item"].(*model.StockItem)
			if fields.String("confirm") != "Yes" {
				r.send(ctx, owner.ChatID, "❌ Item deletion cancelled.")
				return nil
			}
			if _, err := r.stock.DeleteItem(ctx, owner, item.SKU); err != nil {
				return err
			}
			r.send(ctx, owner.ChatID, fmt.Sprintf("✅ Item with SKU '%s' successfully deleted!", item.SKU))
			return nil
		},
	}
}

// deleteAllFlow confirms and wipes the dealer's entire stock.
func (r *Router) deleteAllFlow(owner *model.Account, count int64) *conversation.Flow {
	return &conversation.Flow{
		Name: "deletestock",
		Steps: []conversation.Step{
			{
				Field: "confirm",
				Prompt: fmt.Sprintf(
					"⚠️ WARNING: You are about to delete your ENTIRE stock (%d items).\n"+
						"This action CANNOT be undone!\n\n"+
						"Are you sure you want to continue? (Yes/No)%s", count, cancelHint),
				Parse: confirmParse,
			},
		},
		Commit: func(ctx context.Context, fields conversation.Fields) error {
			if fields.String("confirm") != "Yes" {
				r.send(ctx, owner.ChatID, "❌ Stock deletion cancelled.")
				return nil
			}
			if _, err := r.stock.DeleteAll(ctx, owner); err != nil {
				return err
			}
			r.send(ctx, owner.ChatID, "✅ Your entire stock has been successfully deleted!")
			return nil
		},
	}
}

// adminSQLFlow collects and executes one ad-hoc SQL statement.
func (r *Router) adminSQLFlow(chatID int64) *conversation.Flow {
	return &conversation.Flow{
		Name: "admin_sql",
		Steps: []conversation.Step{
			{
				Field:  "query",
				Prompt: "Enter SQL query to execute:\n\n⚠️ WARNING: Be careful with modifying queries!" + cancelHint,
				Parse:  freeText,
			},
		},
		Commit: func(ctx context.Context, fields conversation.Fields) error {
			result, err := r.admin.RunSQL(ctx, fields.String("query"))
			if err != nil {
				return err
			}
			if result.IsSelect {
				if result.RowCount == 0 {
					r.send(ctx, chatID, "✅ Query executed successfully. No results.")
					return nil
				}
				caption := fmt.Sprintf("📋 SQL query result: %d rows", result.RowCount)
				return r.tr.SendDocument(ctx, chatID, result.FilePath, caption)
			}
			r.send(ctx, chatID, fmt.Sprintf("✅ Query executed successfully. Rows affected: %d", result.RowsAffected))
			return nil
		},
	}
}
