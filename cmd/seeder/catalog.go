// cmd/seeder/catalog.go
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/gestor-be/internal/core/domain"
)

// catalogColumns maps accepted workbook headers to product fields
var catalogColumns = map[string]string{
	"nome":           "name",
	"produto":        "name",
	"sku":            "sku",
	"codigo":         "sku",
	"categoria":      "category",
	"custo":          "cost",
	"preco custo":    "cost",
	"preco":          "price",
	"preco venda":    "price",
	"quantidade":     "quantity",
	"estoque":        "quantity",
	"estoque minimo": "min_stock",
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "õ", "o", "ô", "o",
	"ú", "u",
	"ç", "c",
)

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = accentFolder.Replace(h)
	return strings.Join(strings.Fields(strings.ReplaceAll(h, "_", " ")), " ")
}

// loadCatalogWorkbook reads products from the first sheet of an xlsx file.
// The first row holds headers, blank rows are skipped.
func loadCatalogWorkbook(path string) ([]domain.Product, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return readCatalogSheet(file.Sheets[0])
}

func readCatalogSheet(sheet *xlsx.Sheet) ([]domain.Product, error) {
	if sheet.MaxRow < 1 {
		return nil, nil
	}

	header, err := sheet.Row(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	columns := make(map[string]int)
	for i := 0; i < sheet.MaxCol; i++ {
		if field, ok := catalogColumns[normalizeHeader(header.GetCell(i).String())]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	for _, required := range []string{"name", "sku", "price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("workbook is missing the %s column", required)
		}
	}

	products := make([]domain.Product, 0, sheet.MaxRow-1)
	for r := 1; r < sheet.MaxRow; r++ {
		row, err := sheet.Row(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", r+1, err)
		}

		value := func(field string) string {
			i, ok := columns[field]
			if !ok {
				return ""
			}
			return strings.TrimSpace(row.GetCell(i).String())
		}

		if value("name") == "" && value("sku") == "" {
			continue
		}

		p := domain.Product{Name: value("name"), SKU: value("sku")}
		if c := value("category"); c != "" {
			p.Category = &c
		}
		if p.SalePrice, err = parseMoney(value("price")); err != nil {
			return nil, fmt.Errorf("row %d: invalid price: %w", r+1, err)
		}
		if p.CostPrice, err = parseMoney(value("cost")); err != nil {
			return nil, fmt.Errorf("row %d: invalid cost: %w", r+1, err)
		}
		if p.Quantity, err = parseCount(value("quantity")); err != nil {
			return nil, fmt.Errorf("row %d: invalid quantity: %w", r+1, err)
		}
		if p.MinStock, err = parseCount(value("min_stock")); err != nil {
			return nil, fmt.Errorf("row %d: invalid minimum stock: %w", r+1, err)
		}

		products = append(products, p)
	}

	return products, nil
}

// parseMoney accepts "6.90", "6,90" and "R$ 1.234,50"
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// demoCatalog is seeded when no workbook is given
func demoCatalog() []domain.Product {
	category := func(c string) *string { return &c }
	money := decimal.RequireFromString

	return []domain.Product{
		{Name: "Arroz Integral 1kg", SKU: "ARZ-INT-1KG", Category: category("mercearia"), CostPrice: money("4.20"), SalePrice: money("6.90"), Quantity: 40, MinStock: 10},
		{Name: "Feijao Preto 1kg", SKU: "FJP-1KG", Category: category("mercearia"), CostPrice: money("5.10"), SalePrice: money("8.50"), Quantity: 30, MinStock: 10},
		{Name: "Cafe Torrado 500g", SKU: "CAF-500G", Category: category("mercearia"), CostPrice: money("9.80"), SalePrice: money("15.90"), Quantity: 18, MinStock: 6},
		{Name: "Oleo de Soja 900ml", SKU: "OLE-SOJ-900", Category: category("mercearia"), CostPrice: money("5.40"), SalePrice: money("7.99"), Quantity: 24, MinStock: 8},
		{Name: "Sabao em Po 1kg", SKU: "SAB-PO-1KG", Category: category("limpeza"), CostPrice: money("8.30"), SalePrice: money("12.50"), Quantity: 12, MinStock: 5},
		{Name: "Detergente 500ml", SKU: "DET-500", Category: category("limpeza"), CostPrice: money("1.60"), SalePrice: money("2.79"), Quantity: 4, MinStock: 12},
		{Name: "Papel Higienico 4un", SKU: "PAP-HIG-4", Category: category("higiene"), CostPrice: money("3.90"), SalePrice: money("6.49"), Quantity: 20, MinStock: 8},
		{Name: "Creme Dental 90g", SKU: "CRM-DNT-90", Category: category("higiene"), CostPrice: money("2.20"), SalePrice: money("3.99"), Quantity: 0, MinStock: 6},
	}
}
