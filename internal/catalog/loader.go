package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedCatalog []byte

type yamlItem struct {
	ID    string          `yaml:"id"`
	Name  string          `yaml:"name"`
	Price decimal.Decimal `yaml:"price"`
	Stock int             `yaml:"stock"`
}

type yamlBrand struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Items []yamlItem `yaml:"items"`
}

type yamlCategory struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Brands []yamlBrand `yaml:"brands"`
}

type yamlCatalog struct {
	Categories []yamlCategory `yaml:"categories"`
}

// LoadEmbedded builds the index from the catalog compiled into the binary
func LoadEmbedded() (*Index, error) {
	return LoadYAML(bytes.NewReader(seedCatalog))
}

// LoadYAML builds an index from a YAML document of nested categories
func LoadYAML(r io.Reader) (*Index, error) {
	var doc yamlCatalog
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	b := NewBuilder()
	for _, c := range doc.Categories {
		b.AddCategory(Category{ID: c.ID, Name: c.Name})
		for _, br := range c.Brands {
			b.AddBrand(c.ID, Brand{ID: br.ID, Name: br.Name})
			for _, it := range br.Items {
				b.AddItem(br.ID, Item{
					ID:             it.ID,
					Name:           it.Name,
					UnitPrice:      it.Price,
					AvailableStock: it.Stock,
				})
			}
		}
	}
	return b.Build()
}

// Row is one flattened catalog record, as stored in the catalog_items table
type Row struct {
	CategoryID   string          `db:"category_id"`
	CategoryName string          `db:"category_name"`
	BrandID      string          `db:"brand_id"`
	BrandName    string          `db:"brand_name"`
	ItemID       string          `db:"item_id"`
	ItemName     string          `db:"item_name"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Stock        int             `db:"stock"`
}

// FromRows builds an index from flattened rows; rows must be ordered by
// category, brand, then item position
func FromRows(rows []Row) (*Index, error) {
	b := NewBuilder()
	seenCategory := make(map[string]bool)
	seenBrand := make(map[string]bool)

	for _, r := range rows {
		if !seenCategory[r.CategoryID] {
			seenCategory[r.CategoryID] = true
			b.AddCategory(Category{ID: r.CategoryID, Name: r.CategoryName})
		}
		if !seenBrand[r.BrandID] {
			seenBrand[r.BrandID] = true
			b.AddBrand(r.CategoryID, Brand{ID: r.BrandID, Name: r.BrandName})
		}
		b.AddItem(r.BrandID, Item{
			ID:             r.ItemID,
			Name:           r.ItemName,
			UnitPrice:      r.UnitPrice,
			AvailableStock: r.Stock,
		})
	}
	return b.Build()
}
