// Package catalog holds the read-only category → brand → item hierarchy
// sold at the terminal.
//
// The hierarchy is stored as an arena: flat slices with parent indexes and
// id → index maps, so lookups and bounds checks never walk nested slices.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry
type Item struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AvailableStock int             `json:"available_stock"`
}

// Brand groups items inside a category
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is the top level of the hierarchy
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoryNode struct {
	Category
	brands []int
}

type brandNode struct {
	Brand
	category int
	items    []int
}

type itemNode struct {
	Item
	brand int
}

// Index is an immutable catalog arena
type Index struct {
	categories []categoryNode
	brands     []brandNode
	items      []itemNode

	categoryByID map[string]int
	brandByID    map[string]int
	itemByID     map[string]int
}

// Builder assembles an Index, rejecting duplicate ids and invalid values
type Builder struct {
	idx *Index
	err error
}

// NewBuilder creates an empty catalog builder
func NewBuilder() *Builder {
	return &Builder{idx: &Index{
		categoryByID: make(map[string]int),
		brandByID:    make(map[string]int),
		itemByID:     make(map[string]int),
	}}
}

// AddCategory appends a category
func (b *Builder) AddCategory(c Category) *Builder {
	if b.err != nil {
		return b
	}
	if c.ID == "" {
		b.err = fmt.Errorf("category %q has no id", c.Name)
		return b
	}
	if _, ok := b.idx.categoryByID[c.ID]; ok {
		b.err = fmt.Errorf("duplicate category id %s", c.ID)
		return b
	}
	b.idx.categoryByID[c.ID] = len(b.idx.categories)
	b.idx.categories = append(b.idx.categories, categoryNode{Category: c})
	return b
}

// AddBrand appends a brand under an existing category
func (b *Builder) AddBrand(categoryID string, br Brand) *Builder {
	if b.err != nil {
		return b
	}
	ci, ok := b.idx.categoryByID[categoryID]
	if !ok {
		b.err = fmt.Errorf("brand %s: unknown category %s", br.ID, categoryID)
		return b
	}
	if br.ID == "" {
		b.err = fmt.Errorf("brand %q has no id", br.Name)
		return b
	}
	if _, ok := b.idx.brandByID[br.ID]; ok {
		b.err = fmt.Errorf("duplicate brand id %s", br.ID)
		return b
	}
	bi := len(b.idx.brands)
	b.idx.brandByID[br.ID] = bi
	b.idx.brands = append(b.idx.brands, brandNode{Brand: br, category: ci})
	b.idx.categories[ci].brands = append(b.idx.categories[ci].brands, bi)
	return b
}

// AddItem appends an item under an existing brand
func (b *Builder) AddItem(brandID string, it Item) *Builder {
	if b.err != nil {
		return b
	}
	bi, ok := b.idx.brandByID[brandID]
	if !ok {
		b.err = fmt.Errorf("item %s: unknown brand %s", it.ID, brandID)
		return b
	}
	switch {
	case it.ID == "":
		b.err = fmt.Errorf("item %q has no id", it.Name)
	case it.UnitPrice.IsNegative():
		b.err = fmt.Errorf("item %s has negative price", it.ID)
	case it.AvailableStock < 0:
		b.err = fmt.Errorf("item %s has negative stock", it.ID)
	}
	if b.err != nil {
		return b
	}
	if _, ok := b.idx.itemByID[it.ID]; ok {
		b.err = fmt.Errorf("duplicate item id %s", it.ID)
		return b
	}
	ii := len(b.idx.items)
	b.idx.itemByID[it.ID] = ii
	b.idx.items = append(b.idx.items, itemNode{Item: it, brand: bi})
	b.idx.brands[bi].items = append(b.idx.brands[bi].items, ii)
	return b
}

// Build returns the finished index or the first error encountered
func (b *Builder) Build() (*Index, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.idx, nil
}

// Categories returns all categories in order
func (x *Index) Categories() []Category {
	out := make([]Category, len(x.categories))
	for i, c := range x.categories {
		out[i] = c.Category
	}
	return out
}

// Brands returns the brands of a category in order; nil for an unknown id
func (x *Index) Brands(categoryID string) []Brand {
	ci, ok := x.categoryByID[categoryID]
	if !ok {
		return nil
	}
	out := make([]Brand, len(x.categories[ci].brands))
	for i, bi := range x.categories[ci].brands {
		out[i] = x.brands[bi].Brand
	}
	return out
}

// Items returns the items of a brand in order; nil for an unknown id
func (x *Index) Items(brandID string) []Item {
	bi, ok := x.brandByID[brandID]
	if !ok {
		return nil
	}
	out := make([]Item, len(x.brands[bi].items))
	for i, ii := range x.brands[bi].items {
		out[i] = x.items[ii].Item
	}
	return out
}

// Category looks up a category by id
func (x *Index) Category(id string) (Category, bool) {
	ci, ok := x.categoryByID[id]
	if !ok {
		return Category{}, false
	}
	return x.categories[ci].Category, true
}

// Brand looks up a brand by id
func (x *Index) Brand(id string) (Brand, bool) {
	bi, ok := x.brandByID[id]
	if !ok {
		return Brand{}, false
	}
	return x.brands[bi].Brand, true
}

// Item looks up an item by id
func (x *Index) Item(id string) (Item, bool) {
	ii, ok := x.itemByID[id]
	if !ok {
		return Item{}, false
	}
	return x.items[ii].Item, true
}

// BrandBelongsTo reports whether brandID is a child of categoryID
func (x *Index) BrandBelongsTo(brandID, categoryID string) bool {
	bi, ok := x.brandByID[brandID]
	if !ok {
		return false
	}
	ci, ok := x.categoryByID[categoryID]
	return ok && x.brands[bi].category == ci
}

// CategoryOfBrand returns the parent category id of a brand
func (x *Index) CategoryOfBrand(brandID string) (string, bool) {
	bi, ok := x.brandByID[brandID]
	if !ok {
		return "", false
	}
	return x.categories[x.brands[bi].category].ID, true
}

// Len returns the number of categories, brands and items
func (x *Index) Len() (categories, brands, items int) {
	return len(x.categories), len(x.brands), len(x.items)
}
