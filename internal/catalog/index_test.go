package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	idx, err := LoadEmbedded()
	require.NoError(t, err)

	categories, brands, items := idx.Len()
	assert.Equal(t, 5, categories)
	assert.Greater(t, brands, categories)
	assert.Greater(t, items, brands)

	oreo, ok := idx.Item("oreo-classic")
	require.True(t, ok)
	assert.Equal(t, "Oreo Cookies", oreo.Name)
	assert.Equal(t, "2.50", oreo.UnitPrice.StringFixed(2))
	assert.Equal(t, 15, oreo.AvailableStock)

	assert.True(t, idx.BrandBelongsTo("br-oreo", "cat-bakery"))
	assert.False(t, idx.BrandBelongsTo("br-oreo", "cat-dairy"))

	parent, ok := idx.CategoryOfBrand("br-apple")
	require.True(t, ok)
	assert.Equal(t, "cat-electronics", parent)
}

func TestIndexPreservesOrder(t *testing.T) {
	idx, err := LoadYAML(strings.NewReader(`
categories:
  - id: c1
    name: First
    brands:
      - id: b2
        name: Second brand
        items:
          - { id: i2, name: Two, price: "2", stock: 1 }
          - { id: i1, name: One, price: "1", stock: 1 }
      - id: b1
        name: First brand
  - id: c2
    name: Second
`))
	require.NoError(t, err)

	cats := idx.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, "c1", cats[0].ID)

	brands := idx.Brands("c1")
	require.Len(t, brands, 2)
	assert.Equal(t, "b2", brands[0].ID)

	items := idx.Items("b2")
	require.Len(t, items, 2)
	assert.Equal(t, "i2", items[0].ID)

	assert.Empty(t, idx.Items("b1"))
	assert.Empty(t, idx.Brands("c2"))
	assert.Nil(t, idx.Brands("missing"))
}

func TestBuilderRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
	}{
		{
			name: "duplicate category",
			build: func(b *Builder) {
				b.AddCategory(Category{ID: "c"}).AddCategory(Category{ID: "c"})
			},
		},
		{
			name: "brand under unknown category",
			build: func(b *Builder) {
				b.AddBrand("nope", Brand{ID: "b"})
			},
		},
		{
			name: "duplicate item",
			build: func(b *Builder) {
				b.AddCategory(Category{ID: "c"}).
					AddBrand("c", Brand{ID: "b"}).
					AddItem("b", Item{ID: "i"}).
					AddItem("b", Item{ID: "i"})
			},
		},
		{
			name: "negative price",
			build: func(b *Builder) {
				b.AddCategory(Category{ID: "c"}).
					AddBrand("c", Brand{ID: "b"}).
					AddItem("b", Item{ID: "i", UnitPrice: decimal.NewFromInt(-1)})
			},
		},
		{
			name: "negative stock",
			build: func(b *Builder) {
				b.AddCategory(Category{ID: "c"}).
					AddBrand("c", Brand{ID: "b"}).
					AddItem("b", Item{ID: "i", AvailableStock: -3})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			_, err := b.Build()
			assert.Error(t, err)
		})
	}
}

func TestFromRows(t *testing.T) {
	rows := []Row{
		{CategoryID: "c1", CategoryName: "Dairy", BrandID: "b1", BrandName: "Arla", ItemID: "milk", ItemName: "Milk", UnitPrice: decimal.RequireFromString("1.20"), Stock: 4},
		{CategoryID: "c1", CategoryName: "Dairy", BrandID: "b1", BrandName: "Arla", ItemID: "butter", ItemName: "Butter", UnitPrice: decimal.RequireFromString("3.20"), Stock: 2},
		{CategoryID: "c2", CategoryName: "Drinks", BrandID: "b2", BrandName: "Coke", ItemID: "coke", ItemName: "Coke", UnitPrice: decimal.RequireFromString("1.25"), Stock: 9},
	}

	idx, err := FromRows(rows)
	require.NoError(t, err)

	categories, brands, items := idx.Len()
	assert.Equal(t, 2, categories)
	assert.Equal(t, 2, brands)
	assert.Equal(t, 3, items)
	assert.Len(t, idx.Items("b1"), 2)
}
