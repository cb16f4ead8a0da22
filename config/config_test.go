package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "KAFKA_BROKERS", "PROFIT_MARGIN", "LOW_STOCK_THRESHOLD", "NAVIGATOR_GRID_COLUMNS", "CATALOG_SOURCE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "pos-events", cfg.Kafka.TopicEvents)
	assert.Equal(t, "0.3", cfg.Business.ProfitMargin.String())
	assert.Equal(t, 5, cfg.Business.LowStockThreshold)
	assert.Equal(t, 4, cfg.Business.GridColumns)
	assert.Equal(t, CatalogEmbedded, cfg.Business.CatalogSource)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PROFIT_MARGIN", "0.25")
	t.Setenv("NAVIGATOR_GRID_COLUMNS", "0")
	t.Setenv("CATALOG_SOURCE", "postgres")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0.25", cfg.Business.ProfitMargin.String())
	assert.Equal(t, 4, cfg.Business.GridColumns)
	assert.Equal(t, CatalogPostgres, cfg.Business.CatalogSource)
}
