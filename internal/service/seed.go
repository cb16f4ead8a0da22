package service

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"pos-service/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedData []byte

// Seed is the reference data a fresh process starts with
type Seed struct {
	Users     []models.User          `yaml:"users"`
	Inventory []models.InventoryItem `yaml:"inventory"`
	Sales     []models.Receipt       `yaml:"sales"`
	Requests  []models.StockRequest  `yaml:"requests"`
	HeldBills []models.HeldBill      `yaml:"held_bills"`
}

// LoadSeed decodes the seed compiled into the binary
func LoadSeed() (*Seed, error) {
	return DecodeSeed(bytes.NewReader(seedData))
}

// DecodeSeed decodes a seed document
func DecodeSeed(r io.Reader) (*Seed, error) {
	var s Seed
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return &s, nil
}

// HeldBillsFor returns the seeded held bills owned by userID
func (s *Seed) HeldBillsFor(userID string) []models.HeldBill {
	var out []models.HeldBill
	for _, b := range s.HeldBills {
		if b.OwnerID == userID {
			out = append(out, b)
		}
	}
	return out
}
