package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/club-store/config"
	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/pkg/database"
)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.Config{
		Server:   config.ServerConfig{Mode: "release"},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newSimpleProduct(stock int) *model.Product {
	now := time.Now().UTC()
	return &model.Product{
		ID:            uuid.New().String(),
		ClubID:        "club-1",
		Name:          "Club Hoodie",
		Price:         49900,
		Category:      "merch",
		TotalStock:    stock,
		Status:        model.ProductStatusActive,
		MaxPerStudent: model.DefaultMaxPerStudent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newVariantProduct(stocks map[string]int) *model.Product {
	p := newSimpleProduct(0)
	p.Name = "Club Tee"
	p.HasVariants = true
	group := model.VariantGroup{ID: "g-size", Name: "Size"}
	for _, id := range []string{"S", "M", "L"} {
		stock, ok := stocks[id]
		if !ok {
			continue
		}
		group.Options = append(group.Options, model.VariantOption{ID: id, Label: id, Stock: stock, IsAvailable: true})
	}
	p.Variants = model.VariantGroups{group}
	p.SyncTotal()
	return p
}

func mustCreateProduct(t testing.TB, repo ProductRepository, p *model.Product) *model.Product {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
