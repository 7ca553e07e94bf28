package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/pkg/logger"
)

// CatalogService 商品管理。直接改库存只用于线下盘点修正，结账路径只走预占/归还
type CatalogService interface {
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, clubID string, statuses []model.ProductStatus, page, pageSize int) ([]*model.Product, error)
	SetStock(ctx context.Context, productID string, stock int) (*model.Product, error)
	SetVariantStock(ctx context.Context, productID, optionID string, stock int) (*model.Product, error)
	SetStatus(ctx context.Context, productID string, status model.ProductStatus) (*model.Product, error)
	// RepairTotal 按选项库存重算 total_stock
	RepairTotal(ctx context.Context, productID string) (*model.Product, error)
}

type VariantOptionInput struct {
	ID          string `json:"id"`
	Label       string `json:"label" validate:"required,max=50"`
	SKU         string `json:"sku" validate:"max=64"`
	Stock       int    `json:"stock" validate:"gte=0"`
	Price       *int64 `json:"price" validate:"omitempty,gte=0"`
	IsAvailable *bool  `json:"is_available"`
}

type VariantGroupInput struct {
	Name    string               `json:"name" validate:"required,max=50"`
	Options []VariantOptionInput `json:"options" validate:"required,min=1,dive"`
}

type CreateProductCommand struct {
	ClubID           string               `json:"club_id" validate:"required"`
	Name             string               `json:"name" validate:"required,max=150"`
	Description      string               `json:"description" validate:"max=5000"`
	Price            int64                `json:"price" validate:"gte=0"`
	Images           []model.ProductImage `json:"images" validate:"max=10"`
	Category         string               `json:"category" validate:"required,oneof=merch event-ticket food stationery service other"`
	Variants         []VariantGroupInput  `json:"variants" validate:"dive"`
	Stock            int                  `json:"stock" validate:"gte=0"`
	Status           model.ProductStatus  `json:"status" validate:"omitempty,oneof=draft active paused"`
	SaleStartsAt     *time.Time           `json:"sale_starts_at"`
	SaleEndsAt       *time.Time           `json:"sale_ends_at"`
	MaxPerStudent    int                  `json:"max_per_student" validate:"omitempty,min=1,max=50"`
	RequiresDelivery bool                 `json:"requires_delivery"`
	DeliveryNote     string               `json:"delivery_note" validate:"max=300"`
	CreatedBy        string               `json:"created_by"`
	Tags             []string             `json:"tags" validate:"max=20"`
}

type catalogService struct {
	products   repository.ProductRepository
	casRetries int
	now        func() time.Time
}

func NewCatalogService(products repository.ProductRepository, casRetries int) CatalogService {
	if casRetries <= 0 {
		casRetries = 8
	}
	return &catalogService{products: products, casRetries: casRetries, now: func() time.Time { return time.Now().UTC() }}
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*model.Product, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fromValidator(err)
	}
	if cmd.SaleStartsAt != nil && cmd.SaleEndsAt != nil && cmd.SaleEndsAt.Before(*cmd.SaleStartsAt) {
		return nil, invalid("sale_ends_at", "must not be before sale_starts_at")
	}

	now := s.now()
	p := &model.Product{
		ID:               uuid.New().String(),
		ClubID:           cmd.ClubID,
		Name:             strings.TrimSpace(cmd.Name),
		Description:      cmd.Description,
		Price:            cmd.Price,
		Images:           normalizeImages(cmd.Images),
		Category:         cmd.Category,
		TotalStock:       cmd.Stock,
		Status:           cmd.Status,
		SaleStartsAt:     cmd.SaleStartsAt,
		SaleEndsAt:       cmd.SaleEndsAt,
		MaxPerStudent:    cmd.MaxPerStudent,
		RequiresDelivery: cmd.RequiresDelivery,
		DeliveryNote:     cmd.DeliveryNote,
		CreatedBy:        cmd.CreatedBy,
		Tags:             cmd.Tags,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if p.Status == "" {
		p.Status = model.ProductStatusActive
	}
	if p.MaxPerStudent == 0 {
		p.MaxPerStudent = model.DefaultMaxPerStudent
	}
	if len(cmd.Variants) > 0 {
		p.HasVariants = true
		p.Variants = buildVariants(cmd.Variants)
		// 多规格商品的 total_stock 只由选项库存推导
		p.TotalStock = p.RecalculateTotal()
	}
	deriveStockStatus(p)

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("club_id", p.ClubID),
		zap.Int("total_stock", p.TotalStock),
	)
	return p, nil
}

func buildVariants(in []VariantGroupInput) model.VariantGroups {
	groups := make(model.VariantGroups, 0, len(in))
	for _, g := range in {
		group := model.VariantGroup{ID: uuid.New().String(), Name: g.Name}
		for _, o := range g.Options {
			id := o.ID
			if id == "" {
				id = uuid.New().String()
			}
			available := true
			if o.IsAvailable != nil {
				available = *o.IsAvailable
			}
			group.Options = append(group.Options, model.VariantOption{
				ID:          id,
				Label:       o.Label,
				SKU:         o.SKU,
				Stock:       o.Stock,
				Price:       o.Price,
				IsAvailable: available,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// normalizeImages 保证恰好一张主图
func normalizeImages(images []model.ProductImage) model.ProductImages {
	if len(images) == 0 {
		return model.ProductImages{}
	}
	out := make(model.ProductImages, len(images))
	copy(out, images)
	primary := -1
	for i := range out {
		if out[i].IsPrimary && primary == -1 {
			primary = i
			continue
		}
		out[i].IsPrimary = false
	}
	if primary == -1 {
		out[0].IsPrimary = true
	}
	return out
}

// deriveStockStatus soldout 由库存推导，只在 active/soldout 之间切换
func deriveStockStatus(p *model.Product) {
	switch {
	case p.Status == model.ProductStatusActive && p.TotalStock == 0:
		p.Status = model.ProductStatusSoldout
	case p.Status == model.ProductStatusSoldout && p.TotalStock > 0:
		p.Status = model.ProductStatusActive
	}
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, clubID string, statuses []model.ProductStatus, page, pageSize int) ([]*model.Product, error) {
	for _, status := range statuses {
		if !status.Valid() {
			return nil, invalid("status", "unknown product status %q", status)
		}
	}
	if page < 1 {
		page = 1
	}
	pageSize = clampLimit(pageSize)
	return s.products.ListByClub(ctx, clubID, statuses, (page-1)*pageSize, pageSize)
}

func (s *catalogService) SetStock(ctx context.Context, productID string, stock int) (*model.Product, error) {
	if stock < 0 {
		return nil, invalid("stock", "must not be negative")
	}
	return s.update(ctx, productID, func(p *model.Product) error {
		if p.HasVariants {
			return invalid("stock", "product has variants, set stock per option")
		}
		p.TotalStock = stock
		return nil
	})
}

func (s *catalogService) SetVariantStock(ctx context.Context, productID, optionID string, stock int) (*model.Product, error) {
	if stock < 0 {
		return nil, invalid("stock", "must not be negative")
	}
	return s.update(ctx, productID, func(p *model.Product) error {
		opt, _ := p.FindOption(optionID)
		if opt == nil {
			return fmt.Errorf("option %s: %w", optionID, ErrNotFound)
		}
		opt.Stock = stock
		p.SyncTotal()
		return nil
	})
}

func (s *catalogService) SetStatus(ctx context.Context, productID string, status model.ProductStatus) (*model.Product, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown product status %q", status)
	}
	if status == model.ProductStatusSoldout {
		return nil, invalid("status", "soldout is derived from stock and cannot be set")
	}
	return s.update(ctx, productID, func(p *model.Product) error {
		p.Status = status
		return nil
	})
}

func (s *catalogService) RepairTotal(ctx context.Context, productID string) (*model.Product, error) {
	return s.update(ctx, productID, func(p *model.Product) error {
		if !p.HasVariants {
			return nil
		}
		if total := p.RecalculateTotal(); total != p.TotalStock {
			logger.Warn("total stock drift repaired",
				zap.String("product_id", p.ID),
				zap.Int("stored", p.TotalStock),
				zap.Int("recalculated", total),
			)
			p.TotalStock = total
		}
		return nil
	})
}

// update 读-改-写，版本冲突时重试（与并发预占竞争同一行）
func (s *catalogService) update(ctx context.Context, productID string, mutate func(p *model.Product) error) (*model.Product, error) {
	for attempt := 0; attempt < s.casRetries; attempt++ {
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		if err := mutate(p); err != nil {
			return nil, err
		}
		deriveStockStatus(p)
		err = s.products.Save(ctx, p)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("update product %s: %w", productID, ErrConcurrentUpdate)
}
