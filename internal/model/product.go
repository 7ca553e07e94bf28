package model

import "time"

// ProductStatus 商品状态；soldout 由库存归零推导得出
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusPaused   ProductStatus = "paused"
	ProductStatusSoldout  ProductStatus = "soldout"
	ProductStatusArchived ProductStatus = "archived"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusPaused, ProductStatusSoldout, ProductStatusArchived:
		return true
	}
	return false
}

// ListedProductStatuses 对学生公开展示的状态
var ListedProductStatuses = []ProductStatus{ProductStatusActive, ProductStatusSoldout}

func (s ProductStatus) Listed() bool {
	return s == ProductStatusActive || s == ProductStatusSoldout
}

// ProductCategories 商品分类
var ProductCategories = []string{"merch", "event-ticket", "food", "stationery", "service", "other"}

const (
	DefaultMaxPerStudent = 5
	MinMaxPerStudent     = 1
	MaxMaxPerStudent     = 50
)

// VariantOption 规格选项，库存独立计数
type VariantOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	SKU         string `json:"sku,omitempty"`
	Stock       int    `json:"stock"`
	Price       *int64 `json:"price,omitempty"` // nil 表示沿用商品价格
	IsAvailable bool   `json:"isAvailable"`
}

// VariantGroup 规格组，如 Size / Color
type VariantGroup struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Options []VariantOption `json:"options"`
}

type VariantGroups []VariantGroup

type ProductImage struct {
	URL       string `json:"url"`
	PublicID  string `json:"publicId,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
	AltText   string `json:"altText,omitempty"`
}

type ProductImages []ProductImage

// Product 社团商品。库存只能经由 repository 的原子预占/归还修改
type Product struct {
	ID               string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClubID           string        `json:"club_id" gorm:"type:varchar(36);not null;index:idx_products_club_status,priority:1"`
	Name             string        `json:"name" gorm:"type:varchar(150);not null"`
	Description      string        `json:"description" gorm:"type:text"`
	Price            int64         `json:"price" gorm:"not null"` // 最小货币单位（paise）
	Images           ProductImages `json:"images" gorm:"type:text;serializer:json"`
	Category         string        `json:"category" gorm:"type:varchar(32);index"`
	HasVariants      bool          `json:"has_variants" gorm:"not null"`
	Variants         VariantGroups `json:"variants" gorm:"type:text;serializer:json"`
	TotalStock       int           `json:"total_stock" gorm:"not null;check:chk_products_total_stock,total_stock >= 0"`
	Status           ProductStatus `json:"status" gorm:"type:varchar(16);not null;index:idx_products_club_status,priority:2"`
	SaleStartsAt     *time.Time    `json:"sale_starts_at"`
	SaleEndsAt       *time.Time    `json:"sale_ends_at"`
	MaxPerStudent    int           `json:"max_per_student" gorm:"not null"`
	RequiresDelivery bool          `json:"requires_delivery"`
	DeliveryNote     string        `json:"delivery_note" gorm:"type:varchar(300)"`
	OrderCount       int           `json:"order_count" gorm:"not null"`
	CreatedBy        string        `json:"created_by" gorm:"type:varchar(36)"`
	Tags             []string      `json:"tags" gorm:"type:text;serializer:json"`
	Version          int64         `json:"version" gorm:"not null"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// RecalculateTotal 汇总所有规格选项库存（纯函数，仅用于管理修复）
func (p *Product) RecalculateTotal() int {
	total := 0
	for _, g := range p.Variants {
		for _, o := range g.Options {
			total += o.Stock
		}
	}
	return total
}

// SyncTotal 多规格商品按选项库存重算 TotalStock
func (p *Product) SyncTotal() {
	if p.HasVariants {
		p.TotalStock = p.RecalculateTotal()
	}
}

// FindOption 返回选项及其所在规格组名
func (p *Product) FindOption(optionID string) (*VariantOption, string) {
	for gi := range p.Variants {
		g := &p.Variants[gi]
		for oi := range g.Options {
			if g.Options[oi].ID == optionID {
				return &g.Options[oi], g.Name
			}
		}
	}
	return nil, ""
}

// EffectivePrice 选项有单独定价时用选项价格，否则用商品价格
func (p *Product) EffectivePrice(optionID string) int64 {
	if !p.HasVariants || optionID == "" {
		return p.Price
	}
	if opt, _ := p.FindOption(optionID); opt != nil && opt.Price != nil {
		return *opt.Price
	}
	return p.Price
}

// VariantLabel 形如 "Size: Large"
func (p *Product) VariantLabel(optionID string) string {
	opt, group := p.FindOption(optionID)
	if opt == nil {
		return ""
	}
	return group + ": " + opt.Label
}

// PrimaryImage 主图，没有标记时取第一张
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	return p.Images[0].URL
}

// IsOnSale active 且处于销售时间窗内（空边界视为不限）
func (p *Product) IsOnSale(now time.Time) bool {
	if p.Status != ProductStatusActive {
		return false
	}
	if p.SaleStartsAt != nil && now.Before(*p.SaleStartsAt) {
		return false
	}
	if p.SaleEndsAt != nil && now.After(*p.SaleEndsAt) {
		return false
	}
	return true
}

func (p *Product) IsOutOfStock() bool { return p.TotalStock <= 0 }
