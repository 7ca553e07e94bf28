package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/pkg/logger"
)

const defaultCASRetries = 8

// ProductRepository 商品仓储。库存只能经由 Reserve*/Restore* 修改，
// 每个操作都是单行原子条件更新：要么完整生效，要么毫无影响。
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	Get(ctx context.Context, id string) (*model.Product, error)
	// ListByClub statuses 为空时不过滤状态
	ListByClub(ctx context.Context, clubID string, statuses []model.ProductStatus, offset, limit int) ([]*model.Product, error)

	// Reserve 非规格商品预占；条件不满足返回 ErrStockUnavailable
	Reserve(ctx context.Context, productID string, quantity int) (*model.Product, error)
	// ReserveVariant 规格选项预占，选项库存与 total_stock 同一次写入
	ReserveVariant(ctx context.Context, productID, optionID string, quantity int) (*model.Product, error)
	Restore(ctx context.Context, productID string, quantity int) (*model.Product, error)
	RestoreVariant(ctx context.Context, productID, optionID string, quantity int) (*model.Product, error)

	// Save 管理端整行覆盖（带版本校验），调用方负责先重算 total_stock
	Save(ctx context.Context, p *model.Product) error
	UpdateStatus(ctx context.Context, id string, status model.ProductStatus) error

	WithTx(tx *gorm.DB) ProductRepository
}

type productRepository struct {
	db         *gorm.DB
	casRetries int
}

// NewProductRepository casRetries <= 0 时取默认值
func NewProductRepository(db *gorm.DB, casRetries int) ProductRepository {
	if casRetries <= 0 {
		casRetries = defaultCASRetries
	}
	return &productRepository{db: db, casRetries: casRetries}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx, casRetries: r.casRetries}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepository) Get(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepository) ListByClub(ctx context.Context, clubID string, statuses []model.ProductStatus, offset, limit int) ([]*model.Product, error) {
	q := r.db.WithContext(ctx).Where("club_id = ?", clubID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var res []*model.Product
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *productRepository) Reserve(ctx context.Context, productID string, quantity int) (*model.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var p model.Product
	res := r.db.WithContext(ctx).Model(&p).Clauses(clause.Returning{}).
		Where("id = ? AND has_variants = ? AND status = ? AND total_stock >= ?",
			productID, false, model.ProductStatusActive, quantity).
		Updates(map[string]interface{}{
			"total_stock": gorm.Expr("total_stock - ?", quantity),
			"order_count": gorm.Expr("order_count + 1"),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStockUnavailable
	}

	r.markSoldoutIfEmpty(ctx, &p)
	return &p, nil
}

func (r *productRepository) ReserveVariant(ctx context.Context, productID, optionID string, quantity int) (*model.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	for attempt := 0; attempt < r.casRetries; attempt++ {
		p, err := r.Get(ctx, productID)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrStockUnavailable
		}
		if err != nil {
			return nil, err
		}
		if !p.HasVariants || p.Status != model.ProductStatusActive || p.TotalStock < quantity {
			return nil, ErrStockUnavailable
		}
		opt, _ := p.FindOption(optionID)
		if opt == nil || !opt.IsAvailable || opt.Stock < quantity {
			return nil, ErrStockUnavailable
		}
		opt.Stock -= quantity

		ok, err := r.casStock(ctx, p, -quantity, 1)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		r.markSoldoutIfEmpty(ctx, p)
		return p, nil
	}
	return nil, ErrConcurrentUpdate
}

func (r *productRepository) Restore(ctx context.Context, productID string, quantity int) (*model.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var p model.Product
	res := r.db.WithContext(ctx).Model(&p).Clauses(clause.Returning{}).
		Where("id = ? AND has_variants = ?", productID, false).
		Updates(map[string]interface{}{
			"total_stock": gorm.Expr("total_stock + ?", quantity),
			"order_count": gorm.Expr("CASE WHEN order_count > 0 THEN order_count - 1 ELSE 0 END"),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	if err := r.reactivateIfRestocked(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) RestoreVariant(ctx context.Context, productID, optionID string, quantity int) (*model.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	for attempt := 0; attempt < r.casRetries; attempt++ {
		p, err := r.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !p.HasVariants {
			return nil, ErrNotFound
		}
		opt, _ := p.FindOption(optionID)
		if opt == nil {
			return nil, ErrNotFound
		}
		opt.Stock += quantity

		decrement := 0
		if p.OrderCount > 0 {
			decrement = -1
		}
		ok, err := r.casStock(ctx, p, quantity, decrement)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := r.reactivateIfRestocked(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, ErrConcurrentUpdate
}

// casStock 以 version 为条件写回 variants，同时调整 total_stock / order_count。
// 版本匹配意味着 p 即库中现值，因此可以直接写绝对值
func (r *productRepository) casStock(ctx context.Context, p *model.Product, stockDelta, orderDelta int) (bool, error) {
	next := model.Product{
		Variants:   p.Variants,
		TotalStock: p.TotalStock + stockDelta,
		OrderCount: p.OrderCount + orderDelta,
		Version:    p.Version + 1,
		UpdatedAt:  time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Select("variants", "total_stock", "order_count", "version", "updated_at").
		Updates(&next)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	p.TotalStock = next.TotalStock
	p.OrderCount = next.OrderCount
	p.Version = next.Version
	p.UpdatedAt = next.UpdatedAt
	return true, nil
}

// markSoldoutIfEmpty 库存归零后的补充写，失败只记录：total_stock 才是可售的依据
func (r *productRepository) markSoldoutIfEmpty(ctx context.Context, p *model.Product) {
	if p.TotalStock > 0 || p.Status != model.ProductStatusActive {
		return
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND total_stock = 0 AND status = ?", p.ID, model.ProductStatusActive).
		Update("status", model.ProductStatusSoldout)
	if res.Error != nil {
		logger.Warn("mark product soldout failed", zap.String("product_id", p.ID), zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		p.Status = model.ProductStatusSoldout
	}
}

// reactivateIfRestocked 只把 soldout 拉回 active，不覆盖 paused/archived/draft
func (r *productRepository) reactivateIfRestocked(ctx context.Context, p *model.Product) error {
	if p.Status != model.ProductStatusSoldout || p.TotalStock <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND status = ? AND total_stock > 0", p.ID, model.ProductStatusSoldout).
		Update("status", model.ProductStatusActive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		p.Status = model.ProductStatusActive
	}
	return nil
}

func (r *productRepository) Save(ctx context.Context, p *model.Product) error {
	expected := p.Version
	p.Version = expected + 1
	p.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND version = ?", p.ID, expected).
		Select("*").Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		p.Version = expected
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		p.Version = expected
		return ErrVersionConflict
	}
	return nil
}

func (r *productRepository) UpdateStatus(ctx context.Context, id string, status model.ProductStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
