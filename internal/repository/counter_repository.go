package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/club-store/internal/model"
)

// CounterRepository 计数器仓储
type CounterRepository interface {
	// Next 原子自增并返回新值
	Next(ctx context.Context, counterID string) (int64, error)
}

type counterRepository struct{ db *gorm.DB }

func NewCounterRepository(db *gorm.DB) CounterRepository { return &counterRepository{db: db} }

func (r *counterRepository) Next(ctx context.Context, counterID string) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, ErrNotFound
	}

	var seq int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 幂等：首次使用时补一行
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Counter{ID: id, Seq: 0, UpdatedAt: time.Now().UTC()}).Error; err != nil {
			return err
		}
		// UPDATE 持有行锁直到提交，随后读取的是本事务写入的值
		if err := tx.Model(&model.Counter{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"seq":        gorm.Expr("seq + 1"),
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Counter{}).Select("seq").Where("id = ?", id).Scan(&seq).Error
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}
