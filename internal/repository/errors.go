package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStockUnavailable 条件更新未命中：库存不足、状态不可售或商品不存在
	ErrStockUnavailable = errors.New("stock unavailable")
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	// ErrVersionConflict 乐观锁版本不匹配
	ErrVersionConflict = errors.New("version conflict")
	// ErrConcurrentUpdate CAS 重试次数用尽
	ErrConcurrentUpdate = errors.New("concurrent update retries exhausted")
	ErrDuplicateKey     = errors.New("duplicate key")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicateKey(err):
		return errors.Join(ErrDuplicateKey, err)
	}
	return err
}

// isDuplicateKey 兼容 postgres / sqlite 的唯一约束冲突
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
