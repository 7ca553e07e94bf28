package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = repository.ErrNotFound
	ErrStockUnavailable      = repository.ErrStockUnavailable
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPurchaseLimitExceeded = errors.New("purchase limit exceeded")
	ErrConcurrentUpdate      = repository.ErrConcurrentUpdate
)

// ValidationError 字段级校验错误，在任何库存变更之前返回
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// fromValidator 取第一个字段错误
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	field := fe.Namespace()
	// 去掉顶层结构体名，如 PlaceOrderCommand.items[0].quantity
	for i := 0; i < len(field); i++ {
		if field[i] == '.' {
			field = field[i+1:]
			break
		}
	}
	msg := "failed on '" + fe.Tag() + "'"
	if fe.Param() != "" {
		msg += " (" + fe.Param() + ")"
	}
	return &ValidationError{Field: field, Message: msg}
}

// StockUnavailableError 指明哪一件商品库存不足
type StockUnavailableError struct {
	ProductID string
	Name      string
	OptionID  string
}

func (e *StockUnavailableError) Error() string {
	if e.OptionID != "" {
		return fmt.Sprintf("insufficient stock for %q (option %s)", e.Name, e.OptionID)
	}
	return fmt.Sprintf("insufficient stock for %q", e.Name)
}

func (e *StockUnavailableError) Unwrap() error { return ErrStockUnavailable }

// InvalidTransitionError 携带订单当前状态与目标状态
type InvalidTransitionError struct {
	OrderID string
	From    model.OrderStatus
	To      model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// PurchaseLimitError 超出每人限购
type PurchaseLimitError struct {
	ProductID string
	Name      string
	Limit     int
	Purchased int
	Requested int
}

func (e *PurchaseLimitError) Error() string {
	return fmt.Sprintf("purchase limit for %q is %d per student (already bought %d, requested %d)",
		e.Name, e.Limit, e.Purchased, e.Requested)
}

func (e *PurchaseLimitError) Unwrap() error { return ErrPurchaseLimitExceeded }
