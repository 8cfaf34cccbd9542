// Package coupon реализует проверку купона и расчёт скидки.
// Проверка не изменяет счётчик использований: он увеличивается отдельным
// транзакционным шагом только при подтверждении оплаты заказа.
package coupon

import (
	"errors"
	"fmt"
	"time"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/model"
)

// Ошибки проверки купона. Каждая оборачивает базовую ошибку своей категории.
var (
	ErrInactive          = fmt.Errorf("%w: coupon is inactive", apperr.ErrConflict)
	ErrOutOfWindow       = fmt.Errorf("%w: coupon is outside its validity window", apperr.ErrExpired)
	ErrOrderTypeMismatch = fmt.Errorf("%w: coupon is not eligible for this order type", apperr.ErrValidation)
	ErrBelowMinimum      = fmt.Errorf("%w: subtotal is below the coupon minimum", apperr.ErrValidation)
	ErrUsesExhausted     = fmt.Errorf("%w: coupon usage limit reached", apperr.ErrConflict)
)

// Reason возвращает машинный код причины отказа для HTTP-ответа.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInactive):
		return "INACTIVE"
	case errors.Is(err, ErrOutOfWindow):
		return "OUT_OF_WINDOW"
	case errors.Is(err, ErrOrderTypeMismatch):
		return "ORDER_TYPE_NOT_ELIGIBLE"
	case errors.Is(err, ErrBelowMinimum):
		return "BELOW_MINIMUM"
	case errors.Is(err, ErrUsesExhausted):
		return "USES_EXHAUSTED"
	case errors.Is(err, apperr.ErrNotFound):
		return "NOT_FOUND"
	}
	return "INVALID"
}

// Validate проверяет купон для заказа и возвращает размер скидки в центах.
// Скидка никогда не превышает промежуточную сумму.
func Validate(c *model.Coupon, orderType model.OrderType, subtotalCents int64, now time.Time) (int64, error) {
	if !c.Active {
		return 0, ErrInactive
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return 0, ErrOutOfWindow
	}
	if !c.AppliesTo(orderType) {
		return 0, ErrOrderTypeMismatch
	}
	if subtotalCents < c.MinOrderCents {
		return 0, ErrBelowMinimum
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return 0, ErrUsesExhausted
	}

	return Discount(c, subtotalCents), nil
}

// Discount вычисляет размер скидки в центах без проверки применимости.
// Процентная скидка округляется вниз. Скидка любого вида ограничена суммой
// заказа: купон с процентом выше 100 не уводит итог в минус.
func Discount(c *model.Coupon, subtotalCents int64) int64 {
	switch c.DiscountType {
	case model.DiscountPercentage:
		d := subtotalCents * c.DiscountValue / 100
		if d > subtotalCents {
			return subtotalCents
		}
		return d
	case model.DiscountFixed:
		if c.DiscountValue > subtotalCents {
			return subtotalCents
		}
		return c.DiscountValue
	}
	return 0
}
