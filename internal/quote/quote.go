// Package quote содержит расчёт сумм коммерческого предложения и генерацию
// человекочитаемых номеров документов. Все суммы в центах.
package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/model"
)

// ValidateItems проверяет позиции и возвращает копию с пересчитанными итогами:
// total каждой позиции всегда равен quantity*unit_price независимо от того,
// что прислал клиент.
func ValidateItems(items []model.LineItem) ([]model.LineItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: quote requires at least one line item", apperr.ErrValidation)
	}

	out := make([]model.LineItem, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return nil, fmt.Errorf("%w: line item %d has no description", apperr.ErrValidation, i)
		}
		if it.Quantity < 0 {
			return nil, fmt.Errorf("%w: line item %d has negative quantity", apperr.ErrValidation, i)
		}
		if it.UnitCents < 0 {
			return nil, fmt.Errorf("%w: line item %d has negative unit price", apperr.ErrValidation, i)
		}
		it.TotalCents = it.Quantity * it.UnitCents
		out = append(out, it)
	}
	return out, nil
}

// ValidateDepositPercent проверяет долю предоплаты.
func ValidateDepositPercent(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: deposit percentage must be between 0 and 100", apperr.ErrValidation)
	}
	return nil
}

// Totals вычисляет промежуточную сумму, предоплату и остаток.
// Предоплата округляется до цента по правилу «половина вверх».
func Totals(items []model.LineItem, depositPercent int) (subtotal, deposit, balance int64) {
	for _, it := range items {
		subtotal += it.TotalCents
	}
	deposit = (subtotal*int64(depositPercent) + 50) / 100
	balance = subtotal - deposit
	return subtotal, deposit, balance
}

// NewNumber генерирует человекочитаемый номер документа вида Q-20260301-4F2A9C1D.
func NewNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}
