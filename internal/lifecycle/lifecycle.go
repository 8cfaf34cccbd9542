// Package lifecycle содержит таблицы переходов статусов заказа, коммерческого
// предложения и договора. Все допустимые переходы описаны здесь в одном месте;
// вызывающий код никогда не выводит следующий статус самостоятельно.
package lifecycle

import (
	"fmt"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/model"
)

// OrderEvent описывает событие, двигающее заказ по жизненному циклу.
type OrderEvent string

const (
	EventQuoteSent      OrderEvent = "quote_sent"
	EventDepositPaid    OrderEvent = "deposit_paid"
	EventContractSigned OrderEvent = "contract_signed"
	EventFulfilled      OrderEvent = "fulfilled"
	EventCancelled      OrderEvent = "cancelled"
)

// orderTransitions: текущий статус × событие → следующий статус.
// Отмена разрешена из любого незавершённого статуса и добавляется отдельно в NextOrder.
var orderTransitions = map[model.OrderStatus]map[OrderEvent]model.OrderStatus{
	model.OrderStatusInquiry: {
		EventQuoteSent: model.OrderStatusPendingPayment,
	},
	model.OrderStatusPendingPayment: {
		EventDepositPaid: model.OrderStatusDepositPaid,
	},
	model.OrderStatusDepositPaid: {
		EventContractSigned: model.OrderStatusConfirmed,
	},
	model.OrderStatusConfirmed: {
		EventFulfilled: model.OrderStatusCompleted,
	},
}

// NextOrder возвращает статус заказа после события.
// Для несвадебных заказов событие deposit_paid сразу переводит заказ в confirmed:
// договорного этапа у них нет. Недопустимый переход возвращает ошибку конфликта.
func NextOrder(t model.OrderType, current model.OrderStatus, ev OrderEvent) (model.OrderStatus, error) {
	if ev == EventCancelled {
		if current == model.OrderStatusCompleted || current == model.OrderStatusCancelled {
			return "", fmt.Errorf("%w: order in status %q cannot be cancelled", apperr.ErrConflict, current)
		}
		return model.OrderStatusCancelled, nil
	}

	next, ok := orderTransitions[current][ev]
	if !ok {
		return "", fmt.Errorf("%w: event %q not allowed for order in status %q", apperr.ErrConflict, ev, current)
	}

	if ev == EventDepositPaid && t != model.OrderTypeWedding {
		return model.OrderStatusConfirmed, nil
	}

	return next, nil
}

// CanEditQuoteItems сообщает, можно ли менять позиции предложения в данном статусе.
func CanEditQuoteItems(s model.QuoteStatus) bool {
	return s == model.QuoteStatusDraft || s == model.QuoteStatusSent
}

// SendQuote проверяет переход предложения в статус sent.
// Повторная отправка из sent разрешена и означает пересылку, а не откат.
func SendQuote(s model.QuoteStatus) (model.QuoteStatus, error) {
	if s == model.QuoteStatusDraft || s == model.QuoteStatusSent {
		return model.QuoteStatusSent, nil
	}
	return "", fmt.Errorf("%w: quote in status %q cannot be sent", apperr.ErrConflict, s)
}

// ApproveQuote проверяет переход предложения в статус approved.
// Проверка срока действия выполняется вызывающим кодом до обращения сюда.
func ApproveQuote(s model.QuoteStatus) (model.QuoteStatus, error) {
	if s == model.QuoteStatusSent {
		return model.QuoteStatusApproved, nil
	}
	return "", fmt.Errorf("%w: quote in status %q cannot be approved", apperr.ErrConflict, s)
}

// ConvertQuote проверяет переход предложения в статус converted после подтверждения оплаты.
func ConvertQuote(s model.QuoteStatus) (model.QuoteStatus, error) {
	if s == model.QuoteStatusApproved {
		return model.QuoteStatusConverted, nil
	}
	return "", fmt.Errorf("%w: quote in status %q cannot be converted", apperr.ErrConflict, s)
}

// SendContract проверяет переход договора в статус sent.
func SendContract(s model.ContractStatus) (model.ContractStatus, error) {
	if s == model.ContractStatusDraft || s == model.ContractStatusSent {
		return model.ContractStatusSent, nil
	}
	return "", fmt.Errorf("%w: contract in status %q cannot be sent", apperr.ErrConflict, s)
}

// SignContract проверяет переход договора в статус signed.
func SignContract(s model.ContractStatus) (model.ContractStatus, error) {
	if s == model.ContractStatusSent {
		return model.ContractStatusSigned, nil
	}
	return "", fmt.Errorf("%w: contract in status %q cannot be signed", apperr.ErrConflict, s)
}
