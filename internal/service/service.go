// Package service реализует бизнес-логику сервиса пекарни: бронирование слотов,
// приём заявок, жизненный цикл предложений и договоров, подтверждение оплаты.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/cart"
	"github.com/mmeshcher/bakeshop-system/internal/coupon"
	"github.com/mmeshcher/bakeshop-system/internal/lifecycle"
	"github.com/mmeshcher/bakeshop-system/internal/model"
	"github.com/mmeshcher/bakeshop-system/internal/notify"
	"github.com/mmeshcher/bakeshop-system/internal/quote"
	"github.com/mmeshcher/bakeshop-system/internal/repository"
	"github.com/mmeshcher/bakeshop-system/internal/schedule"
	"github.com/mmeshcher/bakeshop-system/internal/validation"
)

// DoubleWeightedFlavor — вкус, каждая штука которого занимает две единицы
// ёмкости дюжины: рецепт вдвое трудозатратнее обычного.
const DoubleWeightedFlavor = "Stuffed Cookie"

// Цена печенья за дюжину в центах. Торты, свадьбы и дегустации оцениваются
// индивидуально через коммерческое предложение.
const cookiesDozenCents = 4200

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrderByHold(ctx context.Context, holdID string) (*model.Order, error)
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	CancelOrder(ctx context.Context, orderID string) error

	ReservedCounts(ctx context.Context, t model.OrderType, start, end string) (map[string]map[string]int, error)
	ReserveSlot(ctx context.Context, hold model.SlotHold, capacity int) error
	GetHold(ctx context.Context, id string) (*model.SlotHold, error)
	ReleaseHold(ctx context.Context, holdID string) error
	StaleHoldIDs(ctx context.Context, before time.Time) ([]string, error)

	GetCoupon(ctx context.Context, code string) (*model.Coupon, error)

	CreateQuote(ctx context.Context, q *model.Quote) error
	GetQuote(ctx context.Context, id string) (*model.Quote, error)
	ReplaceQuoteItems(ctx context.Context, quoteID string, items []model.LineItem, subtotal, deposit, balance int64) error
	UpdateQuoteStatus(ctx context.Context, id string, status model.QuoteStatus) error
	ExpireSentQuotes(ctx context.Context, now time.Time) (int64, error)
	ConfirmDeposit(ctx context.Context, orderID, quoteID string, orderStatus model.OrderStatus, couponCode, holdID string) error

	CreateContract(ctx context.Context, c *model.Contract) error
	GetContract(ctx context.Context, id string) (*model.Contract, error)
	GetContractByOrder(ctx context.Context, orderID string) (*model.Contract, error)
	UpdateContractStatus(ctx context.Context, id string, status model.ContractStatus) error
	SignContract(ctx context.Context, id, signerName string, signedAt time.Time) error
	ExpireSentContracts(ctx context.Context, now time.Time) (int64, error)
}

// Service содержит бизнес-логику сервиса пекарни.
type Service struct {
	repo     Repository
	notifier *notify.Client
	sched    schedule.Config
	logger   *zap.Logger

	holdTTL       time.Duration
	sweepInterval time.Duration
}

// NewService создаёт сервис с указанным репозиторием и клиентом уведомлений.
func NewService(repo Repository, notifier *notify.Client, sched schedule.Config, logger *zap.Logger, holdTTL, sweepInterval time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		notifier:      notifier,
		sched:         sched,
		logger:        logger,
		holdTTL:       holdTTL,
		sweepInterval: sweepInterval,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// dozensBounds возвращает допустимые границы цели в дюжинах для типа заказа.
func dozensBounds(t model.OrderType) (int, int) {
	if t == model.OrderTypeCookiesLarge {
		return 4, 6
	}
	return 1, 3
}

// AvailabilityResult содержит сетку слотов и параметры бронирования типа заказа.
type AvailabilityResult struct {
	Slots        map[string][]schedule.TimeSlot
	LeadTimeDays int
	MinDate      string
}

// Availability возвращает открытые и закрытые слоты за диапазон дат.
func (s *Service) Availability(ctx context.Context, t model.OrderType, start, end string) (*AvailabilityResult, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown order type %q", apperr.ErrValidation, t)
	}

	now := time.Now()
	reserved, err := s.repo.ReservedCounts(ctx, t, start, end)
	if err != nil {
		return nil, err
	}

	slots, err := s.sched.Availability(t, start, end, now, reserved)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResult{
		Slots:        slots,
		LeadTimeDays: s.sched.LeadTime(t),
		MinDate:      s.sched.MinDate(t, now),
	}, nil
}

// ReserveSlot занимает место в слоте и возвращает удержание.
func (s *Service) ReserveSlot(ctx context.Context, t model.OrderType, date, tod string) (*model.SlotHold, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown order type %q", apperr.ErrValidation, t)
	}
	if !validation.IsValidDate(date) || !validation.IsValidTimeOfDay(tod) {
		return nil, fmt.Errorf("%w: bad slot date or time", apperr.ErrValidation)
	}
	if err := s.sched.IsBookable(t, date, tod, time.Now()); err != nil {
		return nil, err
	}

	hold := model.SlotHold{
		ID:        uuid.NewString(),
		OrderType: t,
		Date:      date,
		Time:      tod,
	}
	if err := s.repo.ReserveSlot(ctx, hold, s.sched.SlotCapacity(t)); err != nil {
		return nil, err
	}
	return &hold, nil
}

// ReleaseSlot снимает удержание слота. Повторный вызов — no-op.
func (s *Service) ReleaseSlot(ctx context.Context, holdID string) error {
	return s.repo.ReleaseHold(ctx, holdID)
}

// ValidateCoupon проверяет купон и возвращает размер скидки в центах.
// Счётчик использований здесь не меняется.
func (s *Service) ValidateCoupon(ctx context.Context, code string, t model.OrderType, subtotalCents int64) (int64, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: unknown order type %q", apperr.ErrValidation, t)
	}
	if subtotalCents < 0 {
		return 0, fmt.Errorf("%w: negative subtotal", apperr.ErrValidation)
	}

	c, err := s.repo.GetCoupon(ctx, code)
	if err != nil {
		return 0, err
	}
	return coupon.Validate(c, t, subtotalCents, time.Now())
}

// CreateOrderInput содержит данные новой заявки.
type CreateOrderInput struct {
	Type          model.OrderType
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	RequestedDate string
	RequestedTime string
	Delivery      bool
	Address       string
	CouponCode    string
	HoldID        string
	Payload       model.OrderPayload
}

// CreateInquiry принимает заявку клиента и создаёт заказ в статусе inquiry.
// Корзина печенья валидируется на сервере заново независимо от клиента.
func (s *Service) CreateInquiry(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown order type %q", apperr.ErrValidation, in.Type)
	}
	if in.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", apperr.ErrValidation)
	}
	if !validation.IsValidEmail(in.CustomerEmail) {
		return nil, fmt.Errorf("%w: bad customer email", apperr.ErrValidation)
	}
	if in.RequestedDate != "" && !validation.IsValidDate(in.RequestedDate) {
		return nil, fmt.Errorf("%w: bad requested date", apperr.ErrValidation)
	}
	if in.RequestedTime != "" && !validation.IsValidTimeOfDay(in.RequestedTime) {
		return nil, fmt.Errorf("%w: bad requested time", apperr.ErrValidation)
	}
	if in.Delivery && in.Address == "" {
		return nil, fmt.Errorf("%w: delivery requires an address", apperr.ErrValidation)
	}
	if in.Payload.Type != in.Type || !in.Payload.Consistent() {
		return nil, fmt.Errorf("%w: payload does not match order type", apperr.ErrValidation)
	}

	var total int64
	if in.Type == model.OrderTypeCookies || in.Type == model.OrderTypeCookiesLarge {
		minD, maxD := dozensBounds(in.Type)
		sel, err := cart.FromDetails(DoubleWeightedFlavor, minD, maxD, *in.Payload.Cookies)
		if err != nil {
			return nil, err
		}
		total = int64(sel.TargetDozens()) * cookiesDozenCents
	}

	if in.CouponCode != "" {
		discount, err := s.ValidateCoupon(ctx, in.CouponCode, in.Type, total)
		if err != nil {
			return nil, err
		}
		total -= discount
	}

	if in.HoldID != "" {
		hold, err := s.repo.GetHold(ctx, in.HoldID)
		if err != nil {
			return nil, err
		}
		if hold.OrderType != in.Type {
			return nil, fmt.Errorf("%w: hold is for a different order type", apperr.ErrValidation)
		}
		if hold.Confirmed {
			return nil, fmt.Errorf("%w: hold is already attached to a paid order", apperr.ErrConflict)
		}
		if _, err := s.repo.GetOrderByHold(ctx, in.HoldID); err == nil {
			return nil, fmt.Errorf("%w: hold is already attached to another order", apperr.ErrConflict)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		in.RequestedDate = hold.Date
		in.RequestedTime = hold.Time
	}

	o := &model.Order{
		ID:            uuid.NewString(),
		Type:          in.Type,
		Status:        model.OrderStatusInquiry,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		RequestedDate: in.RequestedDate,
		RequestedTime: in.RequestedTime,
		Delivery:      in.Delivery,
		Address:       in.Address,
		TotalCents:    total,
		CouponCode:    in.CouponCode,
		HoldID:        in.HoldID,
		Payload:       in.Payload,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders возвращает заказы, опционально отфильтрованные по статусу.
func (s *Service) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return s.repo.ListOrders(ctx, status)
}

// CreateQuote создаёт предложение по заказу в статусе draft.
func (s *Service) CreateQuote(ctx context.Context, orderID string, depositPercent, validDays int) (*model.Quote, error) {
	if err := quote.ValidateDepositPercent(depositPercent); err != nil {
		return nil, err
	}
	if validDays <= 0 {
		return nil, fmt.Errorf("%w: valid days must be positive", apperr.ErrValidation)
	}
	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}

	now := time.Now()
	q := &model.Quote{
		ID:             uuid.NewString(),
		Number:         quote.NewNumber("Q", now),
		OrderID:        orderID,
		Status:         model.QuoteStatusDraft,
		DepositPercent: depositPercent,
		ValidUntil:     now.AddDate(0, 0, validDays),
		CreatedAt:      now,
	}
	if err := s.repo.CreateQuote(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuote возвращает предложение по идентификатору.
func (s *Service) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	return s.repo.GetQuote(ctx, id)
}

// SetQuoteItems заменяет набор позиций предложения целиком и пересчитывает итоги.
func (s *Service) SetQuoteItems(ctx context.Context, quoteID string, items []model.LineItem) (*model.Quote, error) {
	q, err := s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanEditQuoteItems(q.Status) {
		return nil, fmt.Errorf("%w: quote in status %q cannot be edited", apperr.ErrConflict, q.Status)
	}

	checked, err := quote.ValidateItems(items)
	if err != nil {
		return nil, err
	}
	subtotal, deposit, balance := quote.Totals(checked, q.DepositPercent)

	if err := s.repo.ReplaceQuoteItems(ctx, quoteID, checked, subtotal, deposit, balance); err != nil {
		return nil, err
	}

	q.Items = checked
	q.SubtotalCents = subtotal
	q.DepositCents = deposit
	q.BalanceCents = balance
	return q, nil
}

// SendQuote переводит предложение в статус sent, двигает заказ в pending_payment
// и передаёт снимок итогов внешней системе уведомлений.
func (s *Service) SendQuote(ctx context.Context, quoteID string) (*model.Quote, error) {
	q, err := s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if len(q.Items) == 0 {
		return nil, fmt.Errorf("%w: quote has no line items", apperr.ErrValidation)
	}

	next, err := lifecycle.SendQuote(q.Status)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuoteStatus(ctx, quoteID, next); err != nil {
		return nil, err
	}
	q.Status = next

	o, err := s.repo.GetOrder(ctx, q.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == model.OrderStatusInquiry {
		nextOrder, err := lifecycle.NextOrder(o.Type, o.Status, lifecycle.EventQuoteSent)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateOrderStatus(ctx, o.ID, nextOrder); err != nil {
			return nil, err
		}
	}

	s.sendEvent(ctx, notify.Event{
		Type: notify.EventQuoteSent,
		Data: map[string]string{
			"quote_number":   q.Number,
			"customer_name":  o.CustomerName,
			"customer_email": o.CustomerEmail,
			"subtotal":       strconv.FormatInt(q.SubtotalCents, 10),
			"deposit":        strconv.FormatInt(q.DepositCents, 10),
			"balance":        strconv.FormatInt(q.BalanceCents, 10),
			"valid_until":    q.ValidUntil.Format(time.RFC3339),
		},
	})

	return q, nil
}

// ApproveQuote фиксирует согласие клиента с предложением.
// Просроченное предложение отклоняется, его статус не меняется.
func (s *Service) ApproveQuote(ctx context.Context, quoteID string, now time.Time) (*model.Quote, error) {
	q, err := s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q.Status == model.QuoteStatusSent && now.After(q.ValidUntil) {
		return nil, fmt.Errorf("%w: quote validity ended %s", apperr.ErrExpired, q.ValidUntil.Format(time.RFC3339))
	}

	next, err := lifecycle.ApproveQuote(q.Status)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuoteStatus(ctx, quoteID, next); err != nil {
		return nil, err
	}
	q.Status = next
	return q, nil
}

// ConfirmPayment обрабатывает сигнал платёжной системы о поступлении предоплаты.
// Сумма должна совпадать с предоплатой предложения. Предложение конвертируется,
// заказ переходит в deposit_paid (для несвадебных — сразу в confirmed), купон
// списывается, удержание слота подтверждается — всё одной транзакцией.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, quoteID string, amountCents int64) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	q, err := s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q.OrderID != orderID {
		return nil, fmt.Errorf("%w: quote does not belong to this order", apperr.ErrValidation)
	}
	if amountCents != q.DepositCents {
		return nil, fmt.Errorf("%w: amount does not match the quote deposit", apperr.ErrValidation)
	}

	next, err := lifecycle.NextOrder(o.Type, o.Status, lifecycle.EventDepositPaid)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ConfirmDeposit(ctx, orderID, quoteID, next, o.CouponCode, o.HoldID); err != nil {
		return nil, err
	}
	o.Status = next

	// Свадебный заказ с уже подписанным договором проходит ворота сразу.
	if o.Type == model.OrderTypeWedding && o.Status == model.OrderStatusDepositPaid {
		if c, err := s.repo.GetContractByOrder(ctx, orderID); err == nil && c.Status == model.ContractStatusSigned {
			confirmed, err := lifecycle.NextOrder(o.Type, o.Status, lifecycle.EventContractSigned)
			if err == nil {
				if err := s.repo.UpdateOrderStatus(ctx, orderID, confirmed); err != nil {
					return nil, err
				}
				o.Status = confirmed
			}
		}
	}

	s.sendEvent(ctx, notify.Event{
		Type: notify.EventOrderStatusChanged,
		Data: map[string]string{
			"order_id":       o.ID,
			"status":         string(o.Status),
			"customer_email": o.CustomerEmail,
		},
	})

	return o, nil
}

// CreateContract создаёт договор по свадебному заказу в статусе draft.
// У заказа может быть не больше одного действующего договора.
func (s *Service) CreateContract(ctx context.Context, orderID, body string, validDays int) (*model.Contract, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: contract body is required", apperr.ErrValidation)
	}
	if validDays <= 0 {
		return nil, fmt.Errorf("%w: valid days must be positive", apperr.ErrValidation)
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Type != model.OrderTypeWedding {
		return nil, fmt.Errorf("%w: contracts apply to wedding orders only", apperr.ErrValidation)
	}

	if existing, err := s.repo.GetContractByOrder(ctx, orderID); err == nil {
		if existing.Status != model.ContractStatusExpired {
			return nil, fmt.Errorf("%w: order already has an active contract", apperr.ErrConflict)
		}
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	c := &model.Contract{
		ID:         uuid.NewString(),
		Number:     quote.NewNumber("C", now),
		OrderID:    orderID,
		Status:     model.ContractStatusDraft,
		Body:       body,
		ValidUntil: now.AddDate(0, 0, validDays),
		CreatedAt:  now,
	}
	if err := s.repo.CreateContract(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetContract возвращает договор по идентификатору.
func (s *Service) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	return s.repo.GetContract(ctx, id)
}

// SendContract переводит договор в статус sent и уведомляет внешнюю систему.
func (s *Service) SendContract(ctx context.Context, contractID string) (*model.Contract, error) {
	c, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.SendContract(c.Status)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateContractStatus(ctx, contractID, next); err != nil {
		return nil, err
	}
	c.Status = next

	if o, err := s.repo.GetOrder(ctx, c.OrderID); err == nil {
		s.sendEvent(ctx, notify.Event{
			Type: notify.EventContractSent,
			Data: map[string]string{
				"contract_number": c.Number,
				"customer_name":   o.CustomerName,
				"customer_email":  o.CustomerEmail,
				"valid_until":     c.ValidUntil.Format(time.RFC3339),
			},
		})
	}

	return c, nil
}

// SignContract фиксирует подписание договора клиентом. Для заказа, уже
// оплатившего предоплату, подписание открывает переход в confirmed.
func (s *Service) SignContract(ctx context.Context, contractID, signerName string, now time.Time) (*model.Contract, error) {
	if signerName == "" {
		return nil, fmt.Errorf("%w: signer name is required", apperr.ErrValidation)
	}

	c, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.ContractStatusSent && now.After(c.ValidUntil) {
		return nil, fmt.Errorf("%w: contract validity ended %s", apperr.ErrExpired, c.ValidUntil.Format(time.RFC3339))
	}

	next, err := lifecycle.SignContract(c.Status)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SignContract(ctx, contractID, signerName, now); err != nil {
		return nil, err
	}
	c.Status = next
	c.SignerName = signerName
	c.SignedAt = &now

	o, err := s.repo.GetOrder(ctx, c.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == model.OrderStatusDepositPaid {
		confirmed, err := lifecycle.NextOrder(o.Type, o.Status, lifecycle.EventContractSigned)
		if err == nil {
			if err := s.repo.UpdateOrderStatus(ctx, o.ID, confirmed); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// CancelOrder отменяет заказ из любого незавершённого статуса.
// Удержание слота снимается в той же транзакции, что и смена статуса.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := lifecycle.NextOrder(o.Type, o.Status, lifecycle.EventCancelled); err != nil {
		return nil, err
	}

	if err := s.repo.CancelOrder(ctx, orderID); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatusCancelled
	o.HoldID = ""

	s.sendEvent(ctx, notify.Event{
		Type: notify.EventOrderStatusChanged,
		Data: map[string]string{
			"order_id":       o.ID,
			"status":         string(o.Status),
			"customer_email": o.CustomerEmail,
		},
	})

	return o, nil
}

// CompleteOrder фиксирует выдачу или доставку подтверждённого заказа.
func (s *Service) CompleteOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.NextOrder(o.Type, o.Status, lifecycle.EventFulfilled)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	o.Status = next
	return o, nil
}

func (s *Service) sendEvent(ctx context.Context, ev notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, ev); err != nil {
		s.logger.Warn("notify send failed", zap.String("event", ev.Type), zap.Error(err))
	}
}

// StartExpirySweep запускает фоновый процесс, который переводит просроченные
// предложения и договоры в expired и освобождает залежавшиеся удержания слотов.
func (s *Service) StartExpirySweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
				err := retry.Do(ctx, backoff, func(ctx context.Context) error {
					if err := s.sweepOnce(ctx); err != nil {
						if repository.IsRetryable(err) {
							return retry.RetryableError(err)
						}
						return err
					}
					return nil
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("expiry sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *Service) sweepOnce(ctx context.Context) error {
	now := time.Now()

	expiredQuotes, err := s.repo.ExpireSentQuotes(ctx, now)
	if err != nil {
		return err
	}
	expiredContracts, err := s.repo.ExpireSentContracts(ctx, now)
	if err != nil {
		return err
	}

	stale, err := s.repo.StaleHoldIDs(ctx, now.Add(-s.holdTTL))
	if err != nil {
		return err
	}
	for _, id := range stale {
		if err := s.repo.ReleaseHold(ctx, id); err != nil {
			return err
		}
	}

	if expiredQuotes > 0 || expiredContracts > 0 || len(stale) > 0 {
		s.logger.Info("expiry sweep",
			zap.Int64("quotes_expired", expiredQuotes),
			zap.Int64("contracts_expired", expiredContracts),
			zap.Int("holds_released", len(stale)),
		)
	}
	return nil
}
