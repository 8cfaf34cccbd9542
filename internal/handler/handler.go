// Package handler содержит HTTP-обработчики API сервиса пекарни.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/coupon"
	"github.com/mmeshcher/bakeshop-system/internal/middleware"
	"github.com/mmeshcher/bakeshop-system/internal/model"
	"github.com/mmeshcher/bakeshop-system/internal/repository"
	"github.com/mmeshcher/bakeshop-system/internal/schedule"
	"github.com/mmeshcher/bakeshop-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Availability(ctx context.Context, t model.OrderType, start, end string) (*service.AvailabilityResult, error)
	ReserveSlot(ctx context.Context, t model.OrderType, date, tod string) (*model.SlotHold, error)
	ValidateCoupon(ctx context.Context, code string, t model.OrderType, subtotalCents int64) (int64, error)

	CreateInquiry(ctx context.Context, in service.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*model.Order, error)
	CompleteOrder(ctx context.Context, orderID string) (*model.Order, error)

	CreateQuote(ctx context.Context, orderID string, depositPercent, validDays int) (*model.Quote, error)
	GetQuote(ctx context.Context, id string) (*model.Quote, error)
	SetQuoteItems(ctx context.Context, quoteID string, items []model.LineItem) (*model.Quote, error)
	SendQuote(ctx context.Context, quoteID string) (*model.Quote, error)
	ApproveQuote(ctx context.Context, quoteID string, now time.Time) (*model.Quote, error)
	ConfirmPayment(ctx context.Context, orderID, quoteID string, amountCents int64) (*model.Order, error)

	CreateContract(ctx context.Context, orderID, body string, validDays int) (*model.Contract, error)
	GetContract(ctx context.Context, id string) (*model.Contract, error)
	SendContract(ctx context.Context, contractID string) (*model.Contract, error)
	SignContract(ctx context.Context, contractID, signerName string, now time.Time) (*model.Contract, error)
}

// Handler реализует HTTP-обработчики API сервиса пекарни.
type Handler struct {
	service   Service
	logger    *zap.Logger
	ownerAuth *middleware.OwnerAuth
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, ownerAuth *middleware.OwnerAuth) *Handler {
	return &Handler{
		service:   s,
		logger:    logger,
		ownerAuth: ownerAuth,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError транслирует категорию ошибки в HTTP-код и машинный код причины.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "INTERNAL"

	switch {
	case errors.Is(err, repository.ErrSlotFull):
		code, msg = http.StatusConflict, "SLOT_FULL"
	case errors.Is(err, schedule.ErrClosedByLeadTime), errors.Is(err, schedule.ErrClosedByHours):
		code, msg = http.StatusUnprocessableEntity, "SLOT_CLOSED"
	case errors.Is(err, apperr.ErrValidation):
		code, msg = http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, apperr.ErrNotFound):
		code, msg = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperr.ErrConflict):
		code, msg = http.StatusConflict, "CONFLICT"
	case errors.Is(err, apperr.ErrExpired):
		code, msg = http.StatusGone, "EXPIRED"
	default:
		h.logger.Error("internal error", zap.Error(err))
	}

	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type timeSlotResponse struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Remaining int    `json:"remaining"`
}

type availabilityResponse struct {
	Slots        map[string][]timeSlotResponse `json:"slots"`
	LeadTimeDays int                           `json:"lead_time_days"`
	MinDate      string                        `json:"min_date"`
}

// GetAvailability возвращает сетку слотов за диапазон дат.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.Availability(r.Context(), model.OrderType(q.Get("order_type")), q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	slots := make(map[string][]timeSlotResponse, len(res.Slots))
	for date, day := range res.Slots {
		out := make([]timeSlotResponse, 0, len(day))
		for _, ts := range day {
			out = append(out, timeSlotResponse{Time: ts.Time, Available: ts.Available, Remaining: ts.Remaining})
		}
		slots[date] = out
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		Slots:        slots,
		LeadTimeDays: res.LeadTimeDays,
		MinDate:      res.MinDate,
	})
}

type reserveRequest struct {
	OrderType string `json:"order_type"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type reserveResponse struct {
	HoldID string `json:"hold_id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// ReserveSlot занимает место в слоте и возвращает идентификатор удержания.
func (h *Handler) ReserveSlot(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	hold, err := h.service.ReserveSlot(r.Context(), model.OrderType(req.OrderType), req.Date, req.Time)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reserveResponse{HoldID: hold.ID, Date: hold.Date, Time: hold.Time})
}

type couponRequest struct {
	Code      string `json:"code"`
	OrderType string `json:"order_type"`
	Subtotal  int64  `json:"subtotal"`
}

type couponResponse struct {
	OK       bool   `json:"ok"`
	Discount int64  `json:"discount_amount,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ValidateCoupon проверяет купон; отказ возвращается с машинным кодом причины.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	if req.Code == "" || !model.OrderType(req.OrderType).Valid() || req.Subtotal < 0 {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	discount, err := h.service.ValidateCoupon(r.Context(), req.Code, model.OrderType(req.OrderType), req.Subtotal)
	if err != nil {
		// Непригодный купон — нормальный ответ с причиной, а не HTTP-ошибка.
		writeJSON(w, http.StatusOK, couponResponse{OK: false, Reason: coupon.Reason(err)})
		return
	}

	writeJSON(w, http.StatusOK, couponResponse{OK: true, Discount: discount})
}

type createOrderRequest struct {
	OrderType     string             `json:"order_type"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	RequestedDate string             `json:"requested_date"`
	RequestedTime string             `json:"requested_time"`
	Delivery      bool               `json:"delivery"`
	Address       string             `json:"address"`
	CouponCode    string             `json:"coupon_code"`
	HoldID        string             `json:"hold_id"`
	Payload       model.OrderPayload `json:"payload"`
}

type orderResponse struct {
	ID            string             `json:"id"`
	OrderType     string             `json:"order_type"`
	Status        string             `json:"status"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	RequestedDate string             `json:"requested_date,omitempty"`
	RequestedTime string             `json:"requested_time,omitempty"`
	Delivery      bool               `json:"delivery"`
	Address       string             `json:"address,omitempty"`
	TotalAmount   int64              `json:"total_amount"`
	CouponCode    string             `json:"coupon_code,omitempty"`
	Payload       model.OrderPayload `json:"payload"`
	CreatedAt     string             `json:"created_at"`
}

func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		OrderType:     string(o.Type),
		Status:        string(o.Status),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		RequestedDate: o.RequestedDate,
		RequestedTime: o.RequestedTime,
		Delivery:      o.Delivery,
		Address:       o.Address,
		TotalAmount:   o.TotalCents,
		CouponCode:    o.CouponCode,
		Payload:       o.Payload,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
}

// CreateOrder принимает заявку клиента.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	o, err := h.service.CreateInquiry(r.Context(), service.CreateOrderInput{
		Type:          model.OrderType(req.OrderType),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		RequestedDate: req.RequestedDate,
		RequestedTime: req.RequestedTime,
		Delivery:      req.Delivery,
		Address:       req.Address,
		CouponCode:    req.CouponCode,
		HoldID:        req.HoldID,
		Payload:       req.Payload,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders возвращает заказы владельцу, опционально по статусу.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), model.OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type quoteResponse struct {
	ID             string           `json:"id"`
	Number         string           `json:"number"`
	OrderID        string           `json:"order_id"`
	Status         string           `json:"status"`
	Items          []model.LineItem `json:"items"`
	DepositPercent int              `json:"deposit_percentage"`
	Subtotal       int64            `json:"subtotal"`
	Deposit        int64            `json:"deposit_amount"`
	Balance        int64            `json:"balance_amount"`
	ValidUntil     string           `json:"valid_until"`
}

func toQuoteResponse(q *model.Quote) quoteResponse {
	items := q.Items
	if items == nil {
		items = []model.LineItem{}
	}
	return quoteResponse{
		ID:             q.ID,
		Number:         q.Number,
		OrderID:        q.OrderID,
		Status:         string(q.Status),
		Items:          items,
		DepositPercent: q.DepositPercent,
		Subtotal:       q.SubtotalCents,
		Deposit:        q.DepositCents,
		Balance:        q.BalanceCents,
		ValidUntil:     q.ValidUntil.Format(time.RFC3339),
	}
}

type createQuoteRequest struct {
	OrderID        string `json:"order_id"`
	DepositPercent int    `json:"deposit_percentage"`
	ValidDays      int    `json:"valid_days"`
}

// CreateQuote создаёт предложение по заказу.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	q, err := h.service.CreateQuote(r.Context(), req.OrderID, req.DepositPercent, req.ValidDays)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuoteResponse(q))
}

// GetQuote возвращает предложение с позициями.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.GetQuote(r.Context(), urlParam(r, "quoteID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

type setItemsRequest struct {
	Items []model.LineItem `json:"items"`
}

// SetQuoteItems заменяет набор позиций предложения целиком.
func (h *Handler) SetQuoteItems(w http.ResponseWriter, r *http.Request) {
	var req setItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	q, err := h.service.SetQuoteItems(r.Context(), urlParam(r, "quoteID"), req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

// SendQuote отправляет предложение клиенту.
func (h *Handler) SendQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.SendQuote(r.Context(), urlParam(r, "quoteID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

// ApproveQuote фиксирует согласие клиента с предложением.
func (h *Handler) ApproveQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.ApproveQuote(r.Context(), urlParam(r, "quoteID"), time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

type confirmPaymentRequest struct {
	OrderID string `json:"order_id"`
	QuoteID string `json:"quote_id"`
	Amount  int64  `json:"amount"`
}

// ConfirmPayment — точка входа платёжной системы: предоплата получена.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	o, err := h.service.ConfirmPayment(r.Context(), req.OrderID, req.QuoteID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type contractResponse struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	Body       string `json:"body"`
	ValidUntil string `json:"valid_until"`
	SignedAt   string `json:"signed_at,omitempty"`
	SignerName string `json:"signer_name,omitempty"`
}

func toContractResponse(c *model.Contract) contractResponse {
	resp := contractResponse{
		ID:         c.ID,
		Number:     c.Number,
		OrderID:    c.OrderID,
		Status:     string(c.Status),
		Body:       c.Body,
		ValidUntil: c.ValidUntil.Format(time.RFC3339),
		SignerName: c.SignerName,
	}
	if c.SignedAt != nil {
		resp.SignedAt = c.SignedAt.Format(time.RFC3339)
	}
	return resp
}

type createContractRequest struct {
	OrderID   string `json:"order_id"`
	Body      string `json:"body"`
	ValidDays int    `json:"valid_days"`
}

// CreateContract создаёт договор по свадебному заказу.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req createContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	c, err := h.service.CreateContract(r.Context(), req.OrderID, req.Body, req.ValidDays)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractResponse(c))
}

// GetContract возвращает договор.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetContract(r.Context(), urlParam(r, "contractID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractResponse(c))
}

// SendContract отправляет договор клиенту.
func (h *Handler) SendContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.SendContract(r.Context(), urlParam(r, "contractID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractResponse(c))
}

type signContractRequest struct {
	SignerName string `json:"signer_name"`
}

// SignContract фиксирует подписание договора клиентом.
func (h *Handler) SignContract(w http.ResponseWriter, r *http.Request) {
	var req signContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.ErrValidation)
		return
	}

	c, err := h.service.SignContract(r.Context(), urlParam(r, "contractID"), req.SignerName, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractResponse(c))
}

// CancelOrder отменяет заказ и освобождает его слот.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.CancelOrder(r.Context(), urlParam(r, "orderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CompleteOrder фиксирует выдачу или доставку заказа.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.CompleteOrder(r.Context(), urlParam(r, "orderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// GetOrder возвращает заказ владельцу.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), urlParam(r, "orderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
