package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/model"
	"github.com/mmeshcher/bakeshop-system/internal/schedule"
)

// stubRepo — репозиторий в памяти для тестов сервиса.
type stubRepo struct {
	orders    map[string]*model.Order
	quotes    map[string]*model.Quote
	contracts map[string]*model.Contract
	holds     map[string]*model.SlotHold
	coupons   map[string]*model.Coupon

	reservedCapacity int
	consumedCoupon   string
	cancelledOrder   string
	releasedHolds    []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orders:    make(map[string]*model.Order),
		quotes:    make(map[string]*model.Quote),
		contracts: make(map[string]*model.Contract),
		holds:     make(map[string]*model.SlotHold),
		coupons:   make(map[string]*model.Coupon),
	}
}

func (r *stubRepo) Close() error { return nil }

func (r *stubRepo) CreateOrder(_ context.Context, o *model.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *stubRepo) GetOrder(_ context.Context, id string) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (r *stubRepo) GetOrderByHold(_ context.Context, holdID string) (*model.Order, error) {
	for _, o := range r.orders {
		if o.HoldID == holdID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: no order for hold %s", apperr.ErrNotFound, holdID)
}

func (r *stubRepo) ListOrders(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	o.Status = status
	return nil
}

func (r *stubRepo) CancelOrder(_ context.Context, orderID string) error {
	o, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %s", apperr.ErrNotFound, orderID)
	}
	o.Status = model.OrderStatusCancelled
	r.cancelledOrder = orderID
	if o.HoldID != "" {
		r.releasedHolds = append(r.releasedHolds, o.HoldID)
		delete(r.holds, o.HoldID)
		o.HoldID = ""
	}
	return nil
}

func (r *stubRepo) ReservedCounts(_ context.Context, _ model.OrderType, _, _ string) (map[string]map[string]int, error) {
	return nil, nil
}

func (r *stubRepo) ReserveSlot(_ context.Context, hold model.SlotHold, capacity int) error {
	r.reservedCapacity = capacity
	cp := hold
	r.holds[hold.ID] = &cp
	return nil
}

func (r *stubRepo) GetHold(_ context.Context, id string) (*model.SlotHold, error) {
	h, ok := r.holds[id]
	if !ok {
		return nil, fmt.Errorf("%w: hold %s", apperr.ErrNotFound, id)
	}
	cp := *h
	return &cp, nil
}

func (r *stubRepo) ReleaseHold(_ context.Context, holdID string) error {
	r.releasedHolds = append(r.releasedHolds, holdID)
	delete(r.holds, holdID)
	return nil
}

func (r *stubRepo) StaleHoldIDs(_ context.Context, _ time.Time) ([]string, error) {
	return nil, nil
}

func (r *stubRepo) GetCoupon(_ context.Context, code string) (*model.Coupon, error) {
	c, ok := r.coupons[code]
	if !ok {
		return nil, fmt.Errorf("%w: coupon %s", apperr.ErrNotFound, code)
	}
	return c, nil
}

func (r *stubRepo) CreateQuote(_ context.Context, q *model.Quote) error {
	r.quotes[q.ID] = q
	return nil
}

func (r *stubRepo) GetQuote(_ context.Context, id string) (*model.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quote %s", apperr.ErrNotFound, id)
	}
	cp := *q
	return &cp, nil
}

func (r *stubRepo) ReplaceQuoteItems(_ context.Context, quoteID string, items []model.LineItem, subtotal, deposit, balance int64) error {
	q, ok := r.quotes[quoteID]
	if !ok {
		return fmt.Errorf("%w: quote %s", apperr.ErrNotFound, quoteID)
	}
	q.Items = items
	q.SubtotalCents = subtotal
	q.DepositCents = deposit
	q.BalanceCents = balance
	return nil
}

func (r *stubRepo) UpdateQuoteStatus(_ context.Context, id string, status model.QuoteStatus) error {
	q, ok := r.quotes[id]
	if !ok {
		return fmt.Errorf("%w: quote %s", apperr.ErrNotFound, id)
	}
	q.Status = status
	return nil
}

func (r *stubRepo) ExpireSentQuotes(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *stubRepo) ConfirmDeposit(_ context.Context, orderID, quoteID string, orderStatus model.OrderStatus, couponCode, holdID string) error {
	q, ok := r.quotes[quoteID]
	if !ok {
		return fmt.Errorf("%w: quote %s", apperr.ErrNotFound, quoteID)
	}
	q.Status = model.QuoteStatusConverted

	o, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %s", apperr.ErrNotFound, orderID)
	}
	o.Status = orderStatus

	r.consumedCoupon = couponCode
	if holdID != "" {
		if h, ok := r.holds[holdID]; ok {
			h.Confirmed = true
		}
	}
	return nil
}

func (r *stubRepo) CreateContract(_ context.Context, c *model.Contract) error {
	r.contracts[c.ID] = c
	return nil
}

func (r *stubRepo) GetContract(_ context.Context, id string) (*model.Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: contract %s", apperr.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (r *stubRepo) GetContractByOrder(_ context.Context, orderID string) (*model.Contract, error) {
	for _, c := range r.contracts {
		if c.OrderID == orderID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: no contract for order %s", apperr.ErrNotFound, orderID)
}

func (r *stubRepo) UpdateContractStatus(_ context.Context, id string, status model.ContractStatus) error {
	c, ok := r.contracts[id]
	if !ok {
		return fmt.Errorf("%w: contract %s", apperr.ErrNotFound, id)
	}
	c.Status = status
	return nil
}

func (r *stubRepo) SignContract(_ context.Context, id, signerName string, signedAt time.Time) error {
	c, ok := r.contracts[id]
	if !ok {
		return fmt.Errorf("%w: contract %s", apperr.ErrNotFound, id)
	}
	c.Status = model.ContractStatusSigned
	c.SignerName = signerName
	c.SignedAt = &signedAt
	return nil
}

func (r *stubRepo) ExpireSentContracts(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newTestService(repo *stubRepo) *Service {
	return NewService(repo, nil, schedule.Default(), nil, time.Hour, time.Minute)
}

func cookiesPayload() model.OrderPayload {
	return model.OrderPayload{
		Type: model.OrderTypeCookies,
		Cookies: &model.CookiesDetails{
			Dozens: 2,
			Flavors: []model.FlavorQty{
				{Flavor: "Chocolate Chip", Quantity: 18},
				{Flavor: DoubleWeightedFlavor, Quantity: 3},
			},
		},
	}
}

func cookiesInput() CreateOrderInput {
	return CreateOrderInput{
		Type:          model.OrderTypeCookies,
		CustomerName:  "Jamie Baker",
		CustomerEmail: "jamie@example.com",
		Payload:       cookiesPayload(),
	}
}

func TestCreateInquiryCookies(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	o, err := svc.CreateInquiry(context.Background(), cookiesInput())
	if err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	if o.Status != model.OrderStatusInquiry {
		t.Fatalf("status = %s", o.Status)
	}
	if o.TotalCents != 8400 {
		t.Fatalf("total = %d, want 8400", o.TotalCents)
	}
	if _, ok := repo.orders[o.ID]; !ok {
		t.Fatalf("order not persisted")
	}
}

func TestCreateInquiryAppliesCoupon(t *testing.T) {
	repo := newStubRepo()
	repo.coupons["sweet10"] = &model.Coupon{
		Code:          "SWEET10",
		Active:        true,
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		ValidFrom:     time.Now().AddDate(0, 0, -1),
		ValidUntil:    time.Now().AddDate(0, 0, 1),
	}
	svc := newTestService(repo)

	in := cookiesInput()
	in.CouponCode = "sweet10"

	o, err := svc.CreateInquiry(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	if o.TotalCents != 7560 {
		t.Fatalf("total = %d, want 7560", o.TotalCents)
	}
	if repo.consumedCoupon != "" {
		t.Fatalf("coupon consumed at inquiry stage")
	}
}

func TestCreateInquiryAttachesHold(t *testing.T) {
	repo := newStubRepo()
	repo.holds["h1"] = &model.SlotHold{
		ID: "h1", OrderType: model.OrderTypeCookies, Date: "2026-03-10", Time: "11:00",
	}
	svc := newTestService(repo)

	in := cookiesInput()
	in.HoldID = "h1"

	o, err := svc.CreateInquiry(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	if o.RequestedDate != "2026-03-10" || o.RequestedTime != "11:00" {
		t.Fatalf("hold slot not copied: %s %s", o.RequestedDate, o.RequestedTime)
	}
}

func TestCreateInquiryRejectsReusedHold(t *testing.T) {
	repo := newStubRepo()
	repo.holds["h1"] = &model.SlotHold{
		ID: "h1", OrderType: model.OrderTypeCookies, Date: "2026-03-10", Time: "11:00",
	}
	svc := newTestService(repo)

	in := cookiesInput()
	in.HoldID = "h1"
	if _, err := svc.CreateInquiry(context.Background(), in); err != nil {
		t.Fatalf("first inquiry: %v", err)
	}

	// Удержание ещё не подтверждено оплатой, но уже привязано к заявке.
	if _, err := svc.CreateInquiry(context.Background(), in); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for reused hold, got %v", err)
	}
}

func TestCreateInquiryRejections(t *testing.T) {
	repo := newStubRepo()
	repo.holds["cake-hold"] = &model.SlotHold{ID: "cake-hold", OrderType: model.OrderTypeCake}
	svc := newTestService(repo)

	tests := []struct {
		name   string
		mutate func(in *CreateOrderInput)
		want   error
	}{
		{"bad email", func(in *CreateOrderInput) { in.CustomerEmail = "nope" }, apperr.ErrValidation},
		{"no name", func(in *CreateOrderInput) { in.CustomerName = "" }, apperr.ErrValidation},
		{"delivery without address", func(in *CreateOrderInput) { in.Delivery = true }, apperr.ErrValidation},
		{"payload mismatch", func(in *CreateOrderInput) { in.Payload.Type = model.OrderTypeCake }, apperr.ErrValidation},
		{"incomplete cart", func(in *CreateOrderInput) {
			in.Payload.Cookies.Flavors = in.Payload.Cookies.Flavors[:1]
		}, apperr.ErrValidation},
		{"foreign hold", func(in *CreateOrderInput) { in.HoldID = "cake-hold" }, apperr.ErrValidation},
		{"unknown coupon", func(in *CreateOrderInput) { in.CouponCode = "nope" }, apperr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cookiesInput()
			tt.mutate(&in)
			if _, err := svc.CreateInquiry(context.Background(), in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReserveSlot(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	date := time.Now().AddDate(0, 0, 40)
	for date.Weekday() != time.Wednesday {
		date = date.AddDate(0, 0, 1)
	}

	hold, err := svc.ReserveSlot(context.Background(), model.OrderTypeWedding, date.Format(schedule.DateLayout), "11:00")
	if err != nil {
		t.Fatalf("ReserveSlot: %v", err)
	}
	if hold.ID == "" {
		t.Fatalf("empty hold id")
	}
	if repo.reservedCapacity != 1 {
		t.Fatalf("capacity = %d, want 1 for wedding", repo.reservedCapacity)
	}
}

func TestReserveSlotInsideLeadTime(t *testing.T) {
	svc := newTestService(newStubRepo())

	tomorrow := time.Now().AddDate(0, 0, 1).Format(schedule.DateLayout)
	_, err := svc.ReserveSlot(context.Background(), model.OrderTypeWedding, tomorrow, "11:00")
	if !errors.Is(err, schedule.ErrClosedByLeadTime) {
		t.Fatalf("expected lead time error, got %v", err)
	}
}

func TestSendQuoteAdvancesOrder(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{
		ID: "o1", Type: model.OrderTypeCake, Status: model.OrderStatusInquiry,
		CustomerEmail: "jamie@example.com",
	}
	repo.quotes["q1"] = &model.Quote{
		ID: "q1", OrderID: "o1", Status: model.QuoteStatusDraft,
		Items:      []model.LineItem{{Description: "Cake", Quantity: 1, UnitCents: 12000, TotalCents: 12000}},
		ValidUntil: time.Now().AddDate(0, 0, 7),
	}
	svc := newTestService(repo)

	q, err := svc.SendQuote(context.Background(), "q1")
	if err != nil {
		t.Fatalf("SendQuote: %v", err)
	}
	if q.Status != model.QuoteStatusSent {
		t.Fatalf("quote status = %s", q.Status)
	}
	if repo.orders["o1"].Status != model.OrderStatusPendingPayment {
		t.Fatalf("order status = %s", repo.orders["o1"].Status)
	}
}

func TestSendQuoteWithoutItems(t *testing.T) {
	repo := newStubRepo()
	repo.quotes["q1"] = &model.Quote{ID: "q1", OrderID: "o1", Status: model.QuoteStatusDraft}
	svc := newTestService(repo)

	if _, err := svc.SendQuote(context.Background(), "q1"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApproveQuoteExpired(t *testing.T) {
	repo := newStubRepo()
	repo.quotes["q1"] = &model.Quote{
		ID: "q1", Status: model.QuoteStatusSent,
		ValidUntil: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	svc := newTestService(repo)

	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.ApproveQuote(context.Background(), "q1", now)
	if !errors.Is(err, apperr.ErrExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
	if repo.quotes["q1"].Status != model.QuoteStatusSent {
		t.Fatalf("status changed on expired approval: %s", repo.quotes["q1"].Status)
	}
}

func TestConfirmPayment(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{
		ID: "o1", Type: model.OrderTypeCake, Status: model.OrderStatusPendingPayment,
		CouponCode: "SWEET10", HoldID: "h1",
	}
	repo.holds["h1"] = &model.SlotHold{ID: "h1", OrderType: model.OrderTypeCake}
	repo.quotes["q1"] = &model.Quote{
		ID: "q1", OrderID: "o1", Status: model.QuoteStatusApproved, DepositCents: 7500,
	}
	svc := newTestService(repo)

	o, err := svc.ConfirmPayment(context.Background(), "o1", "q1", 7500)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	// Торт пропускает договорный этап.
	if o.Status != model.OrderStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", o.Status)
	}
	if repo.quotes["q1"].Status != model.QuoteStatusConverted {
		t.Fatalf("quote status = %s", repo.quotes["q1"].Status)
	}
	if repo.consumedCoupon != "SWEET10" {
		t.Fatalf("coupon not consumed: %q", repo.consumedCoupon)
	}
	if !repo.holds["h1"].Confirmed {
		t.Fatalf("hold not confirmed")
	}
}

func TestConfirmPaymentAmountMismatch(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeCake, Status: model.OrderStatusPendingPayment}
	repo.quotes["q1"] = &model.Quote{ID: "q1", OrderID: "o1", Status: model.QuoteStatusApproved, DepositCents: 7500}
	svc := newTestService(repo)

	if _, err := svc.ConfirmPayment(context.Background(), "o1", "q1", 7000); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.orders["o1"].Status != model.OrderStatusPendingPayment {
		t.Fatalf("order moved on mismatched amount: %s", repo.orders["o1"].Status)
	}
}

func TestConfirmPaymentForeignQuote(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeCake, Status: model.OrderStatusPendingPayment}
	repo.quotes["q1"] = &model.Quote{ID: "q1", OrderID: "other", Status: model.QuoteStatusApproved, DepositCents: 7500}
	svc := newTestService(repo)

	if _, err := svc.ConfirmPayment(context.Background(), "o1", "q1", 7500); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConfirmPaymentWeddingWaitsForContract(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeWedding, Status: model.OrderStatusPendingPayment}
	repo.quotes["q1"] = &model.Quote{ID: "q1", OrderID: "o1", Status: model.QuoteStatusApproved, DepositCents: 50000}
	svc := newTestService(repo)

	o, err := svc.ConfirmPayment(context.Background(), "o1", "q1", 50000)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if o.Status != model.OrderStatusDepositPaid {
		t.Fatalf("status = %s, want deposit_paid", o.Status)
	}
}

func TestConfirmPaymentWeddingWithSignedContract(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeWedding, Status: model.OrderStatusPendingPayment}
	repo.quotes["q1"] = &model.Quote{ID: "q1", OrderID: "o1", Status: model.QuoteStatusApproved, DepositCents: 50000}
	repo.contracts["c1"] = &model.Contract{ID: "c1", OrderID: "o1", Status: model.ContractStatusSigned}
	svc := newTestService(repo)

	o, err := svc.ConfirmPayment(context.Background(), "o1", "q1", 50000)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if o.Status != model.OrderStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", o.Status)
	}
}

func TestCreateContractWeddingOnly(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeCake, Status: model.OrderStatusInquiry}
	svc := newTestService(repo)

	if _, err := svc.CreateContract(context.Background(), "o1", "terms", 14); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateContractSingleActive(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeWedding, Status: model.OrderStatusInquiry}
	svc := newTestService(repo)

	c, err := svc.CreateContract(context.Background(), "o1", "terms", 14)
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if c.Status != model.ContractStatusDraft {
		t.Fatalf("status = %s", c.Status)
	}

	if _, err := svc.CreateContract(context.Background(), "o1", "terms", 14); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for second contract, got %v", err)
	}
}

func TestSignContractConfirmsPaidOrder(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeWedding, Status: model.OrderStatusDepositPaid}
	repo.contracts["c1"] = &model.Contract{
		ID: "c1", OrderID: "o1", Status: model.ContractStatusSent,
		ValidUntil: time.Now().AddDate(0, 0, 7),
	}
	svc := newTestService(repo)

	c, err := svc.SignContract(context.Background(), "c1", "Jamie Baker", time.Now())
	if err != nil {
		t.Fatalf("SignContract: %v", err)
	}
	if c.Status != model.ContractStatusSigned || c.SignedAt == nil {
		t.Fatalf("contract not signed: %+v", c)
	}
	if repo.orders["o1"].Status != model.OrderStatusConfirmed {
		t.Fatalf("order status = %s, want confirmed", repo.orders["o1"].Status)
	}
}

func TestSignContractExpired(t *testing.T) {
	repo := newStubRepo()
	repo.contracts["c1"] = &model.Contract{
		ID: "c1", OrderID: "o1", Status: model.ContractStatusSent,
		ValidUntil: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	svc := newTestService(repo)

	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	if _, err := svc.SignContract(context.Background(), "c1", "Jamie Baker", now); !errors.Is(err, apperr.ErrExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestCancelOrderReleasesHold(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeCookies, Status: model.OrderStatusConfirmed, HoldID: "h1"}
	repo.holds["h1"] = &model.SlotHold{ID: "h1", OrderType: model.OrderTypeCookies}
	svc := newTestService(repo)

	o, err := svc.CancelOrder(context.Background(), "o1")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if o.Status != model.OrderStatusCancelled {
		t.Fatalf("status = %s", o.Status)
	}
	if len(repo.releasedHolds) != 1 || repo.releasedHolds[0] != "h1" {
		t.Fatalf("hold not released: %v", repo.releasedHolds)
	}
}

func TestCancelCompletedOrder(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeCookies, Status: model.OrderStatusCompleted}
	svc := newTestService(repo)

	if _, err := svc.CancelOrder(context.Background(), "o1"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if repo.cancelledOrder != "" {
		t.Fatalf("repository cancel called for completed order")
	}
}

func TestCompleteOrder(t *testing.T) {
	repo := newStubRepo()
	repo.orders["o1"] = &model.Order{ID: "o1", Type: model.OrderTypeCake, Status: model.OrderStatusConfirmed}
	svc := newTestService(repo)

	o, err := svc.CompleteOrder(context.Background(), "o1")
	if err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}
	if o.Status != model.OrderStatusCompleted {
		t.Fatalf("status = %s", o.Status)
	}

	if _, err := svc.CompleteOrder(context.Background(), "o1"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on double completion, got %v", err)
	}
}
