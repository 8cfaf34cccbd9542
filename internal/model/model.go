// Package model содержит доменные сущности сервиса пекарни.
package model

import "time"

// OrderType описывает тип заказа, определяющий форму заявки и правила бронирования.
type OrderType string

const (
	OrderTypeCookies      OrderType = "cookies"
	OrderTypeCookiesLarge OrderType = "cookies_large"
	OrderTypeCake         OrderType = "cake"
	OrderTypeWedding      OrderType = "wedding"
	OrderTypeTasting      OrderType = "tasting"
)

// Valid сообщает, известен ли системе данный тип заказа.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeCookies, OrderTypeCookiesLarge, OrderTypeCake, OrderTypeWedding, OrderTypeTasting:
		return true
	}
	return false
}

// OrderStatus описывает статус заказа в его жизненном цикле.
type OrderStatus string

const (
	OrderStatusInquiry        OrderStatus = "inquiry"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusDepositPaid    OrderStatus = "deposit_paid"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// QuoteStatus описывает статус коммерческого предложения.
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusApproved  QuoteStatus = "approved"
	QuoteStatusExpired   QuoteStatus = "expired"
	QuoteStatusConverted QuoteStatus = "converted"
)

// ContractStatus описывает статус свадебного договора.
type ContractStatus string

const (
	ContractStatusDraft   ContractStatus = "draft"
	ContractStatusSent    ContractStatus = "sent"
	ContractStatusSigned  ContractStatus = "signed"
	ContractStatusExpired ContractStatus = "expired"
)

// FlavorQty содержит вкус печенья и количество штук.
type FlavorQty struct {
	Flavor   string `json:"flavor"`
	Quantity int    `json:"quantity"`
}

// CookiesDetails содержит данные заявки на печенье.
type CookiesDetails struct {
	Dozens  int         `json:"dozens"`
	Flavors []FlavorQty `json:"flavors"`
}

// CakeDetails содержит данные заявки на торт.
type CakeDetails struct {
	Size        string `json:"size"`
	Flavor      string `json:"flavor"`
	Filling     string `json:"filling,omitempty"`
	Inscription string `json:"inscription,omitempty"`
}

// WeddingDetails содержит данные свадебной заявки.
type WeddingDetails struct {
	EventDate  string `json:"event_date"`
	Venue      string `json:"venue,omitempty"`
	GuestCount int    `json:"guest_count"`
	Notes      string `json:"notes,omitempty"`
}

// TastingDetails содержит данные заявки на дегустацию.
type TastingDetails struct {
	GuestCount  int    `json:"guest_count"`
	Preferences string `json:"preferences,omitempty"`
}

// OrderPayload представляет вариативную часть заявки: дискриминант Type
// и ровно одно заполненное поле, соответствующее типу заказа.
// Типы cookies и cookies_large используют одну форму Cookies.
type OrderPayload struct {
	Type    OrderType       `json:"type"`
	Cookies *CookiesDetails `json:"cookies,omitempty"`
	Cake    *CakeDetails    `json:"cake,omitempty"`
	Wedding *WeddingDetails `json:"wedding,omitempty"`
	Tasting *TastingDetails `json:"tasting,omitempty"`
}

// Consistent проверяет, что заполнен ровно тот вариант, который назван дискриминантом.
func (p OrderPayload) Consistent() bool {
	filled := 0
	if p.Cookies != nil {
		filled++
	}
	if p.Cake != nil {
		filled++
	}
	if p.Wedding != nil {
		filled++
	}
	if p.Tasting != nil {
		filled++
	}
	if filled != 1 {
		return false
	}

	switch p.Type {
	case OrderTypeCookies, OrderTypeCookiesLarge:
		return p.Cookies != nil
	case OrderTypeCake:
		return p.Cake != nil
	case OrderTypeWedding:
		return p.Wedding != nil
	case OrderTypeTasting:
		return p.Tasting != nil
	}
	return false
}

// Order представляет заказ клиента от заявки до выполнения.
type Order struct {
	ID            string
	Type          OrderType
	Status        OrderStatus
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	RequestedDate string
	RequestedTime string
	Delivery      bool
	Address       string
	TotalCents    int64
	CouponCode    string
	HoldID        string
	Payload       OrderPayload
	CreatedAt     time.Time
}

// Slot представляет ячейку бронирования с конечной вместимостью.
type Slot struct {
	OrderType OrderType
	Date      string
	Time      string
	Capacity  int
	Reserved  int
}

// SlotHold представляет удержание места в слоте до подтверждения оплаты.
type SlotHold struct {
	ID        string
	OrderType OrderType
	Date      string
	Time      string
	Confirmed bool
	CreatedAt time.Time
}

// DiscountType описывает вид скидки купона.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon представляет скидочный купон.
// OrderTypes == nil означает применимость ко всем типам заказов.
type Coupon struct {
	Code          string
	Active        bool
	DiscountType  DiscountType
	DiscountValue int64
	MinOrderCents int64
	MaxUses       *int
	CurrentUses   int
	ValidFrom     time.Time
	ValidUntil    time.Time
	OrderTypes    []OrderType
}

// AppliesTo сообщает, действует ли купон для указанного типа заказа.
func (c *Coupon) AppliesTo(t OrderType) bool {
	if len(c.OrderTypes) == 0 {
		return true
	}
	for _, ot := range c.OrderTypes {
		if ot == t {
			return true
		}
	}
	return false
}

// LineItem представляет позицию коммерческого предложения. Цены в центах.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitCents   int64  `json:"unit_price"`
	TotalCents  int64  `json:"total_price"`
}

// Quote представляет коммерческое предложение по заказу.
type Quote struct {
	ID             string
	Number         string
	OrderID        string
	Status         QuoteStatus
	Items          []LineItem
	DepositPercent int
	SubtotalCents  int64
	DepositCents   int64
	BalanceCents   int64
	ValidUntil     time.Time
	CreatedAt      time.Time
}

// Contract представляет свадебный договор. Жизненный цикл не зависит от цен.
type Contract struct {
	ID         string
	Number     string
	OrderID    string
	Status     ContractStatus
	Body       string
	ValidUntil time.Time
	SignedAt   *time.Time
	SignerName string
	CreatedAt  time.Time
}
