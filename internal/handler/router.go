package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/bakeshop-system/internal/middleware"
)

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// SetupRouter настраивает HTTP-маршруты и middleware сервиса пекарни.
// Клиентские маршруты открыты; управление предложениями, договорами и
// заказами доступно только владельцу по подписанной сессии.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/availability", h.GetAvailability)
		r.Post("/slots/reserve", h.ReserveSlot)
		r.Post("/coupons/validate", h.ValidateCoupon)
		r.Post("/orders", h.CreateOrder)

		// Клиент действует по ссылке из письма: согласие и подпись без сессии.
		r.Post("/quotes/{quoteID}/approve", h.ApproveQuote)
		r.Post("/contracts/{contractID}/sign", h.SignContract)

		// Обратный вызов платёжной системы.
		r.Post("/payments/confirm", h.ConfirmPayment)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.ownerAuth.Middleware)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Post("/orders/{orderID}/cancel", h.CancelOrder)
			r.Post("/orders/{orderID}/complete", h.CompleteOrder)

			r.Post("/quotes", h.CreateQuote)
			r.Get("/quotes/{quoteID}", h.GetQuote)
			r.Put("/quotes/{quoteID}/items", h.SetQuoteItems)
			r.Post("/quotes/{quoteID}/send", h.SendQuote)

			r.Post("/contracts", h.CreateContract)
			r.Get("/contracts/{contractID}", h.GetContract)
			r.Post("/contracts/{contractID}/send", h.SendContract)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
