package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/storefront/internal/checkout/app"
	"github.com/dejobratic/storefront/internal/checkout/app/commands"
	"github.com/dejobratic/storefront/internal/checkout/app/queries"
	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

// Handler exposes the cart, checkout, payment and order endpoints.
type Handler struct {
	service  *app.Service
	sessions *SessionMiddleware
	auth     *Authenticator
	limiter  *RateLimiter
	logger   *slog.Logger
}

func NewHandler(service *app.Service, sessions *SessionMiddleware, auth *Authenticator, limiter *RateLimiter, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		auth:     auth,
		limiter:  limiter,
		logger:   logger,
	}
}

// Register binds the storefront routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	browse := func(fn http.HandlerFunc) http.Handler { return h.sessions.Wrap(fn) }
	mutate := func(fn http.HandlerFunc) http.Handler { return h.sessions.Wrap(h.limiter.Wrap(fn)) }
	authed := func(fn http.HandlerFunc) http.Handler { return h.sessions.Wrap(h.auth.Require(fn)) }

	mux.Handle("GET /v1/cart", browse(h.viewCart))
	mux.Handle("POST /v1/cart/items/{productID}", mutate(h.addToCart))
	mux.Handle("POST /v1/cart/items/{productID}/quantity", mutate(h.updateQuantity))
	mux.Handle("DELETE /v1/cart/items/{productID}", mutate(h.removeFromCart))
	mux.Handle("POST /v1/cart/clear", mutate(h.clearCart))
	mux.Handle("POST /v1/cart/coupon", mutate(h.applyCoupon))
	mux.Handle("DELETE /v1/cart/coupon", mutate(h.removeCoupon))

	mux.Handle("GET /v1/checkout", authed(h.checkoutSummary))
	mux.Handle("POST /v1/checkout/place-order", authed(h.placeOrder))
	mux.Handle("POST /v1/payments/callback", authed(h.paymentCallback))
	mux.HandleFunc("POST /v1/payments/webhook", h.paymentWebhook)

	mux.Handle("GET /v1/orders", authed(h.listOrders))
	mux.Handle("GET /v1/orders/{id}", authed(h.getOrder))
	mux.Handle("PATCH /v1/orders/{id}/status", authed(h.updateOrderStatus))

	mux.Handle("GET /v1/wishlist", authed(h.viewWishlist))
	mux.Handle("POST /v1/wishlist/items/{productID}", authed(h.addToWishlist))
	mux.Handle("DELETE /v1/wishlist/items/{productID}", authed(h.removeFromWishlist))
	mux.Handle("POST /v1/wishlist/clear", authed(h.clearWishlist))
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Cart(r.Context(), sessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"cart": view})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, "productID")
	if !ok {
		return
	}
	fields, err := readFields(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	quantity, err := intField(fields, "quantity", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	view, err := h.service.AddToCart(r.Context(), sessionID(r.Context()), productID, quantity)
	h.respondCart(w, r, view, err, "product added to cart")
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, "productID")
	if !ok {
		return
	}
	fields, err := readFields(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	quantity, err := intField(fields, "quantity", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	view, err := h.service.UpdateCartQuantity(r.Context(), sessionID(r.Context()), productID, quantity, fields.Get("operation"))
	h.respondCart(w, r, view, err, "cart updated")
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, "productID")
	if !ok {
		return
	}
	view, err := h.service.RemoveFromCart(r.Context(), sessionID(r.Context()), productID)
	h.respondCart(w, r, view, err, "product removed from cart")
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ClearCart(r.Context(), sessionID(r.Context()))
	h.respondCart(w, r, view, err, "cart cleared")
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	applied, err := h.service.ApplyCoupon(r.Context(), sessionID(r.Context()), fields.Get("coupon_code"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message":          "coupon applied",
		"coupon_code":      applied.Code,
		"discount_percent": applied.DiscountPercent,
		"discount_amount":  applied.DiscountAmount,
		"total_amount":     applied.Total,
	})
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveCoupon(r.Context(), sessionID(r.Context()))
	h.respondCart(w, r, view, err, "coupon removed")
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, view *commands.CartView, err error, message string) {
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message":    message,
		"cart":       view,
		"item_count": view.ItemCount,
	})
}

func (h *Handler) checkoutSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.CheckoutSummary(r.Context(), sessionID(r.Context()), customerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"cart":      summary.Cart,
		"addresses": summary.Addresses,
	})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customer := customerFrom(ctx)

	idemKey := ""
	if raw := strings.TrimSpace(r.Header.Get("Idempotency-Key")); raw != "" {
		idemKey = fmt.Sprintf("%d:%s", customer.ID, raw)

		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			writeServiceError(w, r, h.logger, fmt.Errorf("load idempotent response: %w", err))
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	fields, err := readFields(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	billing, err := intField(fields, "billing_address_id", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	shipping, err := intField(fields, "shipping_address_id", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.service.PlaceOrder(ctx, commands.PlaceOrderCommand{
		SessionID:         sessionID(ctx),
		Customer:          customer,
		BillingAddressID:  int64(billing),
		ShippingAddressID: int64(shipping),
		PaymentMethod:     fields.Get("payment_method"),
		ShippingMethod:    fields.Get("shipping_method"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	response := map[string]any{"status": "success"}
	orderID := ""
	if result.Order != nil {
		status = http.StatusCreated
		response["message"] = "order placed"
		response["order"] = result.Order
		orderID = strconv.FormatInt(result.Order.ID, 10)
	} else {
		response["message"] = "complete the payment to place your order"
		response["payment"] = result.Payment
	}

	body, err := json.Marshal(response)
	if err != nil {
		writeServiceError(w, r, h.logger, fmt.Errorf("encode place order response: %w", err))
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{StatusCode: status, Body: body, OrderID: orderID}
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			h.logger.ErrorContext(ctx, "failed to store idempotent response", "error", err, "customer_id", customer.ID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	order, err := h.service.ConfirmPayment(r.Context(), commands.ConfirmPaymentCommand{
		SessionID:      sessionID(r.Context()),
		Customer:       customerFrom(r.Context()),
		GatewayOrderID: fields.Get("razorpay_order_id"),
		PaymentID:      fields.Get("razorpay_payment_id"),
		Signature:      fields.Get("razorpay_signature"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "payment verified",
		"order":   order,
	})
}

func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable webhook body")
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(webhookSignatureHeader))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"event":  result.Event,
		"result": result.Status,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), queries.ListOrdersQuery{
		Customer:       customerFrom(r.Context()),
		TrackingNumber: params.Get("tracking_number"),
		Status:         params.Get("status"),
		DateFrom:       params.Get("date_from"),
		DateTo:         params.Get("date_to"),
		Page:           page,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"orders": orders,
		"page":   page,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.service.GetOrder(r.Context(), customerFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"order":     detail.Order,
		"sub_total": detail.SubTotal,
		"discount":  detail.Discount,
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	fields, err := readFields(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), customerFrom(r.Context()), id, fields.Get("status"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

// pageParam reads the optional ?page= value, writing a 400 when it is not a
// positive integer.
func pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return 0, false
	}
	return page, true
}

func intField(fields map[string][]string, name string, fallback int) (int, error) {
	values := fields[name]
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil {
		return 0, domain.Errorf(domain.ErrValidation, "%s must be an integer", name)
	}
	return parsed, nil
}
