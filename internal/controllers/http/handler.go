package http

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	orders   *services.OrderService
	payments *services.PaymentService
	coupons  *services.CouponService
}

func NewHandler(orders *services.OrderService, payments *services.PaymentService, coupons *services.CouponService) *Handler {
	return &Handler{orders: orders, payments: payments, coupons: coupons}
}

// NewRouter builds the engine with the ambient middleware and every route.
func NewRouter(h *Handler, auth *Authenticator, m *Metrics, corsOrigins []string) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), CORS(corsOrigins), m.Middleware(), RequestLogger())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", m.Handler())

	h.RegisterRoutes(r, auth)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine, auth *Authenticator) {
	r.GET("/coupons/verify/:code", auth.Optional(), h.VerifyCoupon)

	api := r.Group("/", auth.Required())
	api.POST("/orders", h.CreateOrder)
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/:id", h.ShowOrder)
	api.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	api.GET("/orders/:id/activity", h.OrderActivity)
	api.POST("/orders/:id/activity", h.RecordActivity)
	api.POST("/orders/:id/payments", h.RecordPayment)

	api.GET("/payments", h.ListPayments)
	api.GET("/payments/:id", h.ShowPayment)
	api.PATCH("/payments/:id/status", h.UpdatePaymentStatus)
	api.GET("/payments/:id/analytics", h.PaymentAnalytics)

	api.POST("/coupons", h.CreateCoupon)
	api.PUT("/coupons/:id", h.UpdateCoupon)

	api.GET("/users/:id/activity", h.UserActivity)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), currentActor(c), req.toInput(provenance(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	created(c, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), currentActor(c), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, orders)
}

func (h *Handler) ShowOrder(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	order, err := h.orders.Show(c.Request.Context(), id, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), id, currentActor(c), domain.OrderStatus(req.Status), req.Comment, provenance(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, order)
}

func (h *Handler) OrderActivity(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	entries, err := h.orders.Activity(c.Request.Context(), id, currentActor(c), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, entries)
}

func (h *Handler) RecordActivity(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.orders.RecordActivity(c.Request.Context(), id, currentActor(c), req.toInput(), provenance(c)); err != nil {
		writeError(c, err)
		return
	}
	created(c, gin.H{"orderId": id})
}

func (h *Handler) UserActivity(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	entries, err := h.orders.UserActivity(c.Request.Context(), id, currentActor(c), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, entries)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.payments.Record(c.Request.Context(), id, currentActor(c), req.toInput(provenance(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	created(c, p)
}

func (h *Handler) ListPayments(c *gin.Context) {
	var orderID uint64
	if raw := c.Query("orderId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			badRequest(c, "invalid orderId")
			return
		}
		orderID = id
	}
	out, err := h.payments.List(c.Request.Context(), currentActor(c), orderID, queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, out)
}

func (h *Handler) ShowPayment(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	p, err := h.payments.Show(c.Request.Context(), id, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, p)
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.payments.UpdateStatus(c.Request.Context(), id, currentActor(c), domain.PaymentStatus(req.Status), req.Comment, provenance(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, p)
}

func (h *Handler) PaymentAnalytics(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	report, err := h.payments.Analytics(c.Request.Context(), id, currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, report)
}

func (h *Handler) VerifyCoupon(c *gin.Context) {
	coupon, err := h.coupons.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, coupon)
}

func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	coupon, err := h.coupons.Create(c.Request.Context(), currentActor(c), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	created(c, coupon)
}

func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	coupon, err := h.coupons.Update(c.Request.Context(), id, currentActor(c), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, coupon)
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

var tagNameOnce sync.Once

// useJSONFieldNames makes validator report json names instead of Go field names.
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, isValidator := binding.Validator.Engine().(*validator.Validate)
		if !isValidator {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
