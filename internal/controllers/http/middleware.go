package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ctxActor     = "actor"
	ctxRequestID = "requestId"

	headerRequestID = "X-Request-ID"
)

// Claims are issued by the identity service.
type Claims struct {
	UserID uint64 `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(userID uint64, role domain.Role, secret string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Authenticator turns a bearer token into a *domain.Actor. Supplier users are
// mapped to their supplier through the catalog.
type Authenticator struct {
	secret    []byte
	suppliers infra.CatalogClient
}

func NewAuthenticator(secret string, suppliers infra.CatalogClient) *Authenticator {
	return &Authenticator{secret: []byte(secret), suppliers: suppliers}
}

var errNoToken = errors.New("missing or invalid token")

// Required rejects requests without a valid token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := a.actorFrom(c)
		if err != nil {
			a.reject(c, err)
			return
		}
		c.Set(ctxActor, actor)
		c.Next()
	}
}

// Optional attaches an actor when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := a.actorFrom(c)
		switch {
		case err == nil:
			c.Set(ctxActor, actor)
		case !errors.Is(err, errNoToken):
			a.reject(c, err)
			return
		}
		c.Next()
	}
}

func (a *Authenticator) reject(c *gin.Context, err error) {
	var lookup *supplierLookupError
	if errors.As(err, &lookup) {
		log.Printf("auth: supplier lookup for user %d: %v", lookup.userID, lookup.err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "identity lookup unavailable"})
		return
	}
	unauthorized(c, err.Error())
}

type supplierLookupError struct {
	userID uint64
	err    error
}

func (e *supplierLookupError) Error() string { return e.err.Error() }

func (a *Authenticator) actorFrom(c *gin.Context) (*domain.Actor, error) {
	h := c.GetHeader("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return nil, errNoToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(h, "Bearer "), claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.UserID == 0 {
		return nil, errors.New("invalid claims")
	}

	actor := &domain.Actor{ID: claims.UserID, Role: role}
	if role == domain.RoleSupplier {
		sup, err := a.suppliers.GetSupplierByUserId(c.Request.Context(), claims.UserID)
		if err != nil {
			return nil, &supplierLookupError{userID: claims.UserID, err: err}
		}
		// an unlinked supplier keeps SupplierID 0 and owns nothing
		if sup != nil {
			actor.SupplierID = sup.ID
		}
	}
	return actor, nil
}

func currentActor(c *gin.Context) *domain.Actor {
	if v, ok := c.Get(ctxActor); ok {
		if a, ok := v.(*domain.Actor); ok {
			return a
		}
	}
	return nil
}

func provenance(c *gin.Context) *domain.Provenance {
	return &domain.Provenance{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString(ctxRequestID),
	}
}

// RequestID propagates X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("http: %s %s %d %s req=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.GetString(ctxRequestID))
	}
}

func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PATCH", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", headerRequestID},
		ExposeHeaders: []string{"Content-Length", headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

type Metrics struct {
	requests  *prometheus.CounterVec
	latencyMS *prometheus.HistogramVec
	handler   http.Handler
}

// NewMetrics registers the HTTP collectors on a dedicated registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	reg.MustRegister(requests, latency, collectors.NewGoCollector())

	return &Metrics{
		requests:  requests,
		latencyMS: latency,
		handler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(m.handler)
}
