package main

import (
	"context"
	"log"
	"time"

	"marketplace-service/internal/config"
	"marketplace-service/internal/controllers/http"
	"marketplace-service/internal/infra"
	mmysql "marketplace-service/internal/infra/mysql"
	"marketplace-service/internal/infra/rabbitmq"
	mysqlrepo "marketplace-service/internal/repository/mysql"
	"marketplace-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := mmysql.NewMySQL(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}
	store := mysqlrepo.NewStore(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DB:           0,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	catalog := infra.NewCachedCatalog(infra.NewCatalogClient(cfg.CatalogURL, cfg.CatalogTimeout), redisClient)

	if len(cfg.CatalogWarmupIDs) > 0 {
		go func() {
			time.Sleep(5 * time.Second)
			if err := catalog.Warmup(context.Background(), cfg.CatalogWarmupIDs); err != nil {
				log.Printf("catalog: warmup failed: %v", err)
				return
			}
			log.Printf("catalog: warmed %d products", len(cfg.CatalogWarmupIDs))
		}()
	}

	var publisher rabbitmq.PublisherInterface = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.OrderExchange)
		if err != nil {
			log.Fatalf("failed to init publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Println("rabbitmq: RABBITMQ_URL not set, events are dropped")
	}

	shipping := infra.FlatShippingQuoter{Fee: cfg.FlatShipping}
	coupons := services.NewCouponService(store.Coupons(), nil)
	audit := services.NewAuditService(store.Activity())
	orders := services.NewOrderService(store, catalog, shipping, coupons, audit, publisher)
	payments := services.NewPaymentService(store, audit, publisher, cfg.CommissionRate)

	gin.SetMode(cfg.GinMode)
	r := http.NewRouter(
		http.NewHandler(orders, payments, coupons),
		http.NewAuthenticator(cfg.JWTSecret, catalog),
		http.NewMetrics("marketplace"),
		cfg.CORSOrigins,
	)

	log.Printf("Starting marketplace service on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server run: %v", err)
	}
}
