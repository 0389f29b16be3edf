// Package server は gin エンジンの組み立て。ルーティングとミドルウェアの並びはここだけで決める
package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "LIBRA-backend/docs"
	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/library/circulation"
	"LIBRA-backend/internal/library/membership"
	"LIBRA-backend/internal/library/productdetails"
	"LIBRA-backend/internal/library/reports"
	"LIBRA-backend/internal/library/requests"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/config"
	"LIBRA-backend/internal/platform/logging"
	"LIBRA-backend/internal/platform/metrics"
	"LIBRA-backend/internal/platform/ratelimit"
	"LIBRA-backend/internal/web"
)

type Server struct {
	Engine     *gin.Engine
	Reconciler *circulation.Reconciler
	Limiter    *ratelimit.Limiter
}

func New(cfg *config.Config, conn *sql.DB, clock calendar.Clock) (*Server, error) {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logging.RequestID(), logging.AccessLog(), gin.Recovery(), metrics.Middleware())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "Location", "X-Request-ID"},
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	secret := []byte(cfg.Auth.JWTSecret)
	policy := circulation.Policy{
		EnforceMembershipExpiry: cfg.Policy.EnforceMembershipExpiry,
		AllowUnpaidSettlement:   cfg.Policy.AllowUnpaidSettlement,
	}
	catalogSvc := catalog.NewService(conn)
	rec := circulation.NewReconciler(conn, clock)
	limiter := ratelimit.New(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)

	api := r.Group("/api")

	authSvc := auth.NewService(conn, secret, cfg.Auth.TokenTTL)
	authPublic := api.Group("/auth", limiter.Middleware())
	authAdmin := api.Group("/auth", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin))
	auth.RegisterRoutes(authPublic, authAdmin, authSvc)

	tx := api.Group("/transactions", auth.RequireAuth(secret))
	catalog.RegisterSearchRoutes(tx, catalogSvc)
	circulation.RegisterRoutes(tx, circulation.NewService(conn, clock, policy))
	requests.RegisterRoutes(tx, requests.NewService(conn, clock))

	maint := api.Group("/maintenance", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin))
	membership.RegisterRoutes(maint, membership.NewService(conn, clock))
	catalog.RegisterRoutes(maint, catalogSvc)
	circulation.RegisterAdminRoutes(maint, rec)
	productdetails.RegisterRoutes(maint, productdetails.NewService(conn))

	reps := api.Group("/reports", auth.RequireAuth(secret))
	reports.RegisterRoutes(reps, reports.NewService(conn, clock))

	spa, err := web.SPAFallback()
	if err != nil {
		return nil, err
	}
	r.NoRoute(spa)

	return &Server{Engine: r, Reconciler: rec, Limiter: limiter}, nil
}
