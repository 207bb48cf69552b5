// Package httpapi wires the HTTP transport (Gin) to the postbox services,
// middleware and route handlers. Tracing, correlation ids, redacted access
// logs, panic recovery, metrics, token auth, idempotency, CORS and security
// headers are all installed here.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/ai"
	"github.com/hoshibaby/spbox-back/internal/auth"
	"github.com/hoshibaby/spbox-back/internal/config"
	"github.com/hoshibaby/spbox-back/internal/http/handlers"
	"github.com/hoshibaby/spbox-back/internal/http/middleware"
	"github.com/hoshibaby/spbox-back/internal/repo"
	"github.com/hoshibaby/spbox-back/internal/services"
)

const maxBodyBytes = 1 << 20

// idempotencyStore adapts the repo free functions to handlers.IdempotencyStore.
type idempotencyStore struct{ db *gorm.DB }

// Lookup proxies repo.GetIdempotency. A missing or expired record is not an error.
func (s idempotencyStore) Lookup(ctx context.Context, actorID, boxKey, key string, now time.Time) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, actorID, boxKey, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.MessageID, true, nil
}

// Remember proxies repo.CreateIdempotency. Losing a race to a concurrent
// retry is fine: the first record wins.
func (s idempotencyStore) Remember(ctx context.Context, actorID, boxKey, key, messageID string, status int, ttl time.Duration) error {
	_, err := repo.CreateIdempotency(ctx, s.db, actorID, boxKey, key, messageID, status, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// replierFor picks the HTTP generator when an endpoint is configured and the
// built-in stub otherwise.
func replierFor(cfg config.AIConfig) *ai.Replier {
	var client ai.Client = ai.StubClient{}
	if cfg.Endpoint != "" {
		client = ai.NewHTTPClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	}
	return ai.NewReplier(client, cfg.Timeout)
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger
//  4. Recovery
//  5. body limit, gzip
//  6. Metrics
//  7. OptionalAuth (identity is needed to scope idempotency keys)
//  8. Idempotency validator
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	idem := idempotencyStore{db: db}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.OptionalAuth(tokens))
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, actorID, boxKey, key string, now time.Time) (bool, error) {
			_, found, err := idem.Lookup(ctx, actorID, boxKey, key, now)
			return found, err
		},
	))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		Expose:       middleware.DefaultExposeHeaders,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	boxSvc := &services.BoxService{DB: db}
	h := handlers.New(handlers.Deps{
		Messages: &services.MessageService{
			DB:              db,
			AI:              replierFor(cfg.AI),
			Locale:          services.ParseLocale(cfg.LabelLocale),
			MaxContentRunes: cfg.MaxContentRunes,
		},
		Boxes:          boxSvc,
		Users:          &services.UserService{DB: db, Boxes: boxSvc},
		Blacklist:      &services.BlacklistService{DB: db},
		Notifications:  &services.NotificationService{DB: db},
		Tokens:         tokens,
		Idempotency:    idem,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/find-id", h.FindID)
		api.POST("/auth/reset-password", h.ResetPassword)

		api.POST("/messages", h.CreateMessage)
		api.GET("/boxes/:urlKey", h.GetBox)
		api.GET("/boxes/:urlKey/messages", h.ListPublicMessages)
		api.POST("/boxes/:urlKey/messages", h.CreateMessage)
		api.GET("/addresses/:addressId", h.GetBoxByAddress)
	}

	me := api.Group("/me", middleware.RequireAuth())
	{
		me.GET("", h.GetMe)
		me.PATCH("", h.UpdateMe)
		me.DELETE("", h.DeleteMe)
		me.PUT("/password", h.ChangePassword)

		me.GET("/box", h.GetMyBox)
		me.PUT("/box/anonymous", h.SetAllowAnonymous)
		me.PUT("/box/ai-mode", h.SetAIMode)

		me.GET("/messages", h.ListMyMessages)
		me.GET("/messages/answered", h.ListAnsweredMessages)
		me.GET("/messages/:id", h.GetMessage)
		me.PUT("/messages/:id", h.UpdateMessage)
		me.DELETE("/messages/:id", h.DeleteMessage)
		me.PUT("/messages/:id/reply", h.ReplyMessage)
		me.DELETE("/messages/:id/reply", h.ClearReply)
		me.POST("/messages/:id/ai-reply", h.GenerateAIReply)
		me.PATCH("/messages/:id/hide", h.HideMessage)
		me.POST("/messages/:id/blacklist", h.BlacklistAuthor)

		me.GET("/blacklist", h.ListBlacklist)
		me.DELETE("/blacklist/:userId", h.Unblock)

		me.GET("/notifications", h.ListNotifications)
		me.GET("/notifications/unread-count", h.UnreadCount)
		me.PATCH("/notifications/read-all", h.MarkAllNotificationsRead)
		me.PATCH("/notifications/:id/read", h.MarkNotificationRead)
	}
}

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = append([]string{"X-Request-ID", "Content-Length"}, middleware.DefaultExposeHeaders...)
)

// corsMiddleware allows every origin when the allowlist is empty, and echoes
// allowlisted origins otherwise. Credentials stay off: tokens travel in the
// Authorization header, not cookies.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsHeaders,
		ExposeHeaders: corsExpose,
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		inner := cors.New(cc)
		return func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			inner(c)
		}
	}
	cc.AllowOrigins = origins
	return cors.New(cc)
}

// limitBody caps request bodies at maxBytes; oversized reads fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
