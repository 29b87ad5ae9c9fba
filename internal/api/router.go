// Package api exposes the board over REST.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agoraboard/agora/internal/auth"
	"github.com/agoraboard/agora/internal/cache"
	"github.com/agoraboard/agora/internal/db"
	"github.com/agoraboard/agora/internal/identity"
	"github.com/agoraboard/agora/internal/moderation"
	"github.com/agoraboard/agora/internal/ratelimit"
	"github.com/agoraboard/agora/internal/search"
	"github.com/agoraboard/agora/pkg/config"
	"github.com/agoraboard/agora/pkg/logging"
	"github.com/agoraboard/agora/pkg/telemetry"
)

const actorContextKey = "agora.actor"

// Router sets up API routes
type Router struct {
	repo     *db.Repository
	db       *db.DB
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	resolver *auth.Resolver
	identity *identity.Service
	search   *search.Gateway
	ledger   *moderation.Ledger
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, cfg *config.Config) *Router {
	repo := db.NewRepository(database.DB)
	identitySvc := identity.NewService(repo, &cfg.Auth)

	// A disabled cache leaves the limiter with no store; it fails open
	var counters ratelimit.CounterStore
	if redisCache != nil {
		counters = redisCache
	}

	return &Router{
		repo:     repo,
		db:       database,
		cache:    redisCache,
		limiter:  ratelimit.New(counters, &cfg.RateLimit),
		resolver: auth.NewResolver(identitySvc, repo, cfg.Auth.BootstrapAdminEmail),
		identity: identitySvc,
		search:   search.NewGateway(repo.Posts()),
		ledger:   moderation.NewLedger(repo.Moderation()),
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	api := engine.Group("/", r.withTracing(), r.withActor())

	api.POST("/auth/signup", r.signup)
	api.POST("/auth/login", r.login)
	api.GET("/me", r.getMe)
	api.PATCH("/me", r.updateMe)

	api.GET("/boards", r.listBoards)
	api.GET("/boards/:slug/posts", r.listBoardPosts)
	api.POST("/boards/:slug/posts", r.createPost)

	api.GET("/posts/:postId", r.getPost)
	api.PATCH("/posts/:postId", r.updatePost)
	api.DELETE("/posts/:postId", r.deletePost)
	api.POST("/posts/:postId/like", r.likePost)
	api.POST("/posts/:postId/comments", r.createComment)

	api.PATCH("/comments/:commentId", r.updateComment)
	api.DELETE("/comments/:commentId", r.deleteComment)

	api.POST("/reports", r.createReport)
	api.GET("/search", r.searchPosts)

	admin := api.Group("/admin")
	admin.GET("/users", r.adminListUsers)
	admin.GET("/users/:userId/activity", r.adminUserActivity)
	admin.PATCH("/users/:userId/role", r.adminSetRole)
	admin.PATCH("/users/:userId/suspend", r.adminSuspendUser)
	admin.PATCH("/users/:userId/restore", r.adminRestoreUser)
	admin.GET("/reports", r.adminListReports)
	admin.PATCH("/reports", r.adminResolveReport)
	admin.PATCH("/moderation/posts/:postId", r.adminModeratePost)
	admin.PATCH("/moderation/comments/:commentId", r.adminModerateComment)
	admin.POST("/boards/create", r.adminCreateBoard)
	admin.POST("/boards/clone", r.adminCloneBoard)
}

// withTracing opens a span covering the whole request
func (r *Router) withTracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.End()
	}
}

// withActor resolves the bearer credential once per request. Anonymous
// requests pass through; only store failures abort.
func (r *Router) withActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := r.resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			Fail(c, err)
			c.Abort()
			return
		}
		if actor != nil {
			c.Set(actorContextKey, actor)
		}
		c.Next()
	}
}

// actorFrom returns the resolved actor, or nil for anonymous requests
func actorFrom(c *gin.Context) *auth.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(*auth.Actor); ok {
			return actor
		}
	}
	return nil
}

// requireActor rejects anonymous requests with UNAUTHORIZED
func requireActor(c *gin.Context) (*auth.Actor, error) {
	return auth.RequireActor(actorFrom(c))
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := r.db.Health(ctx); err != nil {
		dbStatus = "down"
	}

	redisStatus := "ok"
	if err := r.cache.Health(ctx); err != nil {
		if err == cache.ErrCacheDisabled {
			redisStatus = "disabled"
		} else {
			redisStatus = "down"
		}
	}

	status := 200
	if dbStatus == "down" {
		status = 503
	}
	c.JSON(status, gin.H{
		"status":  dbStatus,
		"service": "agora-api",
		"db":      dbStatus,
		"redis":   redisStatus,
	})
}
