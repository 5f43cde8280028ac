package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/RichardAwuor/Nyota-KE-sub000/config"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/engine"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(eng *engine.Engine, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(eng)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	gigs := r.Group("/gigs")
	gigs.Use(rateLimiter)
	{
		gigs.POST("", handler.CreateGig)
		gigs.GET("/client/:clientId", handler.GigsByClient)
		gigs.GET("/matches/:providerId", caching, handler.MatchesForProvider)

		gigs.GET("/:gigId/matched-providers", caching, handler.MatchedProviders)
		gigs.POST("/:gigId/select-provider", handler.SelectProvider)
		gigs.POST("/:gigId/accept-direct-offer", handler.AcceptDirectOffer)
		gigs.POST("/:gigId/decline-direct-offer", handler.DeclineDirectOffer)
		gigs.POST("/:gigId/broadcast", handler.Broadcast)
		gigs.POST("/:gigId/accept-broadcast-offer", handler.AcceptBroadcastOffer)
		gigs.GET("/:gigId/status", handler.GetStatus)
		gigs.PUT("/:gigId/accept", handler.Accept)
	}

	return r
}
