// Package router maps the API surface onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/lmarsden/film-catalog/internal/config"
	"github.com/lmarsden/film-catalog/internal/handler"
	"github.com/lmarsden/film-catalog/internal/middleware"
)

// Handlers collects every handler the router wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Films   *handler.FilmHandler
	Reviews *handler.ReviewHandler
	Images  *handler.ImageHandler
}

// Register wires all routes. Read endpoints are public; mutations
// require a Bearer token. The film listing runs behind the Redis
// response cache, and everything under /v1 is rate limited.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	v1 := e.Group("/v1", middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

	// Sessions.
	v1.POST("/users/register", h.Auth.Register)
	v1.POST("/users/login", h.Auth.Login)
	v1.POST("/users/refresh", h.Auth.Refresh)
	v1.POST("/users/logout", h.Auth.Logout)

	// Profiles.
	v1.GET("/users/:id", h.Users.View, optionalAuth)
	v1.PATCH("/users/:id", h.Users.Patch, requireAuth)
	v1.GET("/users/:id/image", h.Images.GetUserImage)
	v1.PUT("/users/:id/image", h.Images.PutUserImage, requireAuth)
	v1.DELETE("/users/:id/image", h.Images.DeleteUserImage, requireAuth)

	// Catalogue.
	v1.GET("/films", h.Films.List, cache)
	v1.GET("/films/genres", h.Films.ListGenres, cache)
	v1.GET("/films/:id", h.Films.Get)
	v1.POST("/films", h.Films.Post, requireAuth)
	v1.PATCH("/films/:id", h.Films.Patch, requireAuth)
	v1.DELETE("/films/:id", h.Films.Delete, requireAuth)
	v1.GET("/films/:id/image", h.Images.GetFilmImage)
	v1.PUT("/films/:id/image", h.Images.PutFilmImage, requireAuth)
	v1.DELETE("/films/:id/image", h.Images.DeleteFilmImage, requireAuth)

	// Reviews.
	v1.GET("/films/:id/reviews", h.Reviews.List)
	v1.POST("/films/:id/reviews", h.Reviews.Post, requireAuth)
}
