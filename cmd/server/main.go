package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/lmarsden/film-catalog/internal/config"
	"github.com/lmarsden/film-catalog/internal/database"
	"github.com/lmarsden/film-catalog/internal/handler"
	"github.com/lmarsden/film-catalog/internal/queue"
	"github.com/lmarsden/film-catalog/internal/repository"
	"github.com/lmarsden/film-catalog/internal/router"
	"github.com/lmarsden/film-catalog/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connect failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioSSL,
	}, log)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("image store connect failed")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limiting disabled")
	}

	events := &queue.AMQPPublisher{URL: cfg.AMQPURL, Log: log}
	go queue.StartCleanupConsumer(cfg.AMQPURL, store, log)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	films := repository.NewFilmRepo(db)
	genres := repository.NewGenreRepo(db)
	reviews := repository.NewReviewRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Users:   handler.NewUserHandler(cfg, users, tokens),
		Films:   handler.NewFilmHandler(films, genres, reviews, store, events, log),
		Reviews: handler.NewReviewHandler(films, reviews),
		Images:  handler.NewImageHandler(users, films, store, events, log),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
