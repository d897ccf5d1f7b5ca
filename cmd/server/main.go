package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tsukue/slotbook/internal/config"
	"github.com/tsukue/slotbook/internal/database"
	"github.com/tsukue/slotbook/internal/handler"
	"github.com/tsukue/slotbook/internal/queue"
	"github.com/tsukue/slotbook/internal/repository"
	"github.com/tsukue/slotbook/internal/router"
	"github.com/tsukue/slotbook/internal/service"
	"github.com/tsukue/slotbook/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.StoreTZ)
	if err != nil {
		log.Fatalf("invalid STORE_TZ %q: %v", cfg.StoreTZ, err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting, caching and chat sessions disabled")
	}

	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("notify-consumer stopped: %v", err)
		}
	}()

	reservations := repository.NewReservationRepo(db)
	rules := repository.NewRuleRepo(db)
	staff := repository.NewStaffRepo(db)
	tokens := repository.NewTokenRepo(db)

	resH := handler.NewReservationHandler(cfg, reservations, rules, loc, service.PublishReservationCreated)
	conH := handler.NewConstraintHandler(rules, loc)
	sesH := handler.NewSessionHandler(session.NewStore(rdb, 0))
	authH := handler.NewAuthHandler(cfg, staff, tokens)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterPublic(e, resH, conH, rdb)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterStaff(e, conH, sesH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, slot=%dmin, tz=%s)", addr, cfg.Env, cfg.SlotMinutes, cfg.StoreTZ)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
