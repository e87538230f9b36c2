package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"hoslog/internal/config"
	"hoslog/internal/db"
	"hoslog/internal/http/handlers"
	appmw "hoslog/internal/http/middleware"
	"hoslog/internal/logbook"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.EnsureBootstrapDriver(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap driver: %v", err)
	}

	handlers.InitPrometheusMetrics()

	store := db.NewStore(sqlDB)
	svc := logbook.NewService(store, cfg.CertifiedLogPolicy)

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.POST("/v1/logs/sync", handlers.SyncLogs(svc))
	r.POST("/v1/logs/form", handlers.SubmitForm(svc))
	r.POST("/v1/logs/certify", handlers.CertifyLog(svc))
	r.GET("/v1/logs/{username}", handlers.DriverLogs(svc))

	r.POST("/v1/drivers", handlers.CreateDriver(sqlDB))

	r.GET("/metrics", handlers.MetricsHandler())

	handler := appmw.RequestLogger(r.Handler)

	log.Printf("hoslog listening on %s (certified-log policy: %s)", cfg.ListenAddr, cfg.CertifiedLogPolicy)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
