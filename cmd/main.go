package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"estaleiro/config"
	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/pkg/database"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
	"estaleiro/internal/pkg/middleware"
	"estaleiro/internal/pkg/sse"
	"estaleiro/internal/pkg/token"

	"estaleiro/internal/api/forecast"
	"estaleiro/internal/api/picking"
	"estaleiro/internal/api/router"
	"estaleiro/internal/repository/orderrepo"
	"estaleiro/internal/repository/pickingrepo"
	"estaleiro/internal/repository/routingrepo"
	"estaleiro/internal/repository/timingrepo"
	"estaleiro/internal/service/forecastservice"
	"estaleiro/internal/service/pickingservice"
)

// @title Estaleiro MES API
// @version 1.0
// @description Previsão de kitting e fila de picking ao vivo do almoxarifado.
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	log.Println("⚡ Inicializando serviço Estaleiro MES...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "timezone": cfg.FactoryTimezone})

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Fuso horário da fábrica inválido.", err)
	}

	// 1. Infraestrutura
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		// O go-redis reconecta sozinho; a fila ao vivo faz o refetch quando a inscrição voltar.
		log.Warn("Redis indisponível na inicialização.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	} else {
		log.Info("Conexão Redis estabelecida.", nil)
	}

	reg := metrics.NewRegistry()
	hub := sse.NewHub(log)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// 2. Injeção de dependências: Repository -> Service -> Handler
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout)
	routingRepo := routingrepo.NewRoutingRepository(db, cfg.DBTimeout)
	timingRepo := timingrepo.NewTimingRepository(db, cacheClient, cfg.DBTimeout, cfg.SLACacheTTL, log)
	pickingRepo := pickingrepo.NewPickingRepository(db, cfg.DBTimeout)

	forecastSvc := forecastservice.NewService(orderRepo, routingRepo, timingRepo, log,
		forecastservice.WithLocation(loc),
		forecastservice.WithHorizonDays(cfg.ForecastHorizonDays),
		forecastservice.WithMetrics(reg),
	)

	queue := pickingservice.NewQueue(pickingRepo, hub, log,
		pickingservice.QueueWithLocation(loc),
		pickingservice.QueueWithMetrics(reg),
	)
	pickingSvc := pickingservice.NewService(pickingRepo, cacheClient, cfg.PickingChannel, log,
		pickingservice.WithLocation(loc),
		pickingservice.WithMetrics(reg),
		pickingservice.WithQueue(queue),
	)
	log.Debug("Serviços inicializados.", nil)

	// ctx vive até o desligamento: encerra a fila ao vivo e os streams SSE.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pickingHandler := picking.NewHandler(pickingSvc, hub, log, reg, cfg.SSEHeartbeat)
	pickingHandler.Done = ctx.Done()

	handler := router.NewRouter(router.Dependencies{
		ForecastHandler: forecast.NewHandler(forecastSvc, log),
		PickingHandler:  pickingHandler,
		TokenService:    tokenSvc,
		Metrics:         reg.Handler(),
		Global: []func(http.Handler) http.Handler{
			middleware.RequestLogger(log),
			middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod, log, reg),
		},
	})

	// 3. Fila ao vivo: inscrição no canal de eventos de picking
	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		sub := cacheClient.Subscribe(ctx, cfg.PickingChannel)
		if err := queue.Run(ctx, sub); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Fila de picking ao vivo encerrada com erro.", err)
		}
	}()

	// WriteTimeout fica zerado: o stream SSE mantém a resposta aberta.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown dispara stop(): streams e fila terminam, requisições em curso seguem até o fim.
	server.RegisterOnShutdown(stop)

	go func() {
		log.Info("Servidor Estaleiro ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}
	<-queueDone

	log.Info("Servidor encerrado com sucesso.", nil)
}
