package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"goestoque/config"
	"goestoque/internal/pkg/cache"
	"goestoque/internal/pkg/database"
	"goestoque/internal/pkg/events"
	"goestoque/internal/pkg/logger"
	"goestoque/internal/pkg/middleware"
	"goestoque/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"goestoque/internal/api/allocation"
	"goestoque/internal/api/dashboard"
	"goestoque/internal/api/location"
	"goestoque/internal/api/product"
	"goestoque/internal/api/router"
	"goestoque/internal/api/stock"
	"goestoque/internal/api/transfer"
	"goestoque/internal/api/user"
	"goestoque/internal/repository/allocationrepo"
	"goestoque/internal/repository/locationrepo"
	"goestoque/internal/repository/productrepo"
	"goestoque/internal/repository/stockrepo"
	"goestoque/internal/repository/transferrepo"
	"goestoque/internal/repository/userrepo"
	"goestoque/internal/service/allocationservice"
	"goestoque/internal/service/dashboardservice"
	"goestoque/internal/service/locationservice"
	"goestoque/internal/service/productservice"
	"goestoque/internal/service/stockservice"
	"goestoque/internal/service/transferservice"
	"goestoque/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoEstoque...")
	if err := godotenv.Load(); err != nil {
		// As variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	logg := logger.NewLogger(cfg.LogLevel)
	logg.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	logg.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	logg.Info("Conexão Redis estabelecida.", nil)

	// C. Publicador de eventos (Kafka) — opcional
	kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logg)
	var publisher transferservice.EventPublisher
	if kafkaPublisher != nil {
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
		logg.Info("Publicador Kafka inicializado.", map[string]interface{}{"topic": cfg.KafkaTopic})
	} else {
		logg.Info("Publicação de eventos desabilitada (KAFKA_BROKERS vazio).", nil)
	}

	// D. Serviço de Tokens (JWT)
	jwtExpiry := time.Hour * time.Duration(cfg.JWTExpiryHours)
	tokenSvc := token.NewService(cfg.JWTSecretKey, jwtExpiry)
	logg.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, logg)
	stockRepo := stockrepo.NewStockRepository(db, cfg.DBTimeout, logg)
	allocationRepo := allocationrepo.NewAllocationRepository(db, cfg.DBTimeout, logg)
	transferRepo := transferrepo.NewTransferRepository(db, cfg.DBTimeout, logg)
	locationRepo := locationrepo.NewLocationRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, logg)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, logg)
	logg.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	productSvc := productservice.NewService(productRepo, logg)
	stockSvc := stockservice.NewService(stockRepo, logg)
	allocationSvc := allocationservice.NewService(allocationRepo, stockRepo, logg)
	transferSvc := transferservice.NewService(transferRepo, allocationRepo, publisher, logg)
	locationSvc := locationservice.NewService(locationRepo, logg)
	userSvc := userservice.NewService(userRepo, tokenSvc, logg)
	dashboardSvc := dashboardservice.NewService(productRepo, allocationRepo, logg)
	logg.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	handlers := router.Handlers{
		Product:    product.NewHandler(productSvc, logg),
		Stock:      stock.NewHandler(stockSvc, logg),
		Allocation: allocation.NewHandler(allocationSvc, logg),
		Transfer:   transfer.NewHandler(transferSvc, logg),
		Location:   location.NewHandler(locationSvc, logg),
		User:       user.NewHandler(userSvc, logg),
		Dashboard:  dashboard.NewHandler(dashboardSvc, logg),
	}
	logg.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	rateLimiter := middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)
	r := router.NewRouter(handlers, authMiddleware, rateLimiter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		logg.Info("Servidor GoEstoque ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logg.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Desligamento do servidor forçado.", err)
	}

	logg.Info("Servidor encerrado com sucesso.", nil)
}
