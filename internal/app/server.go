// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"invitera-service/internal/config"
	"invitera-service/internal/db"
	authHandler "invitera-service/internal/handlers/auth"
	blogHandler "invitera-service/internal/handlers/blog"
	catalogHandler "invitera-service/internal/handlers/catalog"
	profileHandler "invitera-service/internal/handlers/profile"
	wsHandler "invitera-service/internal/handlers/websocket"
	"invitera-service/internal/middleware"
	"invitera-service/internal/pkg/jwt"
	"invitera-service/internal/pkg/session"
	"invitera-service/internal/repository/postgres"
	authUsecase "invitera-service/internal/service/auth"
	blogUsecase "invitera-service/internal/service/blog"
	catalogUsecase "invitera-service/internal/service/catalog"
	"invitera-service/internal/service/email"
	profileUsecase "invitera-service/internal/service/profile"
	"invitera-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB()
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Repositories -----
	authRepo := postgres.NewAuthRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	blogRepo := postgres.NewBlogRepository(pool)

	// ----- Session layer -----
	sessionManager := session.NewManager(redisClient, authRepo, logger)
	hintStore := session.NewHintStore(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Email -----
	emailSender := email.NewEmailSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(logger)
	go hub.Run(context.Background())

	// ----- Google OAuth -----
	oauthCfg := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.BaseURL + "/auth/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	// ----- Services -----
	authService := authUsecase.NewAuthService(
		authRepo,
		profileRepo,
		sessionManager,
		hintStore,
		rateLimiter,
		jwtManager,
		emailSender,
		hub,
		oauthCfg,
		redisClient,
		s.cfg.BaseURL,
		logger,
	)
	profileService := profileUsecase.NewProfileService(profileRepo, authRepo, logger)
	catalogService := catalogUsecase.NewCatalogService(catalogRepo)
	blogService := blogUsecase.NewBlogService(blogRepo)

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, logger)
	profileHandlerInst := profileHandler.NewProfileHandler(profileService, logger)
	catalogHandlerInst := catalogHandler.NewCatalogHandler(catalogService, logger)
	blogHandlerInst := blogHandler.NewBlogHandler(blogService, logger)
	wsHandlerInst := wsHandler.NewWSHandler(hub, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(
		jwtManager.Verifier,
		sessionManager,
		profileRepo,
		hintStore,
		logger,
	)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.BaseURL),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:    authHandlerInst,
		ProfileHandler: profileHandlerInst,
		CatalogHandler: catalogHandlerInst,
		BlogHandler:    blogHandlerInst,
		WSHandler:      wsHandlerInst,
		AuthMiddleware: authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}
