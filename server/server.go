package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ThqRel/cache"
	"ThqRel/config"
	"ThqRel/core/auth"
	"ThqRel/core/notify"
	"ThqRel/core/release"
	"ThqRel/db"
	"ThqRel/logger"
	"ThqRel/model"
	"ThqRel/repository"
	"ThqRel/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutputPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	defer logger.Sync()

	auth.InitJWT(cfg.JWTSecret, cfg.JWTExpiryHours)

	// 设置服务器超时
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端
	assets, err := storage.InitMinio(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseDB()

	// GORM 连接，通知模块使用
	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.CloseRedis()
	log.Println("Successfully connected to Redis")

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.AutoMigrateModels(&model.Notification{}); err != nil {
		log.Fatalf("Failed to migrate notification model: %v", err)
	}

	// 仓库与核心服务
	releaseRepo := repository.NewMySQLReleaseRepository(db.DB)
	userRepo := repository.NewMySQLUserRepository(db.DB)
	notifRepo := repository.NewGormNotificationRepository(db.GormDB)

	feedHub := notify.NewFeedHub()
	go feedHub.Run()
	defer feedHub.Stop()

	notifier := notify.NewModerationNotifier(notifRepo, feedHub)
	completionCache := cache.NewCompletionCache()
	releaseSvc := release.NewService(releaseRepo, completionCache, notifier, cfg.BulkWorkers)

	// 落盘目录监听，文件拖进去自动传 MinIO
	spoolCtx, cancelSpool := context.WithCancel(context.Background())
	defer cancelSpool()
	if cfg.SpoolDir != "" {
		watcher := storage.NewSpoolWatcher(assets, cfg.SpoolDir, cfg.BulkWorkers)
		go func() {
			if err := watcher.Run(spoolCtx); err != nil {
				logger.Error("spool watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	apiHandler := NewAPIHandler(releaseSvc, userRepo, notifRepo, assets, feedHub, cfg)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// 艺人自助（cabinet）相关的API端点
	router.HandleFunc("/api/releases", apiHandler.AuthMiddleware(apiHandler.CreateReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases", apiHandler.AuthMiddleware(apiHandler.GetMyReleasesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.GetReleaseHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateReleaseHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteReleaseHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/releases/{id}/completion", apiHandler.AuthMiddleware(apiHandler.CompletionHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}/submit", apiHandler.AuthMiddleware(apiHandler.SubmitReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/cover", apiHandler.AuthMiddleware(apiHandler.UploadCoverHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/tracks/{index}/audio", apiHandler.AuthMiddleware(apiHandler.UploadTrackAudioHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/payment", apiHandler.AuthMiddleware(apiHandler.AttachPaymentHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/history", apiHandler.AuthMiddleware(apiHandler.HistoryHandler)).Methods(http.MethodGet)

	// 通知相关的API端点
	router.HandleFunc("/api/notifications", apiHandler.AuthMiddleware(apiHandler.NotificationsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/notifications/{id}/read", apiHandler.AuthMiddleware(apiHandler.MarkNotificationReadHandler)).Methods(http.MethodPost)

	// 审核面板相关的API端点
	router.HandleFunc("/api/moderation/releases", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.ModerationListHandler))).Methods(http.MethodGet)
	router.HandleFunc("/api/moderation/releases/{id}/approve", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.ApproveHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/moderation/releases/{id}/reject", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.RejectHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/moderation/releases/{id}/payment/verify", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.VerifyPaymentHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/moderation/releases/{id}/publish", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.PublishHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/moderation/releases/{id}/upc", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.SetUPCHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/moderation/releases/{id}/tracks/{index}/isrc", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.SetTrackISRCHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/moderation/bulk", apiHandler.AuthMiddleware(apiHandler.ModeratorMiddleware(apiHandler.BulkHandler))).Methods(http.MethodPost)

	// 实时事件推送
	router.HandleFunc("/api/ws/feed", apiHandler.AuthMiddleware(apiHandler.FeedWSHandler)).Methods(http.MethodGet)

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		log.Printf("Server starting on :%s...", cfg.ServerPort)
		log.Println("Cabinet API under /api/releases, moderation panel under /api/moderation")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号
	<-stop
	log.Println("Shutting down server...")
	cancelSpool()

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
