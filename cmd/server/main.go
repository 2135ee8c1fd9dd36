package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"quicklink/internal/config"
	"quicklink/internal/handler"
	"quicklink/internal/middleware"
	"quicklink/internal/model"
	"quicklink/internal/service"
	"quicklink/internal/shortcode"
	"quicklink/internal/store"
	"quicklink/pkg/database"
	"quicklink/pkg/logger"
	"quicklink/pkg/redis"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	logger.InitLogger()
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("日志同步失败:", err)
		}
	}()
	sugaredLogger := logger.Sugar

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		sugaredLogger.Fatalf("配置加载失败: %v", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库连接成功")

	if err := db.AutoMigrate(&model.URLMapping{}); err != nil {
		sugaredLogger.Fatalf("数据库迁移失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库迁移成功")

	rdb, err := redis.NewClient(&redis.Config{
		Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
	})
	if err != nil {
		sugaredLogger.Warnf("缓存连接失败，将直接访问数据库: %v", err)
		rdb = nil
	} else if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
			}
		}()
		sugaredLogger.Info("✅ 缓存连接成功")
	}

	urlStore := store.NewGormStore(db)
	defer func() {
		if err := urlStore.Close(); err != nil {
			sugaredLogger.Errorf("关闭数据库连接失败: %v", err)
		}
	}()

	svc := service.NewShortenerService(urlStore, shortcode.NewGenerator(), rdb, cfg.Shortener.BaseURL, sugaredLogger)
	urlHandler := handler.NewURLHandler(svc)

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))

	registerRoutes(router, urlHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugaredLogger.Fatalf("服务启动失败: %v", err)
	}
}

// openDatabase 根据配置选择数据库驱动
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		return database.InitMySQL(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)
	case "sqlite":
		return database.InitSQLite(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}
}

func registerRoutes(router *gin.Engine, urlHandler *handler.URLHandler) {
	router.GET("/:code", urlHandler.Redirect)

	api := router.Group("/api")
	{
		api.GET("/health", urlHandler.HealthCheck)
		api.POST("/shorten", urlHandler.CreateShortURL)
		api.GET("/urls", urlHandler.ListURLs)
		api.GET("/stats", urlHandler.GetStats)
	}
}
