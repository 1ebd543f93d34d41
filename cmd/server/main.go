package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	if repo != nil {
		if err := model.SeedBootstrapAdmin(context.Background(), repo, cfg); err != nil {
			logrus.WithError(err).Warn("failed to seed bootstrap admin")
		}
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", httpHandler.Register)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.POST("/logout", httpHandler.Logout)
	authGroup.POST("/forgot-password", httpHandler.ForgotPassword)
	authGroup.POST("/reset-password", httpHandler.ResetPassword)

	meGroup := authGroup.Group("/me")
	meGroup.Use(httpHandler.AuthMiddleware())
	meGroup.GET("", httpHandler.Me)
	meGroup.PATCH("", httpHandler.UpdateProfile)
	meGroup.DELETE("", httpHandler.DeleteAccount)
	meGroup.POST("/password", httpHandler.ChangePassword)
	meGroup.POST("/avatar", httpHandler.UploadAvatar)

	// 公开目录路由：匿名可访问，登录用户附加身份
	catalog := apiGroup.Group("")
	catalog.Use(httpHandler.OptionalAuthMiddleware())
	catalog.GET("/products", httpHandler.ListProducts)
	catalog.GET("/products/:slug", httpHandler.GetProduct)
	catalog.GET("/deals", httpHandler.ListDeals)

	admin := apiGroup.Group("/admin")
	admin.Use(httpHandler.AuthMiddleware(), httpHandler.RequireAdmin())
	admin.GET("/users", httpHandler.ListUsers)
	admin.POST("/users/:id/promote", httpHandler.PromoteUser)
	admin.POST("/users/:id/demote", httpHandler.DemoteUser)
	admin.PUT("/users/:id/status", httpHandler.SetUserStatus)

	productAdmin := apiGroup.Group("/products")
	productAdmin.Use(httpHandler.AuthMiddleware(), httpHandler.RequireAdmin())
	productAdmin.POST("", httpHandler.CreateProduct)
	productAdmin.PUT("/:id", httpHandler.UpdateProduct)
	productAdmin.DELETE("/:id", httpHandler.DeleteProduct)

	dealAdmin := apiGroup.Group("/deals")
	dealAdmin.Use(httpHandler.AuthMiddleware(), httpHandler.RequireAdmin())
	dealAdmin.POST("", httpHandler.CreateDeal)
	dealAdmin.PUT("/:id", httpHandler.UpdateDeal)
	dealAdmin.DELETE("/:id", httpHandler.DeleteDeal)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
