package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmaat19/Personal-Finance-Blog/config"
	"github.com/ahmaat19/Personal-Finance-Blog/controllers"
	"github.com/ahmaat19/Personal-Finance-Blog/middleware"
	"github.com/ahmaat19/Personal-Finance-Blog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; panics become plain 500s.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(middleware.RequestID())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Uploaded images are public by path.
	r.Static("/static", cfg.StaticDir)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	postController := controllers.NewPostController(db)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("", authController.Login)
	authGroup.GET("/oauth/github/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/github/callback", authController.OAuthCallback)

	usersGroup := api.Group("/users")
	usersGroup.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	usersGroup.POST("", userController.Register)
	usersGroup.PUT("/change-password", userController.ChangePassword)

	postGroup := api.Group("/post")
	postGroup.Use(middleware.AuthRequired())
	postGroup.GET("", postController.GetPosts)
	postGroup.POST("", postController.CreatePost)
	postGroup.PUT("/:id", postController.UpdatePost)
	postGroup.DELETE("/:id", postController.DeletePost)
	postGroup.POST("/comment/:id", postController.CreateComment)
	postGroup.DELETE("/comment/:id/:comment_id", postController.DeleteComment)
	postGroup.POST("/like/:id", postController.LikePost)
	postGroup.POST("/unlike/:id", postController.UnlikePost)

	return r
}
