package handlers

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"selfiebooth/internal/config"
	"selfiebooth/internal/kiosk"
	"selfiebooth/internal/middleware"
	"selfiebooth/internal/ratelimit"
	"selfiebooth/internal/service"
)

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	booth     *service.BoothService
	kiosks    *kiosk.Registry
	limiter   ratelimit.Limiter
	db        *sql.DB
	messaging string // name of the sender actually in use, fallback included
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	booth *service.BoothService,
	kiosks *kiosk.Registry,
	limiter ratelimit.Limiter,
	db *sql.DB,
	messagingName string,
) HandlerSet {
	return HandlerSet{
		log:       log,
		cfg:       cfg,
		booth:     booth,
		kiosks:    kiosks,
		limiter:   limiter,
		db:        db,
		messaging: messagingName,
	}
}

// Register mounts the route set on a group. main registers it twice, once
// bare and once under /selfie_booth, matching the paths the hosted and local
// kiosk pages were written against.
func (h HandlerSet) Register(router *gin.RouterGroup) {
	limit := func(maxRequests int) gin.HandlerFunc {
		return middleware.RateLimit(h.limiter, h.log, maxRequests, time.Minute)
	}

	router.GET("/health", h.Health)

	router.POST("/register", limit(50), h.RegisterGuest)
	router.POST("/verify", limit(25), h.VerifyCode)
	router.GET("/session_check", limit(100), h.SessionCheck)
	router.GET("/verification_code", limit(100), h.VerificationCode)

	router.POST("/upload_photo", limit(100), h.UploadPhoto)
	router.GET("/check_photo", limit(30), h.CheckPhoto)
	router.POST("/keep_photo", limit(50), h.KeepPhoto)
	router.POST("/retake_photo", limit(25), h.RetakePhoto)

	router.POST("/admin/login", limit(10), h.AdminLogin)
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth(h.cfg))
	admin.POST("/logout", h.AdminLogout)
	admin.GET("/stats", h.AdminStats)
	admin.GET("/sessions", h.AdminSessions)
	admin.GET("/history", h.AdminHistory)
	admin.POST("/reset", h.AdminReset)

	kiosks := router.Group("/kiosk")
	kiosks.Use(middleware.AdminAuth(h.cfg))
	kiosks.GET("/status", h.KioskStatus)
	kiosks.POST("/checkout", h.KioskCheckout)
	kiosks.POST("/checkin", h.KioskCheckin)
}
