package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"selfiebooth/internal/middleware"
	"selfiebooth/internal/security"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ok := false
	if h.cfg.Admin.PasswordHash != "" {
		match, err := security.VerifyPassword(req.Password, []byte(h.cfg.Admin.PasswordHash))
		if err != nil {
			h.log.Error().Err(err).Msg("admin password hash unusable")
		}
		ok = err == nil && match
	} else {
		ok = security.ConstantTimeEquals(req.Password, h.cfg.Admin.Password)
	}

	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid password"})
		return
	}

	token, err := security.GenerateAdminToken(h.cfg.Admin.JWTSecret, h.cfg.Admin.SessionTTL)
	if err != nil {
		h.fail(c, err, "admin token generation failed")
		return
	}

	secure := h.cfg.Environment == "production"
	c.SetCookie(middleware.AdminCookieName, token,
		int(h.cfg.Admin.SessionTTL.Seconds()), "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) AdminLogout(c *gin.Context) {
	c.SetCookie(middleware.AdminCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) AdminStats(c *gin.Context) {
	sessionStats, err := h.booth.SessionStats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "stats query failed")
		return
	}
	cumulative := h.booth.CumulativeStats()

	c.JSON(http.StatusOK, gin.H{
		"sessions": gin.H{
			"total":    sessionStats.Total,
			"verified": sessionStats.Verified,
			"pending":  sessionStats.Pending,
		},
		"cumulative": gin.H{
			"total_sessions_created":  cumulative.TotalSessionsCreated,
			"total_sessions_verified": cumulative.TotalSessionsVerified,
			"total_photos_taken":      cumulative.TotalPhotosTaken,
		},
	})
}

func (h HandlerSet) AdminSessions(c *gin.Context) {
	limit := 10
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	sessions, err := h.booth.RecentSessions(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err, "sessions query failed")
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, gin.H{
			"session_id":        s.SessionID,
			"first_name":        s.FirstName,
			"phone":             s.Phone,
			"state":             s.State,
			"verification_code": s.VerificationCode,
			"photo_ready":       s.PhotoReady(),
			"tablet_id":         s.TabletID,
			"location":          s.Location,
			"created_at":        s.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

func (h HandlerSet) AdminHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": h.booth.History()})
}

func (h HandlerSet) AdminReset(c *gin.Context) {
	deleted, err := h.booth.ResetSessions(c.Request.Context())
	if err != nil {
		h.fail(c, err, "reset failed")
		return
	}

	h.log.Warn().Int64("deleted", deleted).Msg("admin reset all sessions")
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}
