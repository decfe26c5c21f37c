package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"selfiebooth/internal/repository"
	"selfiebooth/internal/service"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Consent   bool   `json:"consent"`
	TabletID  string `json:"tablet_id"`
	Location  string `json:"location"`
}

func (h HandlerSet) RegisterGuest(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	result, err := h.booth.Register(c.Request.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		Phone:     req.Phone,
		Email:     req.Email,
		Consent:   req.Consent,
		TabletID:  req.TabletID,
		Location:  req.Location,
	})
	if err != nil {
		h.fail(c, err, "registration failed")
		return
	}

	resp := gin.H{"success": true, "session_id": result.SessionID}
	// test rigs read the code from the response instead of the kiosk screen
	if h.cfg.Booth.ExposeCode || h.cfg.Environment != "production" {
		resp["verification_code"] = result.VerificationCode
	}
	c.JSON(http.StatusOK, resp)
}

type verifyRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

func (h HandlerSet) VerifyCode(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	result, err := h.booth.Verify(c.Request.Context(), req.SessionID, req.Code)
	if err != nil {
		h.fail(c, err, "verification failed")
		return
	}
	if !result.Success {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Invalid code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": "/selfie_booth/photo_session"})
}

func (h HandlerSet) SessionCheck(c *gin.Context) {
	tabletID := c.Query("tablet_id")

	state, err := h.booth.KioskState(c.Request.Context(), tabletID)
	if err != nil {
		h.fail(c, err, "session check failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_state": state,
		"tablet_id":     tabletID,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

// VerificationCode feeds the kiosk's code display during the verification
// step.
func (h HandlerSet) VerificationCode(c *gin.Context) {
	tabletID := c.Query("tablet_id")

	session, err := h.booth.PendingCodeForTablet(c.Request.Context(), tabletID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	if err != nil {
		h.fail(c, err, "verification code lookup failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":            true,
		"first_name":        session.FirstName,
		"verification_code": session.VerificationCode,
	})
}

// fail maps service errors onto the response taxonomy: guest-input problems
// are a 400 with the message, anything else is logged and becomes a generic
// 500 so backend trouble is visible instead of reading as "no session".
func (h HandlerSet) fail(c *gin.Context, err error, logMsg string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Message})
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(logMsg)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal error"})
}
