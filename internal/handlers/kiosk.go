package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"selfiebooth/internal/kiosk"
)

func (h HandlerSet) KioskStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kiosks": h.kiosks.All()})
}

type kioskRequest struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

func (h HandlerSet) KioskCheckout(c *gin.Context) {
	var req kioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	status, err := h.kiosks.Checkout(req.Number, req.Name, time.Now())
	switch {
	case errors.Is(err, kiosk.ErrUnknownKiosk):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown kiosk number"})
	case errors.Is(err, kiosk.ErrAlreadyCheckedOut):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Kiosk already checked out", "kiosk": status})
	case err != nil:
		h.fail(c, err, "kiosk checkout failed")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "kiosk": status})
	}
}

func (h HandlerSet) KioskCheckin(c *gin.Context) {
	var req kioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	status, err := h.kiosks.Checkin(req.Number)
	switch {
	case errors.Is(err, kiosk.ErrUnknownKiosk):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown kiosk number"})
	case errors.Is(err, kiosk.ErrNotCheckedOut):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Kiosk not checked out"})
	case err != nil:
		h.fail(c, err, "kiosk checkin failed")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "kiosk": status})
	}
}
