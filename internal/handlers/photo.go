package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) UploadPhoto(c *gin.Context) {
	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No photo uploaded"})
		return
	}
	defer file.Close()

	sessionID := c.PostForm("session_id")

	photo, err := io.ReadAll(io.LimitReader(file, h.cfg.Booth.MaxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Upload failed"})
		return
	}

	if err := h.booth.UploadPhoto(c.Request.Context(), sessionID, photo); err != nil {
		h.fail(c, err, "photo upload failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Photo ready for review"})
}

func (h HandlerSet) CheckPhoto(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusOK, gin.H{"photo_ready": false})
		return
	}

	status, err := h.booth.CheckPhoto(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err, "photo check failed")
		return
	}
	if !status.Ready {
		c.JSON(http.StatusOK, gin.H{"photo_ready": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"photo_ready": true, "photo_data": status.Data})
}

type sessionIDRequest struct {
	SessionID string `json:"session_id"`
}

func (h HandlerSet) KeepPhoto(c *gin.Context) {
	var req sessionIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	detail, err := h.booth.KeepPhoto(c.Request.Context(), req.SessionID)
	if err != nil {
		h.fail(c, err, "keep photo failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": detail})
}

func (h HandlerSet) RetakePhoto(c *gin.Context) {
	var req sessionIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	if err := h.booth.RetakePhoto(c.Request.Context(), req.SessionID); err != nil {
		h.fail(c, err, "retake failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
