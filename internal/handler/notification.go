package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/middleware"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotificationHandler serves stored notifications. Delivery channels are out
// of scope; clients poll and mark records read.
type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

type notificationReq struct {
	Title   string `json:"title" binding:"required,max=100"`
	Message string `json:"message" binding:"required,max=500"`
	Type    string `json:"type" binding:"required,oneof=ALERT REMINDER INFO"`
}

func (h *NotificationHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req notificationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	notification := models.Notification{
		UserID:  user.ID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		SentAt:  time.Now(),
	}
	if err := h.DB.Create(&notification).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create notification failed")
		return
	}

	util.Success(c, util.Response{"notification": notification})
}

func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	q := h.DB.Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		q = q.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := q.Order("sent_at DESC").Find(&notifications).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query notifications failed")
		return
	}

	util.Success(c, util.Response{"notifications": notifications})
}

// MarkRead flips the read flag on one notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, user.ID).
		Update("read", true)
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update notification failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "notification not found")
		return
	}

	util.Success(c, util.Response{"message": "notification marked read"})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Notification{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete notification failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "notification not found")
		return
	}

	util.Success(c, util.Response{"message": "notification deleted"})
}
