package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	notificationapp "github.com/rentledger/backend/internal/application/notification"
)

// NotificationHandler handles in-app notification endpoints
type NotificationHandler struct {
	BaseHandler
	service *notificationapp.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *notificationapp.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns a renter's notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	renterID, err := getRenterID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := h.service.ListForTenant(c.Request.Context(), renterID, page, pageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// UnreadCount returns the number of unread notifications for a renter
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	renterID, err := getRenterID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), renterID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CountData{Count: count})
}

// MarkRead marks a notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid notification ID")
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, n)
}
