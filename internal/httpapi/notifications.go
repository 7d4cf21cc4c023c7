package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type NotificationHandler struct {
	log           *logger.Logger
	notifications NotificationService
}

func NewNotificationHandler(log *logger.Logger, notifications NotificationService) *NotificationHandler {
	return &NotificationHandler{log: log.With("handler", "NotificationHandler"), notifications: notifications}
}

// GET /api/notifications/member/:memberId[?unread=true]
func (h *NotificationHandler) ListForMember(c *gin.Context) {
	id, err := paramID(c, "memberId")
	if err != nil {
		fail(c, h.log, err)
		return
	}

	var notes []*library.Notification
	if c.Query("unread") == "true" {
		notes, err = h.notifications.ListUnread(c.Request.Context(), id)
	} else {
		notes, err = h.notifications.ListForMember(c.Request.Context(), id)
	}
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, notes)
}

// GET /api/notifications/member/:memberId/unread-count
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	id, err := paramID(c, "memberId")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	n, err := h.notifications.CountUnread(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"member_id": id, "unread": n})
}

// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
