package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type FineHandler struct {
	log   *logger.Logger
	fines FineService
}

func NewFineHandler(log *logger.Logger, fines FineService) *FineHandler {
	return &FineHandler{log: log.With("handler", "FineHandler"), fines: fines}
}

// POST /api/fines
func (h *FineHandler) Record(c *gin.Context) {
	var f library.Fine
	if err := c.ShouldBindJSON(&f); err != nil {
		fail(c, h.log, badRequest("invalid fine: %v", err))
		return
	}
	f.ID = 0
	saved, err := h.fines.Record(c.Request.Context(), &f)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// GET /api/fines/member/:memberId[?status=]
func (h *FineHandler) ListForMember(c *gin.Context) {
	id, err := paramID(c, "memberId")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	status := library.FineStatus(strings.ToUpper(c.Query("status")))
	fines, err := h.fines.ListForMember(c.Request.Context(), id, status)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, fines)
}

// GET /api/fines/member/:memberId/pending-total
func (h *FineHandler) PendingTotal(c *gin.Context) {
	id, err := paramID(c, "memberId")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	total, err := h.fines.PendingTotal(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"member_id": id, "pending_cents": total})
}
