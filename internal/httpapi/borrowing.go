package httpapi

import (
	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type BorrowingHandler struct {
	log       *logger.Logger
	borrowing BorrowingService
	overdue   OverdueService
	clock     library.Clock
}

func NewBorrowingHandler(log *logger.Logger, borrowing BorrowingService, overdue OverdueService, clock library.Clock) *BorrowingHandler {
	return &BorrowingHandler{
		log:       log.With("handler", "BorrowingHandler"),
		borrowing: borrowing,
		overdue:   overdue,
		clock:     clock,
	}
}

// POST /api/borrowing/borrow?bookId=&memberId=
func (h *BorrowingHandler) Borrow(c *gin.Context) {
	bookID, err := queryID(c, "bookId")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	memberID, err := queryID(c, "memberId")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	tx, err := h.borrowing.Borrow(c.Request.Context(), bookID, memberID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, tx)
}

// POST /api/borrowing/return/:transactionId
func (h *BorrowingHandler) Return(c *gin.Context) {
	id, err := paramID(c, "transactionId")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	tx, err := h.borrowing.Return(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, tx)
}

// GET /api/borrowing
func (h *BorrowingHandler) ListAll(c *gin.Context) {
	txs, err := h.borrowing.ListAll(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, txs)
}

// GET /api/borrowing/member/:memberId
func (h *BorrowingHandler) MemberBorrowings(c *gin.Context) {
	id, err := paramID(c, "memberId")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	txs, err := h.borrowing.MemberBorrowings(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, txs)
}

// GET /api/borrowing/overdue
func (h *BorrowingHandler) ListOverdue(c *gin.Context) {
	txs, err := h.overdue.ListOverdue(c.Request.Context(), h.clock.Now())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, txs)
}
