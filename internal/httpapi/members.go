package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type MemberHandler struct {
	log     *logger.Logger
	members MemberService
}

func NewMemberHandler(log *logger.Logger, members MemberService) *MemberHandler {
	return &MemberHandler{log: log.With("handler", "MemberHandler"), members: members}
}

func (h *MemberHandler) respondList(c *gin.Context, members []*library.Member, err error) {
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, members)
}

// GET /api/members
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.members.List(c.Request.Context())
	h.respondList(c, members, err)
}

// GET /api/members/active
func (h *MemberHandler) ListActive(c *gin.Context) {
	members, err := h.members.ListActive(c.Request.Context())
	h.respondList(c, members, err)
}

// GET /api/members/status/:status
func (h *MemberHandler) ListByStatus(c *gin.Context) {
	status := library.MembershipStatus(strings.ToUpper(c.Param("status")))
	members, err := h.members.ListByStatus(c.Request.Context(), status)
	h.respondList(c, members, err)
}

// GET /api/members/search?name=
func (h *MemberHandler) Search(c *gin.Context) {
	members, err := h.members.Search(c.Request.Context(), c.Query("name"))
	h.respondList(c, members, err)
}

// GET /api/members/email/:email
func (h *MemberHandler) GetByEmail(c *gin.Context) {
	m, err := h.members.FindByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, m)
}

// GET /api/members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	m, err := h.members.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, m)
}

// POST /api/members
func (h *MemberHandler) Create(c *gin.Context) {
	var m library.Member
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, h.log, badRequest("invalid member: %v", err))
		return
	}
	m.ID = 0
	saved, err := h.members.Save(c.Request.Context(), &m)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.log.Info("member registered", "member_id", saved.ID, "email", saved.Email)
	c.JSON(http.StatusCreated, saved)
}

// PUT /api/members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	var m library.Member
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, h.log, badRequest("invalid member: %v", err))
		return
	}
	m.ID = id
	saved, err := h.members.Save(c.Request.Context(), &m)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, saved)
}

// DELETE /api/members/:id
func (h *MemberHandler) Delete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if err := h.members.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
