package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type BookHandler struct {
	log     *logger.Logger
	catalog CatalogService
}

func NewBookHandler(log *logger.Logger, catalog CatalogService) *BookHandler {
	return &BookHandler{log: log.With("handler", "BookHandler"), catalog: catalog}
}

// GET /api/books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.catalog.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, books)
}

// GET /api/books/available
func (h *BookHandler) ListAvailable(c *gin.Context) {
	books, err := h.catalog.ListAvailable(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, books)
}

// GET /api/books/search?keyword=
func (h *BookHandler) Search(c *gin.Context) {
	books, err := h.catalog.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, books)
}

// GET /api/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	book, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, book)
}

// POST /api/books
func (h *BookHandler) Create(c *gin.Context) {
	var b library.Book
	if err := c.ShouldBindJSON(&b); err != nil {
		fail(c, h.log, badRequest("invalid book: %v", err))
		return
	}
	b.ID = 0
	saved, err := h.catalog.Save(c.Request.Context(), &b)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// PUT /api/books/:id
func (h *BookHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	var b library.Book
	if err := c.ShouldBindJSON(&b); err != nil {
		fail(c, h.log, badRequest("invalid book: %v", err))
		return
	}
	b.ID = id
	saved, err := h.catalog.Save(c.Request.Context(), &b)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	RespondOK(c, saved)
}

// DELETE /api/books/:id
func (h *BookHandler) Delete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
