package httpapi

import (
	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string

	HealthHandler       *HealthHandler
	BookHandler         *BookHandler
	MemberHandler       *MemberHandler
	BorrowingHandler    *BorrowingHandler
	NotificationHandler *NotificationHandler
	FineHandler         *FineHandler
}

// NewRouterConfig wires every handler to the components of lm.
func NewRouterConfig(log *logger.Logger, lm *library.LibraryManager, clock library.Clock, version string, origins []string) RouterConfig {
	return RouterConfig{
		Log:                 log,
		CORSOrigins:         origins,
		HealthHandler:       NewHealthHandler(log, lm, clock, version),
		BookHandler:         NewBookHandler(log, lm.Catalog),
		MemberHandler:       NewMemberHandler(log, lm.Members),
		BorrowingHandler:    NewBorrowingHandler(log, lm.Borrowing, lm.Overdue, clock),
		NotificationHandler: NewNotificationHandler(log, lm.Notifications),
		FineHandler:         NewFineHandler(log, lm.Fines),
	}
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Log))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	api := r.Group("/api")

	// Health
	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.Health)
		api.GET("/health/database", cfg.HealthHandler.Database)
	}

	// Books
	if h := cfg.BookHandler; h != nil {
		books := api.Group("/books")
		books.GET("", h.List)
		books.GET("/search", h.Search)
		books.GET("/available", h.ListAvailable)
		books.GET("/:id", h.Get)
		books.POST("", h.Create)
		books.PUT("/:id", h.Update)
		books.DELETE("/:id", h.Delete)
	}

	// Members
	if h := cfg.MemberHandler; h != nil {
		members := api.Group("/members")
		members.GET("", h.List)
		members.GET("/search", h.Search)
		members.GET("/active", h.ListActive)
		members.GET("/status/:status", h.ListByStatus)
		members.GET("/email/:email", h.GetByEmail)
		members.GET("/:id", h.Get)
		members.POST("", h.Create)
		members.PUT("/:id", h.Update)
		members.DELETE("/:id", h.Delete)
	}

	// Circulation
	if h := cfg.BorrowingHandler; h != nil {
		borrowing := api.Group("/borrowing")
		borrowing.GET("", h.ListAll)
		borrowing.POST("/borrow", h.Borrow)
		borrowing.POST("/return/:transactionId", h.Return)
		borrowing.GET("/member/:memberId", h.MemberBorrowings)
		borrowing.GET("/overdue", h.ListOverdue)
	}

	// Notifications
	if h := cfg.NotificationHandler; h != nil {
		notifications := api.Group("/notifications")
		notifications.GET("/member/:memberId", h.ListForMember)
		notifications.GET("/member/:memberId/unread-count", h.CountUnread)
		notifications.PUT("/:id/read", h.MarkRead)
	}

	// Fines
	if h := cfg.FineHandler; h != nil {
		fines := api.Group("/fines")
		fines.POST("", h.Record)
		fines.GET("/member/:memberId", h.ListForMember)
		fines.GET("/member/:memberId/pending-total", h.PendingTotal)
	}

	return r
}
