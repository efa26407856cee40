package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"polykitchen/internal/domain"
	"polykitchen/internal/endpoint"
	"polykitchen/internal/service/admin"
	"polykitchen/internal/service/chat"
	"polykitchen/internal/service/menu"
	"polykitchen/internal/service/review"
	"polykitchen/internal/session"
)

type MenuService interface {
	KitchenPage(ctx context.Context, q menu.MenuQuery) (*menu.KitchenView, error)
	BarPage(ctx context.Context, q menu.BarQuery) (*menu.BarView, error)
	DishDetail(ctx context.Context, lang domain.Language, id int64) (*menu.DishDetailView, error)
}

type ReviewService interface {
	Submit(ctx context.Context, in review.Input) (domain.ModerationState, error)
	ForDish(ctx context.Context, dishID int64) ([]domain.Review, error)
}

type ChatService interface {
	Ask(ctx context.Context, message, userID string) (chat.Reply, error)
}

type EndpointResolver interface {
	Resolve(ctx context.Context, page endpoint.PageContext) string
}

type SessionManager interface {
	Login(ctx context.Context, username, password string) (*session.Session, error)
	Resolve(ctx context.Context, id string) (*session.Session, error)
	Verify(ctx context.Context, s *session.Session) error
	Invalidate(ctx context.Context, s *session.Session)
	Logout(ctx context.Context, id string) error
}

// Deps carries everything the handlers need. BaseURL is the backend base
// URL resolved at start-up.
type Deps struct {
	BaseURL        string
	Menu           MenuService
	Reviews        ReviewService
	Chat           ChatService
	Resolver       EndpointResolver
	Sessions       SessionManager
	Signer         *session.Signer
	Admin          *admin.Service
	SessionStore   Pinger
	AllowedOrigins []string
	SecureCookies  bool
}

func (d Deps) validate() error {
	switch {
	case d.Menu == nil:
		return errors.New("menu service is required")
	case d.Reviews == nil:
		return errors.New("review service is required")
	case d.Chat == nil:
		return errors.New("chat service is required")
	case d.Sessions == nil || d.Signer == nil:
		return errors.New("session manager and signer are required")
	case d.Admin == nil:
		return errors.New("admin service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger logrus.FieldLogger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(deps.AllowedOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.SessionStore))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/", h.roleSelection)
	router.GET("/languages", h.languages)
	router.GET("/menu", h.kitchenMenu)
	router.GET("/bar", h.barMenu)
	router.GET("/dishes/:id", h.dishDetail)
	router.GET("/dishes/:id/reviews", h.dishReviews)
	router.POST("/dishes/:id/reviews", h.submitReview)
	router.POST("/chat", h.chat)
	router.GET("/api/endpoint", h.endpoint)

	router.POST("/admin/login", h.login)
	router.POST("/admin/logout", h.logout)

	a := router.Group("/admin", h.requireSession)
	a.GET("/session", h.sessionInfo)
	a.GET("/dashboard", h.dashboard)

	a.GET("/categories", h.listCategories)
	a.POST("/categories", h.createCategory)
	a.PUT("/categories/:id", h.updateCategory)
	a.DELETE("/categories/:id", h.deleteCategory)
	a.POST("/categories/:id/move", h.moveCategory)

	a.GET("/dishes", h.listDishes)
	a.POST("/dishes", h.createDish)
	a.PUT("/dishes/:id", h.updateDish)
	a.DELETE("/dishes/:id", h.deleteDish)
	a.PATCH("/dishes/:id/availability", h.toggleDish)

	a.GET("/reviews", h.listReviews)
	a.POST("/reviews/:id/approve", h.approveReview)
	a.POST("/reviews/:id/reject", h.rejectReview)
	a.DELETE("/reviews/:id", h.deleteReview)

	a.GET("/users", h.listUsers)
	a.POST("/users", h.createUser)
	a.DELETE("/users/:id", h.deleteUser)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger logrus.FieldLogger
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
