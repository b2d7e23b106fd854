// Package server assembles the echo instance: global middleware, routes and error handling.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"commerce-service/internal/handler"
	"commerce-service/internal/middleware"
	"commerce-service/internal/tokenstore"
	"commerce-service/pkg/config"
	"commerce-service/pkg/jwtutil"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	JWT    *jwtutil.JWTUtil
	Tokens tokenstore.Store
	Logger *zap.Logger
}

// New builds a ready to start echo instance
func New(deps Deps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler

	// Apply global middleware - order matters
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(middleware.RequestIDMiddleware(deps.Logger))
	e.Use(prometheus.MetricsMiddleware())
	e.Use(logger.Middleware(deps.Logger))

	h := handler.New(deps.DB, deps.JWT, deps.Tokens, deps.Config)

	// Public routes
	e.GET("/", handler.Root)
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	registerRoutes(e.Group("/api/v1"), h, middleware.Authenticate(deps.JWT, deps.DB))
	return e
}

func registerRoutes(api *echo.Group, h *handler.Handler, authenticate echo.MiddlewareFunc) {
	user := []echo.MiddlewareFunc{authenticate, middleware.RequireUser}
	admin := []echo.MiddlewareFunc{authenticate, middleware.RequireAdmin}

	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/password-reset", h.RequestPasswordReset)
	auth.PUT("/password-reset", h.ResetPassword)
	auth.PUT("/:id", h.ChangePassword, user...)

	users := api.Group("/users")
	users.GET("", h.ListUsers, admin...)
	users.GET("/me", h.Me, user...)
	users.GET("/:id", h.GetUser, admin...)
	users.PUT("/:id", h.UpdateUser, admin...)
	users.PUT("/:id/user", h.UpdateProfile, user...)
	users.DELETE("/:id", h.DeleteUser, admin...)

	items := api.Group("/items")
	items.GET("", h.ListItems)
	items.GET("/:id", h.GetItem)
	items.POST("", h.CreateItem, admin...)
	items.PUT("/:id", h.UpdateItem, admin...)
	items.PUT("/:id/stock", h.ToggleStock, admin...)
	items.DELETE("/:id", h.DeleteItem, admin...)

	carts := api.Group("/carts")
	carts.POST("", h.AddToCart, user...)
	carts.GET("", h.GetCart, user...)
	carts.GET("/:id", h.GetCartByID, user...)
	carts.PUT("/:id/update", h.UpdateCartQuantity, user...)
	carts.PUT("/:id/remove", h.RemoveFromCart, user...)
	carts.DELETE("", h.EmptyCart, user...)

	orders := api.Group("/orders")
	orders.POST("", h.CreateOrder, user...)
	orders.GET("", h.MyOrders, user...)
	orders.GET("/admin", h.AllOrders, admin...)
	orders.PUT("/:id", h.UpdateOrderStatus, admin...)

	payments := api.Group("/payments")
	payments.POST("", h.CreatePayment, user...)
	payments.GET("/user", h.MyPayments, user...)
	payments.GET("", h.AllPayments, admin...)
	payments.PUT("/:id", h.UpdatePaymentStatus, admin...)
	payments.DELETE("/:id", h.DeletePayment, admin...)

	reviews := api.Group("/reviews")
	reviews.POST("", h.CreateReview, user...)
	reviews.GET("", h.ListReviews)
	reviews.GET("/:id", h.GetReview)
	reviews.DELETE("/:id", h.DeleteReview, user...)
}

// ErrorHandler answers errors that handlers did not turn into a response.
// Unexpected errors are logged and reported as a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	log := logger.FromContext(c)

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	switch {
	case errors.Is(err, echo.ErrNotFound), errors.Is(err, echo.ErrMethodNotAllowed):
		code = http.StatusNotFound
		message = "Resource not found"
	case errors.As(err, &he):
		code = he.Code
		message = fmt.Sprint(he.Message)
	default:
		log.Error("Unhandled error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.String(code, message)
	}
	if err != nil {
		log.Error("Failed to write error response", zap.Error(err))
	}
}
