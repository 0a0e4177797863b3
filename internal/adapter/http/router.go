package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aq2208/growcery-api/internal/adapter/http/middleware"
	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
)

type Handlers struct {
	Auth     *AuthHandler
	Products *ProductHandler
	Cart     *CartHandler
	Orders   *OrderHandler
	Users    *UserHandler
}

func NewRouter(h Handlers, authz *middleware.Authz, requestTimeout time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(logging.New("http")))
	r.Use(middleware.Timeout(requestTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	customer := authz.Require(domain.RoleCustomer)
	admin := authz.Require(domain.RoleAdmin)

	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
	}

	r.GET("/products", h.Products.List)
	r.GET("/product/:productId", h.Products.Get)
	r.POST("/create-product", admin, h.Products.Create)
	r.PUT("/products/:productId", admin, h.Products.Update)
	r.DELETE("/delete-product/:productId", admin, h.Products.Delete)

	cart := r.Group("/cart", customer)
	{
		cart.POST("/add", h.Cart.Add)
		cart.GET("", h.Cart.Get)
		cart.PUT("/update", h.Cart.Update)
		cart.DELETE("/remove/:productId", h.Cart.Remove)
		cart.DELETE("/clear", h.Cart.Clear)
	}

	orders := r.Group("/orders")
	{
		orders.POST("/checkout", customer, h.Orders.Checkout)
		orders.GET("", customer, h.Orders.Mine)
		orders.GET("/all", admin, h.Orders.All)
		orders.GET("/:orderId/status", customer, h.Orders.Status)
		orders.GET("/:orderId/history", admin, h.Orders.History)
		orders.PUT("/:orderId/status", admin, h.Orders.UpdateStatus)
	}

	users := r.Group("/users", admin)
	{
		users.GET("/all", h.Users.List)
		users.DELETE("/:userId", h.Users.Delete)
	}

	return r
}
