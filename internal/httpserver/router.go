package httpserver

import (
	"context"
	"errors"
	"log"

	"storefront/internal/domain"
	catalogsvc "storefront/internal/service/catalog"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogService interface {
	List(ctx context.Context, search string, limit, offset int) ([]domain.Product, int, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in catalogsvc.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in catalogsvc.UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type cartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

type orderService interface {
	Checkout(ctx context.Context, userID string) (*domain.Order, error)
	SettlePayment(ctx context.Context, orderID, callerID string) (*domain.Order, *domain.Payment, error)
	Get(ctx context.Context, orderID, callerID string) (*domain.Order, *domain.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error)
	Status(ctx context.Context, orderID string) (domain.OrderStatus, error)
	UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, error)
}

// Deps collects the services the router exposes.
type Deps struct {
	CatalogSvc catalogService
	CartSvc    cartService
	OrderSvc   orderService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CatalogSvc == nil || deps.CartSvc == nil || deps.OrderSvc == nil {
		return nil, errors.New("httpserver: missing service dependency")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, headerUserID, headerUserRole)
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.GET("/products", listProductsHandler(deps.CatalogSvc))
	router.GET("/products/:id", getProductHandler(deps.CatalogSvc))

	user := router.Group("/", userMiddleware())
	{
		user.GET("/cart", getCartHandler(deps.CartSvc))
		user.POST("/cart/items", addCartItemHandler(deps.CartSvc))
		user.PUT("/cart/items/:productId", updateCartItemHandler(deps.CartSvc))
		user.DELETE("/cart/items/:productId", removeCartItemHandler(deps.CartSvc))
		user.DELETE("/cart", clearCartHandler(deps.CartSvc))

		user.POST("/orders/checkout", checkoutHandler(deps.OrderSvc))
		user.GET("/orders", listOrdersHandler(deps.OrderSvc))
		user.GET("/orders/:id", getOrderHandler(deps.OrderSvc))
		user.GET("/orders/:id/status", orderStatusHandler(deps.OrderSvc))
		user.POST("/orders/:id/pay", payOrderHandler(deps.OrderSvc))
	}

	admin := router.Group("/admin", userMiddleware(), adminMiddleware())
	{
		admin.POST("/products", createProductHandler(deps.CatalogSvc))
		admin.PATCH("/products/:id", updateProductHandler(deps.CatalogSvc))
		admin.DELETE("/products/:id", deleteProductHandler(deps.CatalogSvc))
		admin.PATCH("/orders/:id/status", updateOrderStatusHandler(deps.OrderSvc))
	}

	return router, nil
}
