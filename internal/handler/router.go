package handler

import (
	"net/http"

	"retailpos/internal/middleware"
	"retailpos/internal/service"
	"retailpos/internal/websocket"
	"retailpos/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services is everything the HTTP surface calls into
type Services struct {
	Sales     service.SaleService
	Transfers service.TransferService
	Items     service.ItemService
	Customers service.CustomerService
	Branches  service.BranchService
	Audit     *service.AuditLog
}

type RouterConfig struct {
	JWTSecret   []byte
	CORSOrigins []string
	Hub         *websocket.Hub // nil disables /ws
}

// NewRouter builds the gin engine: public health, docs and websocket routes,
// and the authenticated /api group.
func NewRouter(svc Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	if cfg.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			websocket.ServeWs(cfg.Hub, c, cfg.JWTSecret)
		})
	}

	api := router.Group("/api")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))

	NewSaleHandler(svc.Sales).RegisterRoutes(api)
	NewTransferHandler(svc.Transfers).RegisterRoutes(api)
	NewItemHandler(svc.Items).RegisterRoutes(api)
	NewCustomerHandler(svc.Customers).RegisterRoutes(api)
	NewBranchHandler(svc.Branches, middleware.RequireAuth(cfg.JWTSecret, "admin")).RegisterRoutes(api)
	NewAuditHandler(svc.Audit, middleware.RequireAuth(cfg.JWTSecret, "admin", "manager")).RegisterRoutes(api)

	return router
}
