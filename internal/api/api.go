package api

import (
	authHandler "atacado-server/internal/auth/handler"
	campaignHandler "atacado-server/internal/campaigns/handler"
	catalogHandler "atacado-server/internal/catalog/handler"
	crmHandler "atacado-server/internal/crm/handler"
	ordersHandler "atacado-server/internal/orders/handler"
	"net/http"

	"github.com/gin-gonic/gin"
)

type API struct {
	router          *gin.RouterGroup
	authHandler     authHandler.Handler
	catalogHandler  catalogHandler.Handler
	campaignHandler campaignHandler.Handler
	crmHandler      crmHandler.Handler
	ordersHandler   ordersHandler.Handler
}

func New(router *gin.RouterGroup, authHandler authHandler.Handler, catalogHandler catalogHandler.Handler,
	campaignHandler campaignHandler.Handler, crmHandler crmHandler.Handler, ordersHandler ordersHandler.Handler) API {
	return API{
		router:          router,
		authHandler:     authHandler,
		catalogHandler:  catalogHandler,
		campaignHandler: campaignHandler,
		crmHandler:      crmHandler,
		ordersHandler:   ordersHandler,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	a.router.POST("/api/auth/login", a.authHandler.HandleLogin)

	protected := a.router.Group("/", a.authHandler.HandleJWTMiddleware)
	{
		catalogGroup := protected.Group("/catalog")
		catalogGroup.POST("/upload-pdf", a.catalogHandler.HandleUploadPDF)
		catalogGroup.POST("/generate-markup-upload", a.catalogHandler.HandleGenerateMarkupUpload)
		catalogGroup.GET("", a.catalogHandler.HandleListCatalogs)
		catalogGroup.GET("/status", a.catalogHandler.HandleStatus)
		catalogGroup.DELETE("/reset", a.catalogHandler.HandleReset)
		catalogGroup.POST("/dismiss", a.catalogHandler.HandleDismiss)

		campaignGroup := protected.Group("/campaigns")
		campaignGroup.POST("", a.campaignHandler.HandleCreateCampaign)
		campaignGroup.GET("", a.campaignHandler.HandleListCampaigns)
		campaignGroup.GET("/primary", a.campaignHandler.HandleGetPrimaryCampaign)
		campaignGroup.GET("/:id", a.campaignHandler.HandleGetCampaign)
		campaignGroup.PUT("/:id", a.campaignHandler.HandleUpdateCampaign)
		campaignGroup.PUT("/:id/activation", a.campaignHandler.HandleSetActivation)
		campaignGroup.DELETE("/:id", a.campaignHandler.HandleDeleteCampaign)
		campaignGroup.POST("/:id/upload", a.campaignHandler.HandleAttachDocuments)
		campaignGroup.POST("/:id/generate", a.campaignHandler.HandleGenerate)

		protected.GET("/target-groups", a.campaignHandler.HandleListTargetGroups)
		protected.POST("/target-groups", a.campaignHandler.HandleCreateTargetGroup)

		blingGroup := protected.Group("/bling/clients")
		blingGroup.GET("/search", a.crmHandler.HandleSearchClients)
		blingGroup.POST("/select", a.crmHandler.HandleSelectCandidate)
		blingGroup.POST("/mapping", a.crmHandler.HandleConfirmMapping)
		blingGroup.GET("/mapping", a.crmHandler.HandleGetMapping)
		blingGroup.DELETE("/mapping", a.crmHandler.HandleDeleteMapping)
		blingGroup.POST("", a.crmHandler.HandleCreateClient)

		ordersGroup := protected.Group("/orders")
		ordersGroup.POST("", a.ordersHandler.HandleCreateOrder)
		ordersGroup.GET("", a.ordersHandler.HandleListOrders)
		ordersGroup.GET("/:id", a.ordersHandler.HandleGetOrder)
		ordersGroup.POST("/send-confirmation", a.ordersHandler.HandleSendConfirmation)
		ordersGroup.POST("/generate-link-sync", a.ordersHandler.HandleGenerateLinkSync)
		ordersGroup.PUT("/move", a.ordersHandler.HandleMoveOrders)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
