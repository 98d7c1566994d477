package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/toylibrary/lending-platform/internal/api/handler"
	"github.com/toylibrary/lending-platform/internal/api/middleware"
	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// Dependencies carries everything the router needs. Services are constructed
// by the caller so the transport layer stays wiring-only.
type Dependencies struct {
	Auth          ports.AuthService
	Inventory     ports.InventoryService
	Circulation   ports.CirculationService
	Membership    ports.MembershipService
	Libraries     ports.LibraryService
	Messaging     ports.MessagingService
	Reports       ports.ReportService
	Notifications ports.NotificationRepository

	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("toylib"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	itemHandler := handler.NewItemHandler(deps.Inventory)
	circHandler := handler.NewCirculationHandler(deps.Circulation)
	memberHandler := handler.NewMemberHandler(deps.Membership)
	tierHandler := handler.NewTierHandler(deps.Membership)
	libraryHandler := handler.NewLibraryHandler(deps.Libraries)
	settingsHandler := handler.NewSettingsHandler(deps.Libraries)
	messageHandler := handler.NewMessageHandler(deps.Messaging)
	favoritesHandler := handler.NewFavoritesHandler(deps.Libraries)
	reportHandler := handler.NewReportHandler(deps.Reports)
	notificationHandler := handler.NewNotificationHandler(deps.Notifications)

	auth := middleware.Auth(deps.JWTSecret)
	hostOnly := middleware.RBAC(domain.RoleHost)
	adminOnly := middleware.RBAC(domain.RoleSuperUser)
	hostOrAdmin := middleware.RBAC(domain.RoleHost, domain.RoleSuperUser)
	anyRole := middleware.RBAC(domain.RoleHost, domain.RoleBorrower, domain.RoleSuperUser)
	borrowerOnly := middleware.RBAC(domain.RoleBorrower)

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", auth)

	items := v1.Group("/items")
	items.GET("", itemHandler.List, anyRole)
	items.GET("/:id", itemHandler.Get, anyRole)
	items.POST("", itemHandler.Create, hostOnly)
	items.PUT("/:id", itemHandler.Update, hostOnly)
	items.PATCH("/:id/maintenance", itemHandler.SetMaintenance, hostOnly)
	items.DELETE("/:id", itemHandler.Delete, hostOnly)
	items.POST("/:id/images", itemHandler.UploadImage, hostOnly)
	items.GET("/:id/images/:index", itemHandler.DownloadImage, anyRole)

	loans := v1.Group("/loans")
	loans.GET("", circHandler.ListLoans, anyRole)
	loans.POST("", circHandler.Checkout, hostOnly)
	loans.POST("/:id/return", circHandler.Return, hostOnly)
	loans.POST("/:id/lost", circHandler.MarkLost, hostOnly)

	reservations := v1.Group("/reservations")
	reservations.GET("", circHandler.ListReservations, anyRole)
	reservations.POST("", circHandler.Reserve, borrowerOnly)
	reservations.DELETE("/:id", circHandler.CancelReservation, anyRole)

	members := v1.Group("/members", hostOnly)
	members.GET("", memberHandler.List)
	members.POST("", memberHandler.Add)
	members.GET("/:id", memberHandler.Get)
	members.PATCH("/:id/status", memberHandler.UpdateStatus)
	members.POST("/:id/fees/settle", memberHandler.SettleFees)

	tiers := v1.Group("/tiers")
	tiers.GET("", tierHandler.List, anyRole)
	tiers.POST("", tierHandler.Create, hostOnly)
	tiers.PUT("/:id", tierHandler.Update, hostOnly)
	tiers.DELETE("/:id", tierHandler.Delete, hostOnly)

	libraries := v1.Group("/libraries")
	libraries.GET("", libraryHandler.List, anyRole)
	libraries.GET("/:id", libraryHandler.Get, anyRole)
	libraries.PUT("/:id", libraryHandler.Update, hostOrAdmin)

	settings := v1.Group("/settings", hostOnly)
	settings.GET("", settingsHandler.GetLibrarySettings)
	settings.PUT("", settingsHandler.UpdateLibrarySettings)

	messages := v1.Group("/messages", anyRole)
	messages.POST("", messageHandler.Send)
	messages.GET("/unread/count", messageHandler.UnreadCount)
	messages.GET("/:user_id", messageHandler.Conversation)
	messages.POST("/:user_id/read", messageHandler.MarkRead)

	favorites := v1.Group("/favorites", anyRole)
	favorites.GET("", favoritesHandler.List)
	favorites.POST("/:item_id", favoritesHandler.Toggle)

	notifications := v1.Group("/notifications", anyRole)
	notifications.GET("", notificationHandler.List)
	notifications.POST("/read", notificationHandler.MarkRead)

	reports := v1.Group("/reports", hostOnly)
	reports.GET("/dashboard", reportHandler.HostDashboard)

	admin := v1.Group("/admin", adminOnly)
	admin.GET("/users", authHandler.ListUsers)
	admin.PATCH("/users/:id/status", authHandler.UpdateUserStatus)
	admin.POST("/libraries", libraryHandler.Create)
	admin.POST("/libraries/:id/approve", libraryHandler.Approve)
	admin.POST("/libraries/:id/suspend", libraryHandler.Suspend)
	admin.POST("/libraries/:id/reinstate", libraryHandler.Reinstate)
	admin.GET("/settings", settingsHandler.GetPlatformSettings)
	admin.PUT("/settings", settingsHandler.UpdatePlatformSettings)
	admin.GET("/analytics", reportHandler.PlatformAnalytics)

	return e
}
