package api

import (
	"context"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/thenamerahulkr/cems/docs"
	v1 "github.com/thenamerahulkr/cems/internal/api/handler/v1"
	"github.com/thenamerahulkr/cems/internal/api/middleware"
	"github.com/thenamerahulkr/cems/internal/config"
	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/notify"
	"github.com/thenamerahulkr/cems/internal/repository"
	"github.com/thenamerahulkr/cems/internal/repository/dao"
	"github.com/thenamerahulkr/cems/internal/service"
)

// Integrations are the collaborators owned by the process rather than the
// HTTP layer.
type Integrations struct {
	Hub     *notify.Hub
	Gateway service.PaymentGateway
	Tickets TicketCodec
	Storage service.BannerStorage
}

// TicketCodec issues and parses the signed QR payloads.
type TicketCodec interface {
	service.TicketIssuer
	service.TicketParser
}

type repositories struct {
	users         *repository.UserRepository
	events        *repository.EventRepository
	registrations *repository.RegistrationRepository
	notifications *repository.NotificationRepository
	outbox        *repository.OutboxRepository
}

func newRepositories(db *gorm.DB) repositories {
	return repositories{
		users:         repository.NewUserRepository(dao.NewUserDAO(db)),
		events:        repository.NewEventRepository(dao.NewEventDAO(db)),
		registrations: repository.NewRegistrationRepository(dao.NewRegistrationDAO(db)),
		notifications: repository.NewNotificationRepository(dao.NewNotificationDAO(db)),
		outbox:        repository.NewOutboxRepository(dao.NewOutboxDAO(db)),
	}
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	repos    repositories
	ints     Integrations
	users    *service.UserService
	auth     *service.AuthService
	notifier *service.NotificationService
	mail     *service.MailQueue
}

func NewServer(conf *config.AppConfig, db *gorm.DB, ints Integrations) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		repos:  newRepositories(db),
		ints:   ints,
	}

	s.users = service.NewUserService(s.repos.users)
	s.notifier = service.NewNotificationService(s.repos.notifications, ints.publisher())
	s.mail = service.NewMailQueue(s.repos.outbox, conf.Mail.FrontendURL)
	s.auth = service.NewAuthService(s.repos.users, s.notifier, s.mail)

	s.MountMiddlewares()
	s.MountHandlers(handlers{
		auth:         s.initAuthHandler(),
		event:        s.initEventHandler(),
		registration: s.initRegistrationHandler(),
		payment:      s.initPaymentHandler(),
		qr:           s.initQRHandler(),
		notification: s.initNotificationHandler(),
		admin:        s.initAdminHandler(),
	})

	return s
}

// EnsureAdmin creates the bootstrap admin from the admin config block.
func (s *Server) EnsureAdmin(ctx context.Context) error {
	admin := s.Config.Admin
	if admin == nil {
		return nil
	}

	return s.auth.EnsureAdmin(ctx, admin.Name, admin.Email, admin.Password)
}

// Reminders builds the reminder service over the same repositories and mail queue.
func (s *Server) Reminders(loc *time.Location) *service.ReminderService {
	return service.NewReminderService(s.repos.events, s.repos.users, s.mail, loc)
}

// Outbox is the store the mail relay drains.
func (s *Server) Outbox() *repository.OutboxRepository {
	return s.repos.outbox
}

func (i Integrations) publisher() service.Publisher {
	if i.Hub == nil {
		return nil
	}

	return i.Hub
}

type handlers struct {
	auth         *v1.AuthHandler
	event        *v1.EventHandler
	registration *v1.RegistrationHandler
	payment      *v1.PaymentHandler
	qr           *v1.QRHandler
	notification *v1.NotificationHandler
	admin        *v1.AdminHandler
}

func (s *Server) initAuthHandler() *v1.AuthHandler {
	return v1.NewAuthHandler(s.Config.API, s.auth)
}

func (s *Server) initEventHandler() *v1.EventHandler {
	svc := service.NewEventService(s.repos.events, s.repos.users, s.ints.Storage, s.notifier)
	return v1.NewEventHandler(svc)
}

func (s *Server) initRegistrationHandler() *v1.RegistrationHandler {
	svc := service.NewRegistrationService(s.repos.events, s.repos.registrations, s.ints.Tickets, s.notifier, s.mail)
	return v1.NewRegistrationHandler(svc)
}

func (s *Server) initPaymentHandler() *v1.PaymentHandler {
	svc := service.NewPaymentService(s.repos.events, s.repos.registrations, s.ints.Gateway, s.ints.Tickets,
		s.notifier, s.mail, s.Config.Razorpay.Currency)
	return v1.NewPaymentHandler(svc)
}

func (s *Server) initQRHandler() *v1.QRHandler {
	svc := service.NewCheckInService(s.repos.registrations, s.ints.Tickets)
	return v1.NewQRHandler(svc, s.Config.QR.RequireToken)
}

func (s *Server) initNotificationHandler() *v1.NotificationHandler {
	return v1.NewNotificationHandler(s.notifier, s.ints.Hub, s.Config.API.AllowedCORSDomains)
}

func (s *Server) initAdminHandler() *v1.AdminHandler {
	svc := service.NewAdminService(s.repos.users, s.repos.events, s.repos.registrations, s.notifier, s.mail)
	return v1.NewAdminHandler(svc)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api"

	jwt := middleware.NewAuthenticator(s.Config.API.JWTSigningKey, s.users).VerifyJWT()
	staff := []gin.HandlerFunc{
		jwt,
		middleware.RequireRole(domain.RoleOrganizer, domain.RoleAdmin),
		middleware.RequireApproved(),
	}
	adminOnly := []gin.HandlerFunc{jwt, middleware.RequireRole(domain.RoleAdmin)}

	api := s.Router.Group(basePath)
	api.GET("/health", v1.HandleHealthcheck)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.auth.HandleSignup)
		auth.POST("/login", h.auth.HandleLogin)
		auth.GET("/me", jwt, h.auth.HandleMe)
	}

	events := api.Group("/events")
	{
		events.GET("", h.event.HandleListEvents)
		events.GET("/:id", h.event.HandleGetEvent)
	}
	manage := api.Group("/events", staff...)
	{
		manage.POST("", h.event.HandleCreateEvent)
		manage.PUT("/:id", h.event.HandleUpdateEvent)
		manage.DELETE("/:id", h.event.HandleDeleteEvent)
		manage.POST("/:id/banner", h.event.HandleUploadBanner)
	}
	moderate := api.Group("/events", adminOnly...)
	{
		moderate.POST("/:id/approve", h.event.HandleApproveEvent)
		moderate.POST("/:id/reject", h.event.HandleRejectEvent)
	}

	registrations := api.Group("/registrations", jwt)
	{
		registrations.GET("/my-events", h.registration.HandleMyEvents)
		registrations.POST("/:eventId/register", h.registration.HandleRegister)
		registrations.DELETE("/:eventId/unregister", h.registration.HandleUnregister)
	}
	participants := api.Group("/registrations", staff...)
	{
		participants.GET("/:eventId/participants", h.registration.HandleParticipants)
	}

	payments := api.Group("/payment", jwt)
	{
		payments.POST("/create-order", h.payment.HandleCreateOrder)
		payments.POST("/verify", h.payment.HandleVerifyPayment)
		payments.GET("/payment/:paymentId", h.payment.HandlePaymentDetails)
	}
	refunds := api.Group("/payment", staff...)
	{
		refunds.POST("/refund", h.payment.HandleRefund)
	}

	qr := api.Group("/qr", staff...)
	{
		qr.POST("/verify", h.qr.HandleVerify)
	}

	notifications := api.Group("/notifications", jwt)
	{
		notifications.GET("", h.notification.HandleList)
		notifications.GET("/ws", h.notification.HandleWebSocket)
		notifications.PATCH("/read-all", h.notification.HandleMarkAllRead)
		notifications.PATCH("/:id/read", h.notification.HandleMarkRead)
		notifications.DELETE("/:id", h.notification.HandleDelete)
	}

	admin := api.Group("/admin", adminOnly...)
	{
		admin.GET("/stats", h.admin.HandleStats)
		admin.GET("/users", h.admin.HandleListUsers)
		admin.GET("/pending-organizers", h.admin.HandlePendingOrganizers)
		admin.DELETE("/users/:id", h.admin.HandleDeleteUser)
		admin.POST("/organizers/:id/approve", h.admin.HandleApproveOrganizer)
		admin.POST("/organizers/:id/reject", h.admin.HandleRejectOrganizer)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "CEMS API"
	docs.SwaggerInfo.Description = "College Event Management System: events, registrations, payments and QR check-in."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
