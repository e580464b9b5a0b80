package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"churchadmin/internal/access"
	"churchadmin/internal/auth"
	"churchadmin/internal/config"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/handler"
	"churchadmin/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Ministry     *handler.MinistryHandler
	Event        *handler.EventHandler
	Announcement *handler.AnnouncementHandler
	Message      *handler.MessageHandler
	Finance      *handler.FinanceHandler
	Dashboard    *handler.DashboardHandler
}

// Deps carries the infrastructure the middleware chain needs.
type Deps struct {
	JWT         *auth.JWTService
	Revocations middleware.RevocationChecker
	Identities  middleware.IdentityLoader
	Redis       *redis.Client
	Log         *logrus.Logger
}

var (
	financeStaff = access.AnyRole(access.RoleFinanceCommittee, access.RoleAdministrator)

	requireAdmin = middleware.RequireAuthorization(access.AnyRole(access.RoleAdministrator))
)

func finance(perm string) echo.MiddlewareFunc {
	return middleware.RequireAuthorization(access.AnyOf(financeStaff, access.Permission(perm)))
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, deps Deps, h Handlers) {
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(deps.Log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomw.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	limited := middleware.RateLimit(cfg.RateLimit, deps.Redis, deps.Log)
	api.POST("/auth/register", h.Auth.Register, limited)
	api.POST("/auth/login", h.Auth.Login, limited)
	api.POST("/auth/refresh", h.Auth.Refresh, limited)

	// Secured routes
	secured := api.Group("", middleware.Authenticate(deps.JWT, deps.Revocations, deps.Identities))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)

	secured.GET("/profile", h.User.Profile)
	secured.PUT("/profile", h.User.UpdateProfile)
	secured.GET("/me/financial-history", h.User.MyFinancialHistory)

	users := secured.Group("/users")
	users.GET("", h.User.List, requireAdmin)
	users.POST("", h.User.Create, requireAdmin)
	users.GET("/:id", h.User.Get, requireAdmin)
	users.PUT("/:id", h.User.Update, requireAdmin)
	users.DELETE("/:id", h.User.Delete, requireAdmin)
	users.POST("/:id/roles", h.User.AssignRole, requireAdmin)
	users.DELETE("/:id/roles/:role", h.User.RemoveRole, requireAdmin)
	users.GET("/:id/ministries", h.User.Ministries, requireAdmin)
	users.GET("/:id/contributions", h.User.Contributions)
	users.GET("/:id/donations", h.User.Donations)
	users.GET("/:id/financial-history", h.User.FinancialHistory)

	ministries := secured.Group("/ministries")
	ministries.GET("", h.Ministry.List)
	ministries.POST("", h.Ministry.Create, middleware.RequireAuthorization(access.Permission(access.PermCreateMinistries)))
	ministries.GET("/:id", h.Ministry.Get)
	ministries.PUT("/:id", h.Ministry.Update, middleware.RequireAuthorization(access.Permission(access.PermEditMinistries)))
	ministries.DELETE("/:id", h.Ministry.Delete, middleware.RequireAuthorization(access.Permission(access.PermEditMinistries)))
	ministries.GET("/:id/members", h.Ministry.Members)
	ministries.POST("/:id/members", h.Ministry.AddMember)
	ministries.DELETE("/:id/members/:user_id", h.Ministry.RemoveMember)
	ministries.GET("/:id/contributions", h.Ministry.Contributions, finance(access.PermViewContributions))

	events := secured.Group("/events")
	events.GET("", h.Event.List)
	events.POST("", h.Event.Create)
	events.GET("/:id", h.Event.Get)
	events.PUT("/:id", h.Event.Update)
	events.DELETE("/:id", h.Event.Delete)
	events.POST("/:id/publish", h.Event.Publish)
	events.POST("/:id/register", h.Event.Register)
	events.POST("/:id/unregister", h.Event.Unregister)
	events.DELETE("/:id/unregister", h.Event.Unregister)
	events.POST("/:id/attendance", h.Event.MarkAttendance)
	events.GET("/:id/attendees", h.Event.Attendees)

	announcements := secured.Group("/announcements")
	announcements.GET("", h.Announcement.List)
	announcements.POST("", h.Announcement.Create)
	announcements.GET("/:id", h.Announcement.Get)
	announcements.PUT("/:id", h.Announcement.Update)
	announcements.DELETE("/:id", h.Announcement.Delete)
	announcements.POST("/:id/publish", h.Announcement.Publish)
	announcements.POST("/:id/unpublish", h.Announcement.Unpublish)

	messages := secured.Group("/messages")
	messages.GET("", h.Message.List)
	messages.GET("/inbox", h.Message.Inbox)
	messages.POST("", h.Message.Send)
	messages.POST("/broadcast", h.Message.Broadcast)
	messages.GET("/:id", h.Message.Get)
	messages.PUT("/:id", h.Message.Update)
	messages.DELETE("/:id", h.Message.Delete)
	messages.POST("/:id/read", h.Message.MarkRead)
	messages.POST("/:id/unread", h.Message.MarkUnread)
	messages.POST("/:id/reply", h.Message.Reply)

	reports := finance(access.PermViewFinancialReport)
	contributions := secured.Group("/contributions")
	contributions.GET("/reports/summary", h.Finance.Summary, reports)
	contributions.GET("/reports/by-type", h.Finance.ReportByType, reports)
	contributions.GET("/reports/by-ministry", h.Finance.ReportByMinistry, reports)
	contributions.GET("/reports/by-date-range", h.Finance.ReportByDateRange, reports)
	contributions.POST("/reports/archive", h.Finance.Archive, reports)
	contributions.GET("", h.Finance.ListContributions, finance(access.PermViewContributions))
	contributions.POST("", h.Finance.CreateContribution, finance(access.PermCreateContributions))
	contributions.GET("/:id", h.Finance.GetContribution, finance(access.PermViewContributions))
	contributions.PUT("/:id", h.Finance.UpdateContribution, finance(access.PermEditContributions))
	contributions.DELETE("/:id", h.Finance.DeleteContribution, finance(access.PermEditContributions))
	contributions.PATCH("/:id/status", h.Finance.ContributionStatus, finance(access.PermEditContributions))

	donations := secured.Group("/donations")
	donations.GET("", h.Finance.ListDonations, finance(access.PermViewDonations))
	donations.POST("", h.Finance.CreateDonation, finance(access.PermCreateDonations))
	donations.GET("/:id", h.Finance.GetDonation, finance(access.PermViewDonations))
	donations.PUT("/:id", h.Finance.UpdateDonation, finance(access.PermEditDonations))
	donations.DELETE("/:id", h.Finance.DeleteDonation, finance(access.PermEditDonations))
	donations.PATCH("/:id/status", h.Finance.DonationStatus, finance(access.PermEditDonations))

	dashboard := secured.Group("/dashboard")
	dashboard.GET("/admin", h.Dashboard.Admin, requireAdmin)
	dashboard.GET("/pastor", h.Dashboard.Pastor, middleware.RequireAuthorization(access.AnyRole(access.RolePastor, access.RoleAdministrator)))
	dashboard.GET("/finance", h.Dashboard.Finance, middleware.RequireAuthorization(financeStaff))
	dashboard.GET("/member", h.Dashboard.Member)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports field errors under their json names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &apperrors.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return "the " + field + " field is required"
	case "email":
		return "the " + field + " field must be a valid email address"
	case "min":
		return "the " + field + " field must be at least " + fe.Param()
	case "max":
		return "the " + field + " field must not be greater than " + fe.Param()
	case "len":
		return "the " + field + " field must be " + fe.Param() + " characters"
	case "oneof":
		return "the selected " + field + " is invalid"
	case "eqfield":
		return "the " + field + " does not match"
	default:
		return "the " + field + " field is invalid"
	}
}
