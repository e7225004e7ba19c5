package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"task_manager/internal/models"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string)
	Profile(ctx context.Context, userID uuid.UUID) (models.User, error)

	ListTasks(ctx context.Context, userID uuid.UUID, q service.ListQuery) (models.TaskPage, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (models.Task, error)
	CreateTask(ctx context.Context, userID uuid.UUID, in service.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, patch service.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	ToggleTask(ctx context.Context, userID, taskID uuid.UUID) (models.Task, error)

	Ping(ctx context.Context) error
}

// TokenVerifier checks access tokens without touching the record store.
type TokenVerifier interface {
	VerifyAccess(token string) (uuid.UUID, error)
}

type CookieOptions struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

type Options struct {
	Cookie       CookieOptions
	AllowOrigins []string
	RateLimitRPS float64
	RateBurst    int
}

type Handler struct {
	serviceLayer Service
	verifier     TokenVerifier
	log          *slog.Logger
	opts         Options
	limiter      *ipLimiter
}

type errorResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

func NewHandler(srvc Service, verifier TokenVerifier, lgr *slog.Logger, opts Options) *Handler {
	h := &Handler{
		serviceLayer: srvc,
		verifier:     verifier,
		log:          lgr,
		opts:         opts,
	}

	if opts.RateLimitRPS > 0 {
		h.limiter = newIPLimiter(opts.RateLimitRPS, opts.RateBurst)
	}

	return h
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()

	router.Use(
		RequestLogger(h.log),
		Recovery(h.log),
		CorsMiddleware(h.opts.AllowOrigins),
	)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running")
	})
	router.GET("/health", h.Health)

	authMW := AuthMiddleware(h.verifier, h.log)

	auth := router.Group("/auth")
	{
		credentials := auth.Group("")
		if h.limiter != nil {
			credentials.Use(RateLimitMiddleware(h.limiter))
		}
		credentials.POST("/register", h.Register)
		credentials.POST("/login", h.Login)

		auth.POST("/refresh", h.Refresh)
		auth.DELETE("/refresh", h.Logout)
		auth.POST("/logout", h.Logout)

		auth.GET("/profile", authMW, h.GetProfile)
	}

	tasks := router.Group("/tasks", authMW)
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/:id", h.GetTask)
		tasks.PATCH("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
		tasks.PATCH("/:id/toggle", h.ToggleTask)
	}

	return router
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.serviceLayer.Ping(ctx); err != nil {
		h.log.Warn("health check failed", slog.Any("error", err))

		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
