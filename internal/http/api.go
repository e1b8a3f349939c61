package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"alertify/internal/auth"
	"alertify/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	tasks   service.TaskService
	tokens  *auth.TokenService
	logger  logrus.FieldLogger
	metrics *metrics
	login   *rate.Limiter
}

// Options tunes the ambient parts of the handler. Zero values pick defaults.
type Options struct {
	Logger     logrus.FieldLogger
	Registry   *prometheus.Registry
	LoginRate  float64
	LoginBurst int
}

func NewHandler(users service.UserService, tasks service.TaskService, tokens *auth.TokenService, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.LoginRate <= 0 {
		opts.LoginRate = 1
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}

	return &Handler{
		users:   users,
		tasks:   tasks,
		tokens:  tokens,
		logger:  opts.Logger,
		metrics: newMetrics(opts.Registry),
		login:   rate.NewLimiter(rate.Limit(opts.LoginRate), opts.LoginBurst),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger(), h.instrument(), corsMiddleware())

	router.GET("/api/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.rateLimitLogin(), h.loginUser)
		v1.POST("/users", h.createUser)
	}

	secured := v1.Group("", h.requireAuth())
	{
		secured.GET("/users", h.listUsers)
		secured.GET("/users/with-tasks", h.listUsersWithTasks)
		secured.GET("/users/:id", h.getUser)
		secured.GET("/users/:id/tasks", h.listUserTasks)
		secured.PUT("/users/:id", h.updateUser)
		secured.DELETE("/users/:id", h.deleteUser)

		secured.POST("/tasks", h.createTask)
		secured.GET("/tasks", h.listTasks)
		secured.GET("/tasks/:id", h.getTask)
		secured.PUT("/tasks/:id", h.updateTask)
		secured.DELETE("/tasks/:id", h.deleteTask)
		secured.PUT("/tasks/:id/assign/:userId", h.assignTask)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// pathID parses a positive int64 path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, codeInvalidInput, "invalid "+what+" id")
		return 0, false
	}
	return id, true
}
