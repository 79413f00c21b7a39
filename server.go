package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/middlewares"
	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/utils"
)

const defaultPort = "8080"

// RateLimiter is a fixed-window limiter keyed by client IP, counted in
// redis so every instance shares the same window.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "RateLimit:" + c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// First request in the window creates the key with its expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func registerRoutes(r *gin.Engine) {
	r.POST("/auth/login", loginHandler())

	api := r.Group("", middlewares.Authenticated())

	auth := api.Group("/auth")
	{
		auth.POST("/logout", logoutHandler())
		auth.POST("/logout-all", logoutAllHandler())
		auth.GET("/me", meHandler())
		auth.POST("/change-password", changePasswordHandler())
		auth.POST("/api-token", apiTokenHandler())
	}

	team := api.Group("/team")
	{
		team.GET("", listTeamHandler())
		team.GET("/:id", getTeamMemberHandler())
		team.POST("", middlewares.AdminOnly(), createTeamMemberHandler())
		team.PUT("/:id", middlewares.AdminOnly(), updateTeamMemberHandler())
		team.DELETE("/:id", middlewares.AdminOnly(), deleteTeamMemberHandler())
	}

	leads := api.Group("/leads")
	{
		leads.GET("", listLeadsHandler())
		leads.GET("/:id", getLeadHandler())
		leads.POST("", createLeadHandler())
		leads.PUT("/bulk", bulkUpdateLeadsHandler())
		leads.PUT("/:id", updateLeadHandler())
		leads.DELETE("/bulk", bulkDeleteLeadsHandler())
		leads.DELETE("/:id", deleteLeadHandler())
		leads.POST("/:id/convert", convertLeadHandler())
	}

	clients := api.Group("/clients")
	{
		clients.GET("", listClientsHandler())
		clients.GET("/:id", getClientHandler())
		clients.POST("", createClientHandler())
		clients.PUT("/:id", updateClientHandler())
		clients.DELETE("/:id", deleteClientHandler())
	}

	projects := api.Group("/projects")
	{
		projects.GET("", listProjectsHandler())
		projects.GET("/:id", getProjectHandler())
		projects.POST("", createProjectHandler())
		projects.PUT("/:id", updateProjectHandler())
		projects.DELETE("/:id", deleteProjectHandler())
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", listTasksHandler())
		tasks.GET("/:id", getTaskHandler())
		tasks.POST("", createTaskHandler())
		tasks.PUT("/bulk", bulkUpdateTasksHandler())
		tasks.PUT("/:id", updateTaskHandler())
		tasks.DELETE("/bulk", bulkDeleteTasksHandler())
		tasks.DELETE("/:id", deleteTaskHandler())
	}

	timeEntries := api.Group("/time-entries")
	{
		timeEntries.GET("", listTimeEntriesHandler())
		timeEntries.GET("/export", exportTimeEntriesHandler())
		timeEntries.GET("/:id", getTimeEntryHandler())
		timeEntries.POST("", createTimeEntryHandler())
		timeEntries.PUT("/:id", updateTimeEntryHandler())
		timeEntries.DELETE("/:id", deleteTimeEntryHandler())
	}

	expenses := api.Group("/expenses")
	{
		expenses.GET("", listExpensesHandler())
		expenses.GET("/export", exportExpensesHandler())
		expenses.GET("/:id", getExpenseHandler())
		expenses.POST("", createExpenseHandler())
		expenses.PUT("/bulk", bulkUpdateExpensesHandler())
		expenses.PUT("/:id", updateExpenseHandler())
		expenses.DELETE("/bulk", bulkDeleteExpensesHandler())
		expenses.DELETE("/:id", deleteExpenseHandler())
		expenses.POST("/:id/approve", middlewares.AdminOnly(), approveExpenseHandler())
		expenses.POST("/:id/reject", middlewares.AdminOnly(), rejectExpenseHandler())
	}

	budgets := api.Group("/budgets")
	{
		budgets.GET("", listBudgetsHandler())
		budgets.GET("/:id", getBudgetHandler())
		budgets.GET("/:id/utilization", budgetUtilizationHandler())
		budgets.POST("", createBudgetHandler())
		budgets.PUT("/:id", updateBudgetHandler())
		budgets.DELETE("/:id", deleteBudgetHandler())
	}

	invoices := api.Group("/invoices")
	{
		invoices.GET("", listInvoicesHandler())
		invoices.GET("/:id", getInvoiceHandler())
		invoices.POST("", createInvoiceHandler())
		invoices.PUT("/:id", updateInvoiceHandler())
		invoices.DELETE("/:id", deleteInvoiceHandler())
		invoices.POST("/:id/send", sendInvoiceHandler())
		invoices.POST("/:id/payments", recordPaymentHandler())
	}

	activities := api.Group("/activities")
	{
		activities.GET("", listActivitiesHandler())
		activities.GET("/:id", getActivityHandler())
		activities.POST("", createActivityHandler())
		activities.DELETE("/bulk", middlewares.AdminOnly(), bulkDeleteActivitiesHandler())
		activities.DELETE("/:id", middlewares.AdminOnly(), deleteActivityHandler())
	}

	reports := api.Group("/reports")
	{
		reports.GET("/dashboard", dashboardReportHandler())
		reports.GET("/lead-conversion", leadConversionReportHandler())
		reports.GET("/task-completion", taskCompletionReportHandler())
		reports.GET("/budget-utilization", budgetUtilizationReportHandler())
	}

	uploads := api.Group("/uploads")
	{
		uploads.POST("/sign", signUploadHandler())
		uploads.POST("/complete", completeUploadHandler())
	}

	attachments := api.Group("/attachments")
	{
		attachments.GET("", listAttachmentsHandler())
		attachments.DELETE("/:id", deleteAttachmentHandler())
	}

	admin := api.Group("/admin", middlewares.AdminOnly())
	{
		admin.POST("/cache/purge", purgeCacheHandler())
		admin.POST("/sessions/revoke", revokeSessionsHandler())
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()

	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetContextCorrelationId(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate everything else on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if config.RateLimitEnabled() {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (the startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables and causes 504/502
	// timeouts. Allow disabling migrations on startup (run them as a
	// separate job instead).
	if !config.SkipMigrations() {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"port": port,
	}).Info("api listening")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
