// Package devserver is an in-process implementation of the bot platform
// REST API. It backs end-to-end tests and local development.
package devserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/koinsera/botadmin/internal/auth"
	"github.com/koinsera/botadmin/internal/config"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *config.Config
	logger  zerolog.Logger
	issuer  *auth.Issuer
	started time.Time
}

// New creates a new server instance with a migrated database and the
// lookup tables loaded.
func New(cfg *config.Config, zlog zerolog.Logger) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret := cfg.DevServer.JWTSecret
	if secret == "" {
		secret, err = generateSecret()
		if err != nil {
			return nil, err
		}
		zlog.Debug().Msg("JWT_SECRET not set, generated a random secret")
	}

	ttl := cfg.DevServer.TokenExpiresIn
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		issuer:  auth.NewIssuer(secret, ttl),
		started: time.Now(),
	}

	if err := server.seedLookups(); err != nil {
		return nil, err
	}
	if cfg.DevServer.Seed {
		if err := server.SeedDemo(); err != nil {
			return nil, err
		}
	}

	server.setupRouter()

	return server, nil
}

// generateSecret returns 64 random hex characters
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// initDatabase opens the SQLite database
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const busyTimeout = 5000 // 5 seconds

	dsn := cfg.Database.URL
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(
			gormWriter{zlog},
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	if !strings.Contains(dsn, ":memory:") {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// gormWriter routes gorm's logger into zerolog
type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Error().Str("component", "gorm").Msgf(format, args...)
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// cors.New panics on an empty origin list; no origins means no CORS
	if origins := s.config.DevServer.CORSOrigins; len(origins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)

	// Public endpoints
	s.router.POST("/api/auth/token", s.issueToken)
	s.router.POST("/api/auth/register", s.register)
	s.router.GET("/api/chat_types", s.listChatTypes)
	s.router.GET("/api/chat_statuses", s.listChatStatuses)

	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.issuer, s.logger))
	{
		api.GET("/auth/me", s.getCurrentUser)

		admin := api.Group("/admin")
		{
			admin.PUT("/me", s.updateProfile)

			admin.GET("/system", AdminOnlyMiddleware(s.logger), s.systemInfo)

			users := admin.Group("/users")
			users.Use(AdminOnlyMiddleware(s.logger))
			{
				users.GET("", s.listUsers)
				users.PUT("/:id", s.updateUser)
			}
		}

		api.GET("/bots", s.listBots)
		api.POST("/bots", s.createBot)
		api.PUT("/bots/:id", s.updateBot)
		api.DELETE("/bots/:id", s.deleteBot)

		api.GET("/chats", s.listChats)
		api.POST("/chats", s.createChat)
		api.PUT("/chats/:id", s.updateChat)
		api.DELETE("/chats/:id", s.deleteChat)

		api.GET("/chats/:id/participants", s.listParticipants)
		api.PUT("/chats/:id/participants/:employee", s.updateParticipant)
		api.DELETE("/chats/:id/participants/:employee", s.removeParticipant)

		api.GET("/employees", s.listEmployees)
		api.POST("/employees", s.createEmployee)
		api.PUT("/employees/:id", s.updateEmployee)
		api.DELETE("/employees/:id", s.deleteEmployee)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   serviceName,
	})
}

// Handler returns the HTTP handler, for httptest servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// DB returns the database connection
func (s *Server) DB() *gorm.DB {
	return s.db
}

// IssueToken signs an access token for login without checking credentials
func (s *Server) IssueToken(login string) (string, error) {
	return s.issuer.GenerateToken(login)
}

// Close releases the database
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start serves HTTP on the configured address until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.DevServer.Addr

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}
