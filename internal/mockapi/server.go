// Package mockapi is an in-memory stand-in for the snapgram backend. It
// speaks the same envelope and routes as production, pushes post changes
// over a websocket, and is used for local development and end-to-end tests.
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snapgram/cli/pkg/logger"
)

// Options configures a Server.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	SeedUsers int
	Seed      int64
}

type Server struct {
	store  *Store
	tokens *Tokens
	hub    *Hub
	engine *gin.Engine
}

// New builds a server with a fresh store. SeedUsers > 0 seeds it.
func New(opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}

	s := &Server{
		store:  NewStore(),
		tokens: NewTokens(opts.JWTSecret, opts.TokenTTL),
		hub:    NewHub(),
	}
	if opts.SeedUsers > 0 {
		if err := Seed(s.store, opts.SeedUsers, opts.Seed); err != nil {
			return nil, err
		}
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) Store() *Store   { return s.store }
func (s *Server) Hub() *Hub       { return s.hub }
func (s *Server) Tokens() *Tokens { return s.tokens }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger())

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(config))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": s.hub.Len()})
	})

	auth := s.requireAuth()

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/login", s.login)
		authGroup.POST("/kakao", s.kakaoLogin)
		authGroup.GET("/me", auth, s.me)

		apiGroup.GET("/feed", auth, s.feed)

		posts := apiGroup.Group("/posts")
		posts.GET("", s.listPosts)
		posts.POST("", auth, s.createPost)
		posts.GET("/:id", s.getPost)
		posts.PUT("/:id", auth, s.updatePost)
		posts.DELETE("/:id", auth, s.deletePost)

		users := apiGroup.Group("/users/:username")
		users.GET("", s.optionalAuth(), s.getProfile)
		users.PUT("", auth, s.updateProfile)
		users.GET("/posts", s.userPosts)
		users.GET("/followers", s.followers)
		users.GET("/following", s.following)
		users.POST("/follow", auth, s.follow)
		users.DELETE("/follow", auth, s.unfollow)

		apiGroup.POST("/files", auth, s.uploadFile)
	}

	r.GET("/files/:name", s.serveFile)
	r.GET("/ws", auth, s.handleWebSocket)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Mock API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down mock API")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestID echoes or generates X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request completed",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
