package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ogurasousui/hr-backoffice/internal/adapters/http/handler"
	"github.com/ogurasousui/hr-backoffice/internal/adapters/http/middleware"
	"github.com/ogurasousui/hr-backoffice/internal/core/scope"
	"github.com/ogurasousui/hr-backoffice/internal/platform/config"
)

const shutdownTimeout = 10 * time.Second

// Handlers は HTTP サーバーに登録するハンドラ一式です。
type Handlers struct {
	Assignment *handler.AssignmentHandler
	Leave      *handler.LeaveHandler
}

// Server は gin ベースの HTTP サーバーをラップします。
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New は Server を生成し、ミドルウェアとルートを配線します。
func New(cfg config.Config, gate scope.Resolver, handlers Handlers, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !cfg.Logging.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			MaxAge:           12 * time.Hour,
			AllowCredentials: false,
		}),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ストア呼び出しを常に有界にするため、期限の設定は認証より前に行う。
	// Gate の社員参照もこの期限の下で走る。
	api := engine.Group("/api/v1")
	api.Use(
		middleware.Timeout(cfg.Database.StatementTimeout),
		middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, gate, logger),
	)

	if handlers.Assignment != nil {
		handlers.Assignment.RegisterRoutes(api)
	}
	if handlers.Leave != nil {
		handlers.Leave.RegisterRoutes(api)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.ListenAddr,
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
	}
}

// Run はサーバーを起動し、ctx のキャンセルで graceful shutdown します。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
