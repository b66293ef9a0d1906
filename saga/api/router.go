package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-foreman/enrollsaga/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	TraceIDHeader = "X-Trace-Id"
	traceIDKey    = "traceId"
)

func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Trace())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	sagas := r.Group("/enrollments/saga")
	sagas.POST("/enroll", h.Enroll)
	sagas.GET("/status/:sagaId", h.GetStatus)
	sagas.GET("", h.List)

	r.POST("/payments", h.CreatePayment)

	return r
}

// Trace takes the trace id from the request header or generates one, and echoes it back
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

func TraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}

type Server struct {
	httpServer *http.Server
	logger     log.Logger
}

func NewServer(address string, handler http.Handler, logger log.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until ctx is done, then shuts the server down within shutdownTimeout
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Logf(log.InfoLevel, "started saga api server on `%s`", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "serving saga api on %s", s.httpServer.Addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down saga api server")
	}

	return nil
}
