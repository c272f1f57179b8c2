// SPDX-License-Identifier: Apache-2.0

// Package httpapi serves the tools over plain HTTP+JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/tool"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Logger *zap.Logger
	// Registry receives the request metrics and is served on /metrics.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// Server is the HTTP front end of the tools.
type Server struct {
	echo     *echo.Echo
	tools    *tool.Tools
	logger   *zap.Logger
	requests *prometheus.CounterVec
}

// New builds the routes.
func New(tools *tool.Tools, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		echo:   echo.New(),
		tools:  tools,
		logger: logger,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "torah_mcp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(s.requests)

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.requests.WithLabelValues(c.Path(), strconv.Itoa(v.Status)).Inc()
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	v1 := e.Group("/v1")
	v1.POST("/resolve", s.resolve)
	v1.POST("/explain", s.explain)
	v1.POST("/chavruta", s.chavruta)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", zap.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) resolve(c echo.Context) error {
	var in tool.InputResolveReference
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, out, err := s.tools.ResolveReference(c.Request().Context(), nil, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) explain(c echo.Context) error {
	var in tool.InputExplainQuestion
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, out, err := s.tools.ExplainQuestion(c.Request().Context(), nil, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) chavruta(c echo.Context) error {
	var in tool.InputGuidedChavruta
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, out, err := s.tools.GuidedChavruta(c.Request().Context(), nil, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// handleError renders every error as {"error": message}.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	case errors.Is(err, tool.ErrInvalidInput):
		code = http.StatusBadRequest
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}
