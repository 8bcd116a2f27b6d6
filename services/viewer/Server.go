// Package viewer serves a session over HTTP: the graph as JSON, node operations, ledger and
// workspace export, a websocket stream of views and prometheus metrics.
package viewer

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/simulation"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/bsv-blockchain/txflow/util/health"
	"github.com/bsv-blockchain/txflow/util/servicemanager"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	logger   ulogger.Logger
	settings *settings.Settings
	session  *simulation.Session
	hub      *hub
	e        *echo.Echo
	httpAddr string
}

func New(logger ulogger.Logger, tSettings *settings.Settings, session *simulation.Session) *Server {
	initPrometheusMetrics()

	return &Server{
		logger:   logger,
		settings: tSettings,
		session:  session,
		hub:      newHub(logger, session, 3*tSettings.Simulation.FrameInterval, tSettings.Viewer.WebsocketPing),
	}
}

// Health reports the session loop and the fetch pipeline. Liveness only needs the server to exist.
func (s *Server) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	checks := []health.Check{
		{Name: "session", Check: func(context.Context, bool) (int, string, error) {
			v := s.session.Latest()
			if v == nil {
				return http.StatusServiceUnavailable, "no view published", nil
			}

			return http.StatusOK, fmt.Sprintf("frame %d, %s, %d nodes", v.Frame, v.State, len(v.Snapshot.Nodes)), nil
		}},
		{Name: "fetch", Check: func(context.Context, bool) (int, string, error) {
			return http.StatusOK, fmt.Sprintf("%d fetches in flight", s.session.Pipeline().InFlight()), nil
		}},
	}

	return health.CheckAll(ctx, checkLiveness, checks)
}

func (s *Server) Init(ctx context.Context) error {
	s.httpAddr = s.settings.Viewer.HTTPListenAddress
	if s.httpAddr == "" {
		return errors.NewConfigurationError("viewer_httpListenAddress is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.OPTIONS},
	}))

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			prometheusViewerRequests.WithLabelValues(c.Path(), strconv.Itoa(c.Response().Status)).Inc()

			return err
		}
	})

	e.GET("/alive", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	e.GET("/health", func(c echo.Context) error {
		status, details, err := s.Health(c.Request().Context(), false)
		if err != nil {
			return sendError(c, err)
		}

		return c.Blob(status, echo.MIMEApplicationJSON, []byte(details))
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws", s.HandleWebSocket)

	api := e.Group(s.settings.Viewer.APIPrefix)

	api.GET("/graph", s.GetGraph)
	api.POST("/root/:txid", s.SetRoot)
	api.POST("/tx/:txid", s.AddTransaction)
	api.POST("/node/:id/expand/:side", s.Expand)
	api.POST("/node/:id/collapse/:side", s.Collapse)
	api.POST("/node/:id/retry", s.Retry)
	api.POST("/node/:id/unpin", s.Unpin)
	api.PUT("/node/:id/annotation", s.Annotate)
	api.PUT("/node/:id/:side/:index/annotation", s.AnnotatePort)
	api.PUT("/node/:id/position", s.MoveNode)
	api.POST("/reflow", s.Reflow)
	api.GET("/ledger", s.GetLedger)
	api.GET("/workspace", s.GetWorkspace)
	api.PUT("/workspace", s.PutWorkspace)

	s.e = e

	return nil
}

// Handler returns the configured routes. Init must have been called.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start runs the session loop, the websocket hub and the HTTP listener until ctx is done.
func (s *Server) Start(ctx context.Context, readyCh chan<- struct{}) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.session.Run(ctx)
	})

	g.Go(func() error {
		s.hub.run(ctx)
		return nil
	})

	g.Go(func() error {
		return s.startHTTP(ctx, readyCh)
	})

	return g.Wait()
}

func (s *Server) startHTTP(ctx context.Context, readyCh chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return errors.NewServiceError("[Viewer] failed to listen on %s", s.httpAddr, err)
	}

	s.e.Listener = ln

	s.logger.Infof("Viewer HTTP service listening on %s", ln.Addr())
	servicemanager.AddListenerInfo(fmt.Sprintf("Viewer HTTP listening on %s", ln.Addr()))

	go func() {
		<-ctx.Done()
		s.logger.Infof("[Viewer] HTTP service shutting down")

		if err := s.e.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("[Viewer] HTTP service shutdown error: %s", err)
		}
	}()

	close(readyCh)

	if err = s.e.Start(""); err != nil && err != http.ErrServerClosed {
		return errors.NewServiceError("[Viewer] HTTP service failed", err)
	}

	return nil
}

// Addr is the address the listener is bound to, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.e == nil || s.e.Listener == nil {
		return nil
	}

	return s.e.Listener.Addr()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.e == nil {
		return nil
	}

	_ = s.e.Shutdown(ctx)
	s.session.Close()

	return nil
}
