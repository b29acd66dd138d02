// Package api exposes the farm overview, chart series and manual ticks over HTTP.
package api

import (
	"context"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/logging"
	"fieldops-sim/internal/series"
	"fieldops-sim/internal/sim"
	"fieldops-sim/internal/telemetry"
)

// Ticker runs ticks on demand and reports engine counters.
type Ticker interface {
	Tick(ctx context.Context) (telemetry.TickRow, error)
	Stats() sim.Stats
}

// pinger is implemented by repositories backed by a real database.
type pinger interface {
	Ping(ctx context.Context) error
}

//go:embed templates/index.html
var content embed.FS

type renderer struct {
	tpl *template.Template
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.tpl.ExecuteTemplate(w, name, data)
}

// Server wires the HTTP routes to the repository, the series builder and the simulator.
type Server struct {
	Echo     *echo.Echo
	repo     farm.Repository
	series   *series.Builder
	sim      Ticker
	farmName string
	started  time.Time
	log      *slog.Logger
}

// NewServer builds the echo instance with every route registered.
func NewServer(repo farm.Repository, builder *series.Builder, ticker Ticker, farmName string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"money": formatMoney,
		"temp":  formatTemp,
	}).ParseFS(content, "templates/index.html"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &renderer{tpl: tpl}
	e.HTTPErrorHandler = errorHandler(log)
	e.Use(middleware.Recover())
	e.Use(withLogger(log))
	e.Use(requestLogger(log))

	s := &Server{
		Echo:     e,
		repo:     repo,
		series:   builder,
		sim:      ticker,
		farmName: farmName,
		started:  time.Now(),
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/", s.handleIndex)
	s.Echo.GET("/healthz", s.handleHealth)

	g := s.Echo.Group("/api")
	g.GET("/dashboard/temp-humidity", s.handleTempHumidity)
	g.GET("/plots", s.handlePlots)
	g.GET("/sensors/:code/readings", s.handleSensorReadings)
	g.POST("/ticks", s.handleTick)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("http server listening", "addr", addr)
	return s.Echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// withLogger stores log in every request context so the engine logs through it.
func withLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.NewContext(req.Context(), log)))
			return next(c)
		}
	}
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "err", v.Error)
				return nil
			}
			log.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	})
}
