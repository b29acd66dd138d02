package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"fieldops-sim/internal/farm"
	"fieldops-sim/internal/series"
	"fieldops-sim/internal/sim"
)

const (
	defaultReadingLimit = series.DefaultWindow
	maxReadingLimit     = 1000
)

type indexData struct {
	Farm  string
	Plots []series.PlotStats
	Stats sim.Stats
}

func (s *Server) handleIndex(c echo.Context) error {
	plots, err := s.series.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index.html", indexData{
		Farm:  s.farmName,
		Plots: plots,
		Stats: s.sim.Stats(),
	})
}

func (s *Server) handleTempHumidity(c echo.Context) error {
	raw := c.QueryParam("plotId")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "plotId is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid plotId %q", raw))
	}
	chart, err := s.series.BuildSeries(c.Request().Context(), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chart)
}

func (s *Server) handlePlots(c echo.Context) error {
	plots, err := s.series.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plots)
}

type readingsResponse struct {
	Sensor   farm.Sensor    `json:"sensor"`
	Readings []farm.Reading `json:"readings"`
}

func (s *Server) handleSensorReadings(c echo.Context) error {
	limit := defaultReadingLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
		}
		limit = min(n, maxReadingLimit)
	}

	ctx := c.Request().Context()
	sensor, err := s.repo.SensorByCode(ctx, c.Param("code"))
	if err != nil {
		return err
	}
	readings, err := s.repo.RecentReadings(ctx, sensor.ID, limit)
	if err != nil {
		return err
	}
	if readings == nil {
		readings = []farm.Reading{}
	}
	return c.JSON(http.StatusOK, readingsResponse{Sensor: sensor, Readings: readings})
}

func (s *Server) handleTick(c echo.Context) error {
	row, err := s.sim.Tick(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, row)
	}
	return c.JSON(http.StatusOK, row)
}

type healthResponse struct {
	OK        bool      `json:"ok"`
	Database  string    `json:"database"`
	UptimeSec int       `json:"uptime_sec"`
	Stats     sim.Stats `json:"stats"`
	Time      string    `json:"time"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := healthResponse{
		OK:        true,
		Database:  "ok",
		UptimeSec: int(time.Since(s.started).Seconds()),
		Stats:     s.sim.Stats(),
		Time:      time.Now().Format(time.RFC3339),
	}
	if p, ok := s.repo.(pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			resp.OK = false
			resp.Database = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func formatMoney(v float64) string { return fmt.Sprintf("%.2f €", v) }

func formatTemp(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f °C", *v)
}
