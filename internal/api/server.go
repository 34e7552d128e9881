// Package api exposes training runs and their metric series over HTTP:
// run lifecycle, point ingestion, series retrieval and rendered plots.
package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/Sam-Fatehmanesh/BrainSim/internal/runstore"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/plot"
)

type Server struct {
	store *runstore.Store
}

func NewServer(store *runstore.Store) *Server {
	return &Server{store: store}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/runs", s.handleCreateRun)
	e.GET("/v1/runs", s.handleListRuns)
	e.GET("/v1/runs/:id", s.handleGetRun)
	e.DELETE("/v1/runs/:id", s.handleDeleteRun)
	e.POST("/v1/runs/:id/points", s.handleAppendPoints)
	e.GET("/v1/runs/:id/series", s.handleListSeries)
	e.GET("/v1/runs/:id/series/:name", s.handleGetSeries)
	e.GET("/v1/runs/:id/series/:name/plot.png", s.handleSeriesPlot)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRun(c *echo.Context) error {
	req, err := decodeJSON[CreateRunReq](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Name == "" {
		return writeBadRequest(c, "run name is required")
	}
	run, err := s.store.CreateRun(c.Request().Context(), req.Name, req.Seed, req.Notes)
	if err != nil {
		return writeServerError(c, err.Error())
	}
	return c.JSON(http.StatusOK, runResp(run))
}

func (s *Server) handleListRuns(c *echo.Context) error {
	runs, err := s.store.ListRuns(c.Request().Context())
	if err != nil {
		return writeServerError(c, err.Error())
	}
	out := ListRunsResp{Runs: make([]RunResp, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, runResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetRun(c *echo.Context) error {
	run, err := s.store.GetRun(c.Request().Context(), c.Param("id"))
	if errors.Is(err, runstore.ErrNotFound) {
		return writeNotFound(c, "no such run")
	}
	if err != nil {
		return writeServerError(c, err.Error())
	}
	return c.JSON(http.StatusOK, runResp(run))
}

func (s *Server) handleDeleteRun(c *echo.Context) error {
	id := c.Param("id")
	err := s.store.DeleteRun(c.Request().Context(), id)
	if errors.Is(err, runstore.ErrNotFound) {
		return writeNotFound(c, "no such run")
	}
	if err != nil {
		return writeServerError(c, err.Error())
	}
	return c.JSON(http.StatusOK, DeleteRunResp{ID: id, Deleted: true})
}

func (s *Server) handleAppendPoints(c *echo.Context) error {
	req, err := decodeJSON[AppendPointsReq](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Points) == 0 {
		return writeBadRequest(c, "no points supplied")
	}
	points := make([]runstore.Point, 0, len(req.Points))
	for _, p := range req.Points {
		if p.Series == "" {
			return writeBadRequest(c, "point without a series name")
		}
		points = append(points, runstore.Point{
			Series: p.Series,
			Step:   p.Step,
			Value:  float64(p.Value),
		})
	}
	err = s.store.AppendPoints(c.Request().Context(), c.Param("id"), points)
	if errors.Is(err, runstore.ErrNotFound) {
		return writeNotFound(c, "no such run")
	}
	if err != nil {
		return writeServerError(c, err.Error())
	}
	return c.JSON(http.StatusOK, AppendPointsResp{Appended: len(points)})
}

func (s *Server) handleListSeries(c *echo.Context) error {
	infos, err := s.store.ListSeries(c.Request().Context(), c.Param("id"))
	if errors.Is(err, runstore.ErrNotFound) {
		return writeNotFound(c, "no such run")
	}
	if err != nil {
		return writeServerError(c, err.Error())
	}
	out := ListSeriesResp{Series: make([]SeriesInfoResp, 0, len(infos))}
	for _, si := range infos {
		out.Series = append(out.Series, SeriesInfoResp{Name: si.Name, Count: si.Count})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSeries(c *echo.Context) error {
	values, err := s.fetchSeries(c)
	if err != nil {
		return err
	}
	if values == nil {
		return nil // error response already written
	}
	return c.JSON(http.StatusOK, SeriesResp{
		Name:   c.Param("name"),
		Values: metricValues(values),
	})
}

func (s *Server) handleSeriesPlot(c *echo.Context) error {
	values, err := s.fetchSeries(c)
	if err != nil {
		return err
	}
	if values == nil {
		return nil
	}
	// gonum/plot cannot place non-finite points; drop them rather than
	// failing the whole chart.
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	png, err := plot.Render(finite, plot.Config{
		Title:  c.Param("name"),
		YLabel: c.Param("name"),
	})
	if errors.Is(err, plot.ErrNoValues) {
		return writeNotFound(c, "series has no plottable values")
	}
	if err != nil {
		return writeServerError(c, err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// fetchSeries loads the requested series, writing the error response
// itself when the series cannot be served. A nil slice with a nil error
// means the response is already complete.
func (s *Server) fetchSeries(c *echo.Context) ([]float64, error) {
	values, err := s.store.Series(c.Request().Context(), c.Param("id"), c.Param("name"))
	if errors.Is(err, runstore.ErrNotFound) {
		return nil, writeNotFound(c, "no such run or series")
	}
	if err != nil {
		return nil, writeServerError(c, err.Error())
	}
	return values, nil
}

func runResp(r runstore.Run) RunResp {
	return RunResp{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Seed:      r.Seed,
		Notes:     r.Notes,
	}
}
