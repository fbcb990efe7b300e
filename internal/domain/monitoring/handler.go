package monitoring

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vitalis/vitalis/internal/platform/authz"
	"github.com/vitalis/vitalis/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires monitoring endpoints. No route-level role gates here:
// the engine decides per target, and self-access by plain users is legal.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/readings", h.Ingest)
	api.GET("/users/:id/readings", h.UserReadings)
	api.GET("/wearables/:id/readings", h.WearableReadings)
	api.GET("/users/:id/fall-risk", h.FallRisk)
	api.GET("/users/:id/rehab-progress", h.RehabProgress)
}

func paramID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func mapErr(err error, fallback int) error {
	if authz.IsDenied(err) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return echo.NewHTTPError(fallback, err.Error())
}

func (h *Handler) Ingest(c echo.Context) error {
	var rd Reading
	if err := c.Bind(&rd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Ingest(c.Request().Context(), &rd); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, rd)
}

func (h *Handler) UserReadings(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	readings, total, err := h.svc.UserReadings(c.Request().Context(), id, p.Limit, p.Offset)
	if err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(readings, total, p.Limit, p.Offset))
}

func (h *Handler) WearableReadings(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	readings, total, err := h.svc.WearableReadings(c.Request().Context(), id, p.Limit, p.Offset)
	if err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(readings, total, p.Limit, p.Offset))
}

func (h *Handler) FallRisk(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	report, err := h.svc.FallRisk(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) RehabProgress(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	report, err := h.svc.RehabProgress(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, report)
}
