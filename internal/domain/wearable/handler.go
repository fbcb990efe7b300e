package wearable

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vitalis/vitalis/internal/platform/auth"
	"github.com/vitalis/vitalis/internal/platform/authz"
	"github.com/vitalis/vitalis/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	w := api.Group("/wearables")
	w.GET("/:id", h.Get)
	w.GET("", h.List)

	// Registration and assignment need management authority up front. The
	// engine still makes the final per-device decision.
	mgmt := api.Group("/wearables", auth.RequireRole(auth.RoleAdmin, auth.RoleManager))
	mgmt.POST("", h.Create)
	mgmt.PUT("/:id", h.Update)
	mgmt.DELETE("/:id", h.Delete)
	mgmt.GET("/:id/assignments", h.Assignments)
	mgmt.POST("/:id/assignments", h.Assign)
	mgmt.DELETE("/:id/assignments/:assignmentID", h.EndAssignment)
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func mapErr(err error, fallback int) error {
	if authz.IsDenied(err) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return echo.NewHTTPError(fallback, err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	var w Wearable
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &w); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var w Wearable
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w.ID = id
	if err := h.svc.Update(c.Request().Context(), &w); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	wearables, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(wearables, total, p.Limit, p.Offset))
}

func (h *Handler) Assign(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var a Assignment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.WearableID = id
	if err := h.svc.Assign(c.Request().Context(), &a); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) EndAssignment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	assignmentID, err := paramID(c, "assignmentID")
	if err != nil {
		return err
	}
	if err := h.svc.EndAssignment(c.Request().Context(), id, assignmentID); err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Assignments(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	assignments, err := h.svc.Assignments(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, assignments)
}
