package group

import (
	"context"
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
	g := api.Group("/groups", auth.RequireRole(auth.RoleAdmin, auth.RoleManager))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/members", h.Members)
	g.POST("/:id/members/:userID", h.AddMember)
	g.DELETE("/:id/members/:userID", h.RemoveMember)
	g.GET("/:id/managers", h.Managers)
	g.POST("/:id/managers/:userID", h.AddManager)
	g.DELETE("/:id/managers/:userID", h.RemoveManager)
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
	var g Group
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &g); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	g, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var g Group
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g.ID = id
	if err := h.svc.Update(c.Request().Context(), &g); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, g)
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
	groups, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(groups, total, p.Limit, p.Offset))
}

func (h *Handler) Members(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ids, err := h.svc.Members(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"member_ids": ids})
}

func (h *Handler) AddMember(c echo.Context) error {
	return h.relation(c, h.svc.AddMember, http.StatusCreated)
}

func (h *Handler) RemoveMember(c echo.Context) error {
	return h.relation(c, h.svc.RemoveMember, http.StatusNoContent)
}

func (h *Handler) Managers(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ids, err := h.svc.Managers(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"manager_ids": ids})
}

func (h *Handler) AddManager(c echo.Context) error {
	return h.relation(c, h.svc.AddManager, http.StatusCreated)
}

func (h *Handler) RemoveManager(c echo.Context) error {
	return h.relation(c, h.svc.RemoveManager, http.StatusNoContent)
}

func (h *Handler) relation(c echo.Context, fn func(ctx context.Context, groupID, userID int64) error, okStatus int) error {
	groupID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userID")
	if err != nil {
		return err
	}
	if err := fn(c.Request().Context(), groupID, userID); err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	if okStatus == http.StatusNoContent {
		return c.NoContent(okStatus)
	}
	return c.JSON(okStatus, map[string]string{"status": "ok"})
}
