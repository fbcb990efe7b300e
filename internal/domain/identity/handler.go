package identity

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
	// Tenant administration is admin-only; tenant reads go through the engine.
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/tenants", h.CreateTenant)
	admin.PUT("/tenants/:id", h.UpdateTenant)
	admin.DELETE("/tenants/:id", h.DeleteTenant)
	admin.GET("/tenants", h.ListTenants)
	admin.POST("/composite-users", h.CreateCompositeUser)
	admin.DELETE("/composite-users/:id", h.DeleteCompositeUser)
	admin.GET("/composite-users", h.ListCompositeUsers)

	api.GET("/tenants/:id", h.GetTenant)
	api.GET("/tenants/:id/usage", h.GetTenantUsage)

	api.POST("/users", h.CreateUser)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)
	api.GET("/users", h.ListUsers, auth.RequireRole(auth.RoleAdmin, auth.RoleManager))

	api.GET("/composite-users/:id", h.GetCompositeUser)
	api.GET("/composite-users/:id/sub-users", h.GetSubUsers)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// mapErr translates service errors: authorization denials become a generic
// forbidden response (the detailed reason stays in the logs), everything else
// is surfaced with the given fallback status.
func mapErr(err error, fallback int) error {
	if authz.IsDenied(err) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return echo.NewHTTPError(fallback, err.Error())
}

// -- Tenant handlers --

func (h *Handler) CreateTenant(c echo.Context) error {
	var t Tenant
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateTenant(c.Request().Context(), &t); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTenant(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTenant(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetTenantUsage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	used, max, err := h.svc.TenantUsage(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, map[string]int{"used": used, "max": max})
}

func (h *Handler) UpdateTenant(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var t Tenant
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.ID = id
	if err := h.svc.UpdateTenant(c.Request().Context(), &t); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTenant(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTenant(c.Request().Context(), id); err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTenants(c echo.Context) error {
	p := pagination.FromContext(c)
	tenants, total, err := h.svc.ListTenants(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(tenants, total, p.Limit, p.Offset))
}

// -- User handlers --

func (h *Handler) CreateUser(c echo.Context) error {
	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateUser(c.Request().Context(), &u); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u.ID = id
	if err := h.svc.UpdateUser(c.Request().Context(), &u); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListUsers(c echo.Context) error {
	p := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, p.Limit, p.Offset))
}

// -- CompositeUser handlers --

func (h *Handler) CreateCompositeUser(c echo.Context) error {
	var cu CompositeUser
	if err := c.Bind(&cu); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCompositeUser(c.Request().Context(), &cu); err != nil {
		return mapErr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, cu)
}

func (h *Handler) GetCompositeUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cu, err := h.svc.GetCompositeUser(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, cu)
}

func (h *Handler) GetSubUsers(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ids, err := h.svc.SubUsers(c.Request().Context(), id)
	if err != nil {
		return mapErr(err, http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sub_user_ids": ids})
}

func (h *Handler) DeleteCompositeUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCompositeUser(c.Request().Context(), id); err != nil {
		return mapErr(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListCompositeUsers(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListCompositeUsers(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
