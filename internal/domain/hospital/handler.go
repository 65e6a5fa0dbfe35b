package hospital

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibed/medibed/internal/platform/apperror"
	"github.com/medibed/medibed/internal/platform/auth"
	"github.com/medibed/medibed/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/hospitals", h.Register, auth.RequireRole(auth.RoleHospital))
	api.GET("/hospitals", h.List)
	api.GET("/hospitals/:id", h.Get)
	api.PUT("/hospitals/:id/profile", h.UpdateProfile, auth.RequireRole(auth.RoleHospital))
	api.POST("/hospitals/:id/approve", h.Approve, auth.RequireRole(auth.RoleAdmin))
	api.POST("/hospitals/:id/reject", h.Reject, auth.RequireRole(auth.RoleAdmin))
}

func httpError(err error) error {
	return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
}

func (h *Handler) Register(c echo.Context) error {
	callerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "caller identity is not a valid id")
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Register(c.Request().Context(), callerID, &p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	// Non-admin callers only see approved hospitals other than their own.
	role := auth.RoleFromContext(c.Request().Context())
	if role != auth.RoleAdmin && !hosp.IsApproved() && auth.UserIDFromContext(c.Request().Context()) != hosp.ID.String() {
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	admin := auth.RoleFromContext(c.Request().Context()) == auth.RoleAdmin

	params := map[string]string{}
	for _, key := range []string{"status", "state", "district"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}

	items, total, err := h.svc.List(c.Request().Context(), admin, params, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != auth.RoleAdmin && auth.UserIDFromContext(ctx) != id.String() {
		return echo.NewHTTPError(http.StatusForbidden, "not your hospital")
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.UpdateProfile(ctx, id, &p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.setStatus(c, StatusApproved)
}

func (h *Handler) Reject(c echo.Context) error {
	return h.setStatus(c, StatusRejected)
}

func (h *Handler) setStatus(c echo.Context, status string) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var (
		hosp *Hospital
	)
	switch status {
	case StatusApproved:
		hosp, err = h.svc.Approve(c.Request().Context(), id)
	default:
		hosp, err = h.svc.Reject(c.Request().Context(), id)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, hosp)
}
