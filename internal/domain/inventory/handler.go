package inventory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibed/medibed/internal/platform/apperror"
	"github.com/medibed/medibed/internal/platform/auth"
	"github.com/medibed/medibed/pkg/pagination"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/catalog/departments", h.DepartmentCatalog)
	api.GET("/catalog/bed-types", h.BedTypeCatalog)

	staff := auth.RequireRole(auth.RoleHospital)
	api.POST("/hospitals/:hid/departments", h.CreateDepartment, staff)
	api.POST("/hospitals/:hid/departments/bulk", h.CreateDepartmentWithBeds, staff)
	api.GET("/hospitals/:hid/departments", h.ListDepartments)
	api.GET("/hospitals/:hid/departments/:did", h.GetDepartment)
	api.GET("/hospitals/:hid/departments/:did/occupancy", h.DepartmentOccupancy)

	api.POST("/hospitals/:hid/departments/:did/beds", h.CreateBed, staff)
	api.POST("/hospitals/:hid/departments/:did/beds/bulk", h.CreateBedsBulk, staff)
	api.GET("/hospitals/:hid/departments/:did/beds", h.ListBeds)
	api.GET("/hospitals/:hid/departments/:did/beds/:bedID", h.GetBed)
	api.PUT("/hospitals/:hid/departments/:did/beds/:bedID/status", h.UpdateBedStatus, staff)
	api.DELETE("/hospitals/:hid/departments/:did/beds/:bedID", h.DeleteBed, staff)
	api.POST("/hospitals/:hid/departments/:did/beds/:bedID/book", h.BookBed, auth.RequireRole(auth.RolePatient))

	api.GET("/hospitals/:hid/beds/available", h.SearchAvailable)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
}

// hospitalParam parses :hid and, when mustOwn is set, verifies the caller is
// the hospital's staff account or an admin.
func hospitalParam(c echo.Context, mustOwn bool) (uuid.UUID, error) {
	hid, err := uuid.Parse(c.Param("hid"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	if mustOwn {
		ctx := c.Request().Context()
		if auth.RoleFromContext(ctx) != auth.RoleAdmin && auth.UserIDFromContext(ctx) != hid.String() {
			return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "not your hospital")
		}
	}
	return hid, nil
}

func departmentParam(c echo.Context) (uuid.UUID, error) {
	did, err := uuid.Parse(c.Param("did"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid department id")
	}
	return did, nil
}

// -- Catalogs --

func (h *Handler) DepartmentCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, DepartmentTemplates)
}

func (h *Handler) BedTypeCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, BedTypes)
}

// -- Departments --

type createDepartmentRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	DefaultBedType string `json:"default_bed_type"`
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	hid, err := hospitalParam(c, true)
	if err != nil {
		return err
	}
	var req createDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.engine.CreateDepartment(c.Request().Context(), hid, req.Name, req.Description, req.DefaultBedType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

type createDepartmentWithBedsRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	DefaultBedType string `json:"default_bed_type"`
	BedCount       int    `json:"bed_count"`
}

type departmentWithBedsResponse struct {
	Department *Department `json:"department"`
	Beds       []*Bed      `json:"beds"`
}

func (h *Handler) CreateDepartmentWithBeds(c echo.Context) error {
	hid, err := hospitalParam(c, true)
	if err != nil {
		return err
	}
	var req createDepartmentWithBedsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tpl := DepartmentTemplate{Name: req.Name, Description: req.Description, DefaultBedType: req.DefaultBedType}
	d, beds, err := h.engine.CreateDepartmentWithBeds(c.Request().Context(), hid, tpl, req.BedCount)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, departmentWithBedsResponse{Department: d, Beds: beds})
}

func (h *Handler) ListDepartments(c echo.Context) error {
	hid, err := hospitalParam(c, false)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.engine.ListDepartments(c.Request().Context(), hid, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDepartment(c echo.Context) error {
	hid, err := hospitalParam(c, false)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	d, err := h.engine.GetDepartment(c.Request().Context(), hid, did)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DepartmentOccupancy(c echo.Context) error {
	hid, err := hospitalParam(c, false)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	occ, err := h.engine.DepartmentOccupancy(c.Request().Context(), hid, did)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, occ)
}

// -- Beds --

func (h *Handler) CreateBed(c echo.Context) error {
	hid, err := hospitalParam(c, true)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	var spec BedSpec
	if err := c.Bind(&spec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.engine.CreateBed(c.Request().Context(), hid, did, spec)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

type createBedsBulkRequest struct {
	Count int    `json:"count"`
	Type  string `json:"type"`
}

func (h *Handler) CreateBedsBulk(c echo.Context) error {
	hid, err := hospitalParam(c, true)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	var req createBedsBulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	beds, err := h.engine.CreateBedsBulk(c.Request().Context(), hid, did, req.Count, req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, beds)
}

func (h *Handler) ListBeds(c echo.Context) error {
	hid, err := hospitalParam(c, false)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.engine.ListBeds(c.Request().Context(), hid, did, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetBed(c echo.Context) error {
	hid, err := hospitalParam(c, false)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	b, err := h.engine.GetBed(c.Request().Context(), hid, did, c.Param("bedID"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

type updateBedStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

func (h *Handler) UpdateBedStatus(c echo.Context) error {
	hid, err := hospitalParam(c, true)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	var req updateBedStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.engine.UpdateBedStatus(c.Request().Context(), hid, did, c.Param("bedID"), req.Status, req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBed(c echo.Context) error {
	hid, err := hospitalParam(c, true)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	if err := h.engine.DeleteBed(c.Request().Context(), hid, did, c.Param("bedID")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) BookBed(c echo.Context) error {
	hid, err := hospitalParam(c, false)
	if err != nil {
		return err
	}
	did, err := departmentParam(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "caller identity is not a valid id")
	}
	b, err := h.engine.BookBed(c.Request().Context(), hid, did, c.Param("bedID"), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) SearchAvailable(c echo.Context) error {
	hid, err := hospitalParam(c, false)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)

	var deptFilter *uuid.UUID
	if v := c.QueryParam("department_id"); v != "" {
		did, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid department_id")
		}
		deptFilter = &did
	}

	items, total, err := h.engine.SearchAvailable(c.Request().Context(), hid, deptFilter, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
