package forecast

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medibed/medibed/internal/platform/apperror"
	"github.com/medibed/medibed/internal/platform/auth"
)

type Handler struct {
	forecaster Forecaster
}

func NewHandler(f Forecaster) *Handler {
	return &Handler{forecaster: f}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/forecast", h.ForecastDemand, auth.RequireRole(auth.RoleHospital))
}

type demandRequest struct {
	HistoricalData string `json:"historical_data"`
}

func (h *Handler) ForecastDemand(c echo.Context) error {
	var req demandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	series, err := ParseSeries(req.HistoricalData)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}

	if h.forecaster == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "forecasting is not configured")
	}

	result, err := h.forecaster.ForecastDemand(c.Request().Context(), series)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
