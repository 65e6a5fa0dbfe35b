// Package forecast integrates the external bed-demand forecasting
// collaborator. The collaborator is a pure function over a historical
// occupancy series; nothing here touches the inventory stores.
package forecast

import (
	"context"
	"strconv"
	"strings"

	"github.com/medibed/medibed/internal/platform/apperror"
)

// HorizonDays is the fixed length of every predicted series.
const HorizonDays = 7

// Result is a 7-day demand prediction with optional confidence bounds.
type Result struct {
	PredictedDemand    []float64           `json:"predicted_demand"`
	ConfidenceInterval *ConfidenceInterval `json:"confidence_interval,omitempty"`
}

// ConfidenceInterval holds the lower and upper bounds of the prediction.
type ConfidenceInterval struct {
	LowerBound []float64 `json:"lower_bound"`
	UpperBound []float64 `json:"upper_bound"`
}

// Forecaster predicts bed demand from daily occupancy history.
type Forecaster interface {
	ForecastDemand(ctx context.Context, historical []int) (*Result, error)
}

// ParseSeries parses a comma-separated list of non-negative integers, the
// format hospitals submit their daily occupancy history in.
func ParseSeries(s string) ([]int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, apperror.Invalid("historical data is required")
	}

	parts := strings.Split(trimmed, ",")
	series := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, apperror.Invalid("historical data must be comma-separated integers, got %q", p)
		}
		if n < 0 {
			return nil, apperror.Invalid("occupancy values must not be negative, got %d", n)
		}
		series = append(series, n)
	}
	return series, nil
}

// Validate checks that a collaborator response has the expected shape.
func (r *Result) Validate() error {
	if len(r.PredictedDemand) != HorizonDays {
		return apperror.Unavailable("forecast service returned malformed prediction", nil)
	}
	if ci := r.ConfidenceInterval; ci != nil {
		if len(ci.LowerBound) != HorizonDays || len(ci.UpperBound) != HorizonDays {
			return apperror.Unavailable("forecast service returned malformed confidence interval", nil)
		}
	}
	return nil
}
