package forecast

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/medibed/medibed/internal/platform/apperror"
)

// Client calls the forecasting collaborator over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the collaborator at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

type forecastRequest struct {
	HistoricalData string `json:"historical_data"`
}

// ForecastDemand submits the occupancy history and returns the 7-day
// prediction. Transport and shape failures surface as Unavailable; the
// inventory is never touched.
func (c *Client) ForecastDemand(ctx context.Context, historical []int) (*Result, error) {
	parts := make([]string, len(historical))
	for i, n := range historical {
		parts[i] = strconv.Itoa(n)
	}

	// Some model deployments omit the Content-Type header on responses;
	// force JSON decoding so the prediction still unmarshals.
	var result Result
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(forecastRequest{HistoricalData: strings.Join(parts, ",")}).
		SetResult(&result).
		ForceContentType("application/json").
		Post("/v1/forecast")
	if err != nil {
		return nil, apperror.Unavailable("forecast service unreachable", err)
	}
	if resp.IsError() {
		return nil, apperror.Unavailable(
			fmt.Sprintf("forecast service returned status %d", resp.StatusCode()), nil)
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}
