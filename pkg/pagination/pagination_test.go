package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWithQuery(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=10&offset=30", 10, 30},
		{"limit capped", "limit=5000", MaxLimit, 0},
		{"zero limit falls back", "limit=0", DefaultLimit, 0},
		{"negative offset clamped", "offset=-5", DefaultLimit, 0},
		{"garbage ignored", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromContext(ctxWithQuery(tt.query))
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestResponseHasMore(t *testing.T) {
	resp := NewResponse([]int{1, 2}, 50, 20, 0)
	if !resp.HasMore {
		t.Error("expected has_more with 50 total at offset 0")
	}
	resp = NewResponse([]int{1, 2}, 50, 20, 40)
	if resp.HasMore {
		t.Error("expected no more pages past total")
	}
}
