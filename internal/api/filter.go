package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/paging"
	"github.com/santiagocoriap/quakescope/internal/pairing"
)

const maxLimit = 500

type rangeParams struct {
	min, max string
	target   *models.Range
}

// parseFilter builds a FilterState from query parameters on top of the
// defaults. Unknown sort options fall back to the first one allowed for the
// listing type.
func parseFilter(c *gin.Context) (models.FilterState, error) {
	f := models.DefaultFilterState()

	if t := c.Query("type"); t != "" {
		et, ok := models.ParseEarthquakeType(t)
		if !ok {
			return f, fmt.Errorf("invalid type: %q", t)
		}
		f.Type = et
	}
	if m := c.Query("match"); m != "" {
		ms, ok := models.ParseMatchStrategy(m)
		if !ok {
			return f, fmt.Errorf("invalid match strategy: %q", m)
		}
		f.Matching = ms
	}
	if l := c.Query("limit"); l != "" {
		lim, err := strconv.Atoi(l)
		if err != nil || lim < 1 || lim > maxLimit {
			return f, fmt.Errorf("limit must be between 1 and %d", maxLimit)
		}
		f.Limit = lim
	}

	ranges := []rangeParams{
		{"min_mag", "max_mag", &f.MagnitudeRange},
		{"min_depth", "max_depth", &f.DepthRange},
		{"real_min_mag", "real_max_mag", &f.RealMagnitudeRange},
		{"real_min_depth", "real_max_depth", &f.RealDepthRange},
		{"estimated_min_mag", "estimated_max_mag", &f.EstimatedMagnitudeRange},
		{"estimated_min_depth", "estimated_max_depth", &f.EstimatedDepthRange},
	}
	for _, r := range ranges {
		if err := parseRange(c, r); err != nil {
			return f, err
		}
	}

	f.Sort = pairing.EnsureAllowed(models.ParseSortOption(c.Query("sort")), f.Type)
	return f, nil
}

func parseRange(c *gin.Context, r rangeParams) error {
	if v := c.Query(r.min); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", r.min, v)
		}
		r.target.Min = f
	}
	if v := c.Query(r.max); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", r.max, v)
		}
		r.target.Max = f
	}
	if r.target.Min > r.target.Max {
		return fmt.Errorf("%s must not exceed %s", r.min, r.max)
	}
	return nil
}

// parsePage reads the page key. Without a page, an anchor item position
// selects the page holding that item.
func parsePage(c *gin.Context, pageSize int) (*int, error) {
	p := c.Query("page")
	if p == "" {
		a := c.Query("anchor")
		if a == "" {
			return nil, nil
		}
		anchor, err := strconv.Atoi(a)
		if err != nil || anchor < 0 {
			return nil, fmt.Errorf("invalid anchor: %q", a)
		}
		return paging.RefreshKey(&anchor, pageSize), nil
	}
	page, err := strconv.Atoi(p)
	if err != nil || page < 0 {
		return nil, fmt.Errorf("invalid page: %q", p)
	}
	return &page, nil
}
