package pairing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/santiagocoriap/quakescope/internal/models"
)

func ids(pairs []models.EarthquakePair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Key()
	}
	return out
}

func pairOf(id string, realMag, estMag float64, realAt, estAt time.Time) models.EarthquakePair {
	r := realQuake(id, realMag, realMag*10, 0, 0, realAt)
	e := estimate("exp-"+id, id, estMag, estMag*10, 0, 0, estAt)
	return models.EarthquakePair{Real: &r, Estimated: &e}
}

func TestSort_GenericOptionsUseBothSides(t *testing.T) {
	a := pairOf("a", 5.0, 7.0, base, base.Add(3*time.Hour))
	b := pairOf("b", 6.0, 4.0, base.Add(2*time.Hour), base)
	c := pairOf("c", 4.0, 4.5, base.Add(-time.Hour), base.Add(time.Hour))
	pairs := []models.EarthquakePair{a, b, c}

	tests := []struct {
		option models.SortOption
		want   []string
	}{
		{models.SortTimeDesc, []string{"a", "b", "c"}},
		{models.SortTimeAsc, []string{"c", "a", "b"}},
		{models.SortMagnitudeDesc, []string{"a", "b", "c"}},
		{models.SortMagnitudeAsc, []string{"b", "c", "a"}},
		{models.SortDepthDesc, []string{"a", "b", "c"}},
		{models.SortDepthAsc, []string{"b", "c", "a"}},
		{models.SortRealMagnitudeDesc, []string{"b", "a", "c"}},
		{models.SortEstimatedMagnitudeAsc, []string{"b", "c", "a"}},
		{models.SortEstimatedTimeDesc, []string{"a", "c", "b"}},
		{models.SortRealTimeAsc, []string{"c", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(pairs, tt.option)))
		})
	}
}

func TestSort_MissingSide(t *testing.T) {
	r := realQuake("r", 5.0, 10, 0, 0, base)
	e := estimate("exp-e", "e", 6.0, 10, 0, 0, base.Add(time.Hour))
	onlyReal := models.EarthquakePair{Real: &r}
	onlyEstimate := models.EarthquakePair{Estimated: &e}
	empty := models.EarthquakePair{}

	pairs := []models.EarthquakePair{onlyReal, empty, onlyEstimate}

	// Missing real side sorts first ascending and last descending.
	assert.Equal(t, []string{"", "e", "r"}, ids(Sort(pairs, models.SortRealMagnitudeAsc)))
	assert.Equal(t, []string{"r", "", "e"}, ids(Sort(pairs, models.SortRealMagnitudeDesc)))

	// Empty pairs sort last for aggregate options.
	assert.Equal(t, []string{"e", "r", ""}, ids(Sort(pairs, models.SortTimeDesc)))
	assert.Equal(t, []string{"r", "e", ""}, ids(Sort(pairs, models.SortTimeAsc)))
}

func TestSort_IsStableAndDoesNotMutateInput(t *testing.T) {
	a := pairOf("a", 5.0, 5.0, base, base)
	b := pairOf("b", 5.0, 5.0, base, base)
	c := pairOf("c", 5.0, 5.0, base, base)
	pairs := []models.EarthquakePair{c, a, b}

	sorted := Sort(pairs, models.SortMagnitudeDesc)

	assert.Equal(t, []string{"c", "a", "b"}, ids(sorted))
	assert.Equal(t, []string{"c", "a", "b"}, ids(pairs))
}

func TestAvailableFor(t *testing.T) {
	assert.Len(t, AvailableFor(models.EarthquakeTypePairs), 18)
	assert.Len(t, AvailableFor(models.EarthquakeTypeReal), 6)
	assert.Len(t, AvailableFor(models.EarthquakeTypeEstimated), 6)
	assert.NotContains(t, AvailableFor(models.EarthquakeTypeReal), models.SortRealTimeDesc)
}

func TestEnsureAllowed(t *testing.T) {
	assert.Equal(t, models.SortDepthAsc, EnsureAllowed(models.SortDepthAsc, models.EarthquakeTypeReal))
	assert.Equal(t, models.SortTimeDesc, EnsureAllowed(models.SortRealDepthAsc, models.EarthquakeTypeReal))
	assert.Equal(t, models.SortRealDepthAsc, EnsureAllowed(models.SortRealDepthAsc, models.EarthquakeTypePairs))
	assert.Equal(t, models.SortTimeDesc, EnsureAllowed(models.SortOption("bogus"), models.EarthquakeTypePairs))
}
