package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dearxcorex/MakeItFast/internal/geo"
)

func TestDirectionsURL(t *testing.T) {
	got, err := geo.DirectionsURL(13.7563, 100.5018)
	require.NoError(t, err)

	assert.Contains(t, got, "https://www.google.com/maps/dir/?")
	assert.Contains(t, got, "api=1")
	assert.Contains(t, got, "destination=13.7563%2C100.5018")
	assert.Contains(t, got, "travelmode=driving")
}

func TestDirectionsURLFrom(t *testing.T) {
	got, err := geo.DirectionsURLFrom(13.7563, 100.5018, 18.7883, 98.9853)
	require.NoError(t, err)

	assert.Contains(t, got, "origin=13.7563%2C100.5018")
	assert.Contains(t, got, "destination=18.7883%2C98.9853")
}

func TestDirectionsURL_RejectsNonFiniteCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{name: "NaN latitude", lat: math.NaN(), lon: 100.5},
		{name: "NaN longitude", lat: 13.7, lon: math.NaN()},
		{name: "positive infinity latitude", lat: math.Inf(1), lon: 100.5},
		{name: "negative infinity longitude", lat: 13.7, lon: math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geo.DirectionsURL(tt.lat, tt.lon)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "not a finite number")
		})
	}
}
