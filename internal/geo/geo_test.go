package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dearxcorex/MakeItFast/internal/geo"
)

func TestDistance_KnownValues(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
	}{
		{
			name: "same point",
			lat1: 13.7563, lon1: 100.5018,
			lat2: 13.7563, lon2: 100.5018,
			wantKm: 0,
		},
		{
			name: "one degree of longitude at the equator",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 1,
			wantKm: 111.19,
		},
		{
			name: "one degree of latitude",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			wantKm: 111.19,
		},
		{
			name: "bangkok to chiang mai",
			lat1: 13.7563, lon1: 100.5018,
			lat2: 18.7883, lon2: 98.9853,
			wantKm: 586,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geo.Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantKm, got, tt.wantKm*0.01+0.01)
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	pairs := [][4]float64{
		{13.7563, 100.5018, 18.7883, 98.9853},
		{0, 0, -45.5, 170.2},
		{52.370216, 4.895168, 52.308056, 4.763889},
		{-33.8688, 151.2093, 51.5074, -0.1278},
	}

	for _, p := range pairs {
		forward := geo.Distance(p[0], p[1], p[2], p[3])
		backward := geo.Distance(p[2], p[3], p[0], p[1])
		assert.InDelta(t, forward, backward, 1e-9)
	}
}

func TestDistance_NonFiniteInputsProduceNaN(t *testing.T) {
	assert.True(t, math.IsNaN(geo.Distance(math.NaN(), 0, 1, 1)))
	assert.True(t, math.IsNaN(geo.Distance(0, math.Inf(1), 1, 1)))
}
