package geo

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// directionsBaseURL is the Google Maps universal directions endpoint.
const directionsBaseURL = "https://www.google.com/maps/dir/"

// DirectionsURL builds a driving-directions deep link to the given
// destination coordinate. Construction only; launching the map application
// is the caller's concern.
//
// Non-finite coordinates are rejected with a descriptive error, never
// silently coerced.
func DirectionsURL(destLat, destLon float64) (string, error) {
	if err := validateCoordinate("destination", destLat, destLon); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", formatCoordinate(destLat, destLon))
	q.Set("travelmode", "driving")

	return directionsBaseURL + "?" + q.Encode(), nil
}

// DirectionsURLFrom builds a driving-directions deep link with an explicit
// origin, for callers that already hold a device position.
func DirectionsURLFrom(originLat, originLon, destLat, destLon float64) (string, error) {
	if err := validateCoordinate("origin", originLat, originLon); err != nil {
		return "", err
	}
	if err := validateCoordinate("destination", destLat, destLon); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", formatCoordinate(originLat, originLon))
	q.Set("destination", formatCoordinate(destLat, destLon))
	q.Set("travelmode", "driving")

	return directionsBaseURL + "?" + q.Encode(), nil
}

func validateCoordinate(field string, lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("%s latitude is not a finite number", field)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return fmt.Errorf("%s longitude is not a finite number", field)
	}
	return nil
}

func formatCoordinate(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
