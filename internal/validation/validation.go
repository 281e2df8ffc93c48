package validation

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// ErrCoordinateNotANumber is returned when a coordinate fails to parse.
var ErrCoordinateNotANumber = errors.New("coordinate is not a number")

// ErrLatOutOfRange is returned when latitude is outside [-90, 90].
var ErrLatOutOfRange = errors.New("latitude out of range")

// ErrLonOutOfRange is returned when longitude is outside [-180, 180].
var ErrLonOutOfRange = errors.New("longitude out of range")

// ErrInvalidHeatLevel is returned when a heat advisory level is not recognized.
var ErrInvalidHeatLevel = errors.New("invalid heat advisory level")

// ParseCoordinates parses and bounds-checks latitude and longitude strings.
// Returns errors suitable for 400 INVALID_COORDINATES responses.
func ParseCoordinates(latStr, lonStr string) (models.Location, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return models.Location{}, ErrCoordinateNotANumber
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return models.Location{}, ErrCoordinateNotANumber
	}
	return ValidateLocation(lat, lon)
}

// ValidateLocation bounds-checks a parsed coordinate pair.
func ValidateLocation(lat, lon float64) (models.Location, error) {
	if lat < -90 || lat > 90 {
		return models.Location{}, ErrLatOutOfRange
	}
	if lon < -180 || lon > 180 {
		return models.Location{}, ErrLonOutOfRange
	}
	return models.Location{Lat: lat, Lon: lon}, nil
}

// ParseHeatLevel validates an externally supplied heat advisory level.
// Accepts LOW, MODERATE and HIGH case-insensitively; NONE or an empty string
// clears the advisory and yields the zero level.
func ParseHeatLevel(input string) (models.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "", "NONE":
		return "", nil
	case string(models.LevelLow):
		return models.LevelLow, nil
	case string(models.LevelModerate):
		return models.LevelModerate, nil
	case string(models.LevelHigh):
		return models.LevelHigh, nil
	default:
		return "", ErrInvalidHeatLevel
	}
}
