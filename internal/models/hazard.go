package models

import "time"

// Hazard identifies one of the scored hazard domains.
type Hazard string

const (
	HazardFlood      Hazard = "flood"
	HazardWildfire   Hazard = "wildfire"
	HazardEarthquake Hazard = "earthquake"
	HazardCyclone    Hazard = "cyclone"
	HazardHeatwave   Hazard = "heatwave"
)

// HazardOrder is the fixed iteration order used for tie-breaks and stable output.
var HazardOrder = []Hazard{HazardFlood, HazardWildfire, HazardEarthquake, HazardCyclone, HazardHeatwave}

// Level is the qualitative risk band for a score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
	LevelSevere   Level = "SEVERE"
	LevelExtreme  Level = "EXTREME"
)

// SeverityRank orders levels for alert sorting; lower rank is more severe.
func SeverityRank(l Level) int {
	switch l {
	case LevelExtreme:
		return 0
	case LevelSevere:
		return 1
	case LevelHigh:
		return 2
	case LevelModerate:
		return 3
	default:
		return 4
	}
}

// DataStatus distinguishes how an observation was obtained, so consumers can
// tell "confidently fresh" from "degraded but usable" from "no data".
type DataStatus string

const (
	StatusFresh       DataStatus = "fresh"
	StatusStale       DataStatus = "stale"
	StatusUnavailable DataStatus = "unavailable"
)

// Dataset names the cached upstream observation kinds.
type Dataset string

const (
	DatasetSeismic Dataset = "seismic"
	DatasetStorm   Dataset = "storm"
	DatasetPrecip  Dataset = "precip"
)

// Location is a geographic point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SeismicEvent is one normalized catalog event, annotated with the computed
// great-circle distance from the queried location.
type SeismicEvent struct {
	ID            string  `json:"id"`
	Magnitude     float64 `json:"magnitude"`
	MagnitudeType string  `json:"magnitudeType"`
	Place         string  `json:"place"`
	TimeMs        int64   `json:"timeMs"`
	DepthKm       float64 `json:"depthKm"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	DistanceKm    float64 `json:"distanceKm"`
	Tsunami       bool    `json:"tsunami"`
	AlertLevel    string  `json:"alertLevel,omitempty"`
	Significance  int     `json:"significance"`
}

// SeismicObservation is the normalized output of one seismic fetch.
type SeismicObservation struct {
	Events    []SeismicEvent `json:"events"`
	Status    DataStatus     `json:"status"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// StormKind is the tagged storm classification. Hurricanes additionally carry
// a Saffir-Simpson category on Storm.Category; the other kinds do not.
type StormKind string

const (
	StormDepression    StormKind = "Depression"
	StormTropicalStorm StormKind = "TropicalStorm"
	StormHurricane     StormKind = "Hurricane"
)

// Storm is one active or forecast storm system derived from wind and
// weather-code telemetry.
type Storm struct {
	Kind         StormKind `json:"kind"`
	Category     int       `json:"category,omitempty"` // 1..5, hurricanes only
	WindSpeedKmh float64   `json:"windSpeedKmh"`
	WindGustsKmh float64   `json:"windGustsKmh"`
	DirectionDeg float64   `json:"directionDeg"`
}

// StormAlert is a provider-derived severe weather advisory.
type StormAlert struct {
	Event    string `json:"event"`
	Severity Level  `json:"severity"`
	Headline string `json:"headline"`
}

// WeatherSnapshot is the current-conditions slice of the forecast payload.
// Wildfire scoring reads temperature/humidity/wind; flood scoring reads the
// hourly precipitation intensity.
type WeatherSnapshot struct {
	Temperature      float64 `json:"temperature"`
	Humidity         float64 `json:"humidity"`
	ApparentTemp     float64 `json:"apparentTemp"`
	Precipitation    float64 `json:"precipitation"` // mm/hr
	CloudCover       float64 `json:"cloudCover"`
	WindSpeedKmh     float64 `json:"windSpeedKmh"`
	WindGustsKmh     float64 `json:"windGustsKmh"`
	WindDirectionDeg float64 `json:"windDirectionDeg"`
	WeatherCode      int     `json:"weatherCode"`
}

// StormObservation is the normalized output of one storm-telemetry fetch.
type StormObservation struct {
	Current   WeatherSnapshot `json:"current"`
	Storms    []Storm         `json:"storms"`
	Alerts    []StormAlert    `json:"alerts"`
	Status    DataStatus      `json:"status"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// PrecipitationObservation is the normalized output of one precipitation
// history fetch. Daily is ordered oldest first.
type PrecipitationObservation struct {
	Daily              []float64  `json:"dailyPrecipitation"`
	Total7Day          float64    `json:"total7Day"`
	Total3Day          float64    `json:"total3Day"`
	ConsecutiveDryDays int        `json:"consecutiveDryDays"`
	Status             DataStatus `json:"status"`
	FetchedAt          time.Time  `json:"fetchedAt"`
}

// HeatAdvisory is the externally supplied qualitative heat level. Zero value
// means no advisory is in effect.
type HeatAdvisory struct {
	Level     Level     `json:"level,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Factor is one additive contribution to a hazard score.
type Factor struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Impact int     `json:"impact"`
}

// RiskScore is the bounded, explainable output of one hazard scorer.
type RiskScore struct {
	Score           int      `json:"score"`
	Level           Level    `json:"level"`
	Factors         []Factor `json:"factors"`
	Reasoning       string   `json:"reasoning"`
	Recommendations []string `json:"recommendations"`
}

// CompositeRiskIndex combines the per-hazard scores into one weighted index.
type CompositeRiskIndex struct {
	Score          int                `json:"score"`
	Level          Level              `json:"level"`
	PrimaryConcern string             `json:"primaryConcern"`
	Breakdown      map[Hazard]int     `json:"breakdown"`
	Weights        map[Hazard]float64 `json:"weights"`
	HighRiskCount  int                `json:"highRiskCount"`
}

// Alert is an attention-worthy hazard projected from its score.
type Alert struct {
	Type     Hazard `json:"type"`
	Severity Level  `json:"severity"`
	Message  string `json:"message"`
}

// Assessment is one full engine cycle's output for a location.
type Assessment struct {
	Location    Location               `json:"location"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Scores      map[Hazard]RiskScore   `json:"scores"`
	Composite   CompositeRiskIndex     `json:"composite"`
	Alerts      []Alert                `json:"alerts"`
	DataStatus  map[Dataset]DataStatus `json:"dataStatus"`
	Degraded    bool                   `json:"degraded"` // any dataset stale or unavailable
}
