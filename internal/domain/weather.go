package domain

import (
	"context"
	"time"
)

// WeatherObservation holds one day of raw observed weather fields, the input
// to feature derivation. All fields are required and assumed finite; JSON
// decoding rejects NaN and infinities before values reach the domain.
type WeatherObservation struct {
	MaxTempC        float64
	MinTempC        float64
	AvgTempC        float64
	HeatingDegDaysC float64
	CoolingDegDaysC float64
	PrecipMM        float64
	AvgHumidity     float64
	AvgWindKnots    float64
	AvgDewPointF    float64
	AvgVisibilityKM float64
	AvgPressureMB   float64
}

// DailyWeather is an observation as returned by the weather lookup provider,
// tagged with the observation date in YYYY-MM-DD form.
type DailyWeather struct {
	WeatherObservation
	Date string
}

// WeatherProvider fetches observed weather for a location. A nil date means
// the current day.
type WeatherProvider interface {
	FetchDaily(ctx context.Context, location string, date *time.Time) (DailyWeather, error)
}

// UnknownLocation is the label used when a request omits the location.
const UnknownLocation = "Unknown location"
