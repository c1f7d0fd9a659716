package models

import "time"

// TempPoint is one sample of a city's temperature history
type TempPoint struct {
	Year int     `json:"year"`
	Temp float64 `json:"temp"`
}

// ExtremeEvents counts extreme weather events for a city
type ExtremeEvents struct {
	Heatwaves int `json:"heatwaves"`
	Floods    int `json:"floods"`
	Droughts  int `json:"droughts"`
}

// ClimateSnapshot is the local climate picture for one city
type ClimateSnapshot struct {
	Success       bool          `json:"success"`
	City          string        `json:"city"`
	CurrentTemp   float64       `json:"currentTemp"`
	TempAnomaly   float64       `json:"tempAnomaly"` // °C above historical average
	AQI           int           `json:"aqi"`
	AQIStatus     string        `json:"aqiStatus"`
	TempTrend     []TempPoint   `json:"tempTrend"`
	ExtremeEvents ExtremeEvents `json:"extremeEvents"`
	Forecast      string        `json:"forecast"`
}

// GlobalStats holds headline global climate indicators
type GlobalStats struct {
	GlobalTemp    float64 `json:"globalTemp"`    // °C above pre-industrial
	CO2Level      float64 `json:"co2Level"`      // ppm
	SeaLevel      float64 `json:"seaLevel"`      // cm rise since 1900
	ArcticIce     float64 `json:"arcticIce"`     // % decline per decade
	ExtremeEvents int     `json:"extremeEvents"` // this year
	TrendingUp    bool    `json:"trendingUp"`
}

// GlobalStatsReport wraps GlobalStats with provenance for the API
type GlobalStatsReport struct {
	Success     bool         `json:"success"`
	Stats       *GlobalStats `json:"stats"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Sources     []string     `json:"sources"`
	Urgency     string       `json:"urgency"`
}
