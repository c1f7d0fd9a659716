// Package climate serves local and global climate data.
package climate

import (
	"context"
	"strings"

	"github.com/upb/climate-action-ai/models"
)

// Provider supplies climate data. Implementations must be safe for
// concurrent use.
type Provider interface {
	Snapshot(ctx context.Context, city string) (*models.ClimateSnapshot, error)
	GlobalStats(ctx context.Context) (*models.GlobalStats, error)
}

// MockProvider returns fixed demonstration data for every city.
type MockProvider struct{}

// NewMockProvider creates a MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Snapshot returns the demonstration snapshot labelled with city.
func (MockProvider) Snapshot(ctx context.Context, city string) (*models.ClimateSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &models.ClimateSnapshot{
		Success:     true,
		City:        city,
		CurrentTemp: 28.5,
		TempAnomaly: 1.8,
		AQI:         156,
		AQIStatus:   AQIStatus(156),
		TempTrend: []models.TempPoint{
			{Year: 2000, Temp: 25.2},
			{Year: 2005, Temp: 25.8},
			{Year: 2010, Temp: 26.3},
			{Year: 2015, Temp: 27.1},
			{Year: 2020, Temp: 27.8},
			{Year: 2025, Temp: 28.5},
		},
		ExtremeEvents: models.ExtremeEvents{
			Heatwaves: 12,
			Floods:    3,
			Droughts:  2,
		},
		Forecast: "Temperature expected to rise 2-4°C by 2050 without action",
	}, nil
}

// GlobalStats returns the demonstration global indicators.
func (MockProvider) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &models.GlobalStats{
		GlobalTemp:    1.2,
		CO2Level:      421,
		SeaLevel:      10.1,
		ArcticIce:     -13.2,
		ExtremeEvents: 432,
		TrendingUp:    true,
	}, nil
}

// AQIStatus maps a US EPA air quality index to its category name.
func AQIStatus(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// NormalizeCity trims the city path parameter. Case is preserved so cache
// keys match what the caller asked for.
func NormalizeCity(city string) string {
	return strings.TrimSpace(city)
}
