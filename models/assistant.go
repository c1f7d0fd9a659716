package models

import "time"

// AssistantAnswer is the response of the climate assistant
type AssistantAnswer struct {
	Success   bool      `json:"success"`
	Answer    string    `json:"answer"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

// ActionPlan is a generated 30-day action plan
type ActionPlan struct {
	Success       bool   `json:"success"`
	ActionPlan    string `json:"actionPlan"`
	Model         string `json:"model"`
	CarbonGoal    int    `json:"carbonGoal"`
	CommunitySize int    `json:"communitySize"`
}

// NewsAnalysis is a plain-language breakdown of a news article
type NewsAnalysis struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis"`
	Model    string `json:"model"`
}

// FootprintReport is the carbon footprint estimate with the generated analysis.
// Footprint is tons of CO2 per year formatted with one decimal.
type FootprintReport struct {
	Success        bool    `json:"success"`
	Footprint      string  `json:"footprint"`
	Analysis       string  `json:"analysis"`
	Model          string  `json:"model"`
	GlobalAverage  float64 `json:"globalAverage"`
	CountryAverage float64 `json:"countryAverage"`
}

// ActionSubmission acknowledges a submitted climate action
type ActionSubmission struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	PointsEarned   int     `json:"pointsEarned"`
	CO2Saved       string  `json:"co2Saved"`
	Badge          *string `json:"badge"`
	CommunityTotal string  `json:"communityTotal"`
}
