package assistant

// AskRequest is a question for the climate assistant
type AskRequest struct {
	Question string
	Location string
	Context  string

	// RequestID ties the generation log to the HTTP request
	RequestID string
}

// ActionPlanRequest asks for a personalized 30-day plan
type ActionPlanRequest struct {
	Location  string
	Lifestyle string
	Concerns  string

	RequestID string
}

// NewsRequest asks for a plain-language analysis of an article
type NewsRequest struct {
	Headline string
	Article  string

	RequestID string
}

// FootprintRequest describes the habits used for the footprint estimate
type FootprintRequest struct {
	Transport string
	Energy    string
	Diet      string
	Shopping  string
	Location  string

	RequestID string
}

// SubmitActionRequest reports an action taken by a user
type SubmitActionRequest struct {
	Action string
	Impact string
}
