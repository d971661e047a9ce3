package web

// Metrics receives portal counters. *influxdb.Client satisfies it.
type Metrics interface {
	RecordLogin(portal, outcome string)
	RecordRegistration(role, outcome string)
	RecordSubmission(kind, role string)
}

// Login and registration outcomes.
const (
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid"
	outcomeWrongPortal = "wrong_portal"
	outcomeDuplicate   = "duplicate"
	outcomeError       = "error"
)

// Submission kinds.
const (
	kindFeedback   = "feedback"
	kindSuggestion = "suggestion"
)

type noopMetrics struct{}

func (noopMetrics) RecordLogin(string, string)        {}
func (noopMetrics) RecordRegistration(string, string) {}
func (noopMetrics) RecordSubmission(string, string)   {}
