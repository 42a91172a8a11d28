package event

import "time"

const AnalysisQueue string = "soil_analysis_events"

type AnalysisEventType string

const (
	AnalysisCompleted AnalysisEventType = "soil_analysis_completed"
)

// AnalysisEvent is the message body published after a prediction.
type AnalysisEvent struct {
	ID          string            `json:"id"`
	EventType   AnalysisEventType `json:"event_type"`
	AnalysisID  string            `json:"analysis_id"`
	Language    string            `json:"language"`
	HealthScore int               `json:"health_score"`
	Status      string            `json:"overall_status"`
	Predictions map[string]string `json:"predictions"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
