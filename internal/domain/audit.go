package domain

import "time"

// TransitionRecord is a write-only audit entry describing one callback.
type TransitionRecord struct {
	PK            string
	SK            string
	CorrelationID string
	TopicID       string
	FromStage     Stage
	ToStage       Stage
	Outcome       Outcome
	LatencyMillis int64
	OccurredAt    time.Time
	TTL           int64
}
